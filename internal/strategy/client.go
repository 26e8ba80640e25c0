package strategy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"map3d-scenarios/internal/observe"
)

var (
	// ErrNoEndpoint is returned when a request is attempted before the server
	// announced where to post.
	ErrNoEndpoint = errors.New("strategy: no post endpoint")
	// ErrClosed is returned when the stream is not connected or ends while a
	// caller is waiting on it.
	ErrClosed = errors.New("strategy: stream closed")
)

const (
	DefaultBaseURL         = "https://monte-carlo-mcp-server-684569726907.us-central1.run.app"
	DefaultTool            = "find_optimal_pit_window"
	DefaultProtocolVersion = "2024-11-05"
	DefaultLeadIn          = 2 * time.Second

	initializeID = 0
	maxAckBody   = 64 << 10
)

// DefaultVariants are the strategies simulated by TriggerSimulation.
var DefaultVariants = []string{"1-stop", "2-stop", "3-stop"}

type Phase string

const (
	PhaseDisconnected     Phase = "disconnected"
	PhaseConnecting       Phase = "connecting"
	PhaseAwaitingEndpoint Phase = "awaiting_endpoint"
	PhaseInitializing     Phase = "initializing"
	PhaseInitialized      Phase = "initialized"
	PhaseStreaming        Phase = "streaming"
	PhaseClosed           Phase = "closed"
	PhaseFailed           Phase = "failed"
)

// State is the projection of one stream subscription.
type State struct {
	Phase          Phase  `json:"phase"`
	ConnectionOpen bool   `json:"connection_open"`
	Initialized    bool   `json:"initialized"`
	PostEndpoint   string `json:"post_endpoint,omitempty"`
	Text           string `json:"text"`
}

type Options struct {
	BaseURL         string
	Tool            string
	Variants        []string
	ClientName      string
	ClientVersion   string
	ProtocolVersion string
	// LeadIn is the pause Simulate takes between its two status lines.
	LeadIn     time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client keeps one SSE subscription to a tool-calling server and projects
// what it receives into an observable State.
type Client struct {
	opts  Options
	http  *http.Client
	log   *slog.Logger
	state *observe.Value[State]

	mu  sync.Mutex
	sub *subscription
}

type subscription struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	ready  chan struct{}
	once   sync.Once
	posts  sync.WaitGroup

	mu       sync.Mutex
	endpoint string
}

func (s *subscription) postEndpoint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endpoint
}

func (s *subscription) setEndpoint(u string) {
	s.mu.Lock()
	s.endpoint = u
	s.mu.Unlock()
}

func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.Tool == "" {
		opts.Tool = DefaultTool
	}
	if len(opts.Variants) == 0 {
		opts.Variants = DefaultVariants
	}
	if opts.ClientName == "" {
		opts.ClientName = "map3d-scenarios"
	}
	if opts.ClientVersion == "" {
		opts.ClientVersion = "1.0"
	}
	if opts.ProtocolVersion == "" {
		opts.ProtocolVersion = DefaultProtocolVersion
	}
	if opts.LeadIn == 0 {
		opts.LeadIn = DefaultLeadIn
	}
	hc := opts.HTTPClient
	if hc == nil {
		// No client timeout: the event stream stays open indefinitely.
		hc = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		opts:  opts,
		http:  hc,
		log:   logger.With("component", "strategy"),
		state: observe.NewValue(State{Phase: PhaseDisconnected}),
	}
}

func (c *Client) State() *observe.Value[State] { return c.state }

// Connect opens the event stream in the background. It is a no-op while a
// subscription is already live.
func (c *Client) Connect(ctx context.Context) error {
	if _, err := url.Parse(c.opts.BaseURL); err != nil {
		return fmt.Errorf("strategy base url: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sub != nil {
		select {
		case <-c.sub.done:
		default:
			return nil
		}
	}
	sctx, cancel := context.WithCancel(ctx)
	sub := &subscription{
		ctx:    sctx,
		cancel: cancel,
		done:   make(chan struct{}),
		ready:  make(chan struct{}),
	}
	c.sub = sub
	c.state.Set(State{Phase: PhaseConnecting})
	go c.stream(sub)
	return nil
}

// Done is closed when the current subscription ends.
func (c *Client) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sub == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return c.sub.done
}

// Close cancels the subscription and waits until its state is reset.
func (c *Client) Close() {
	c.mu.Lock()
	sub := c.sub
	c.sub = nil
	c.mu.Unlock()
	if sub == nil {
		return
	}
	sub.cancel()
	<-sub.done
}

// TriggerSimulation sends one tools/call per strategy variant. Before the
// session is initialized it blocks until it is, the stream ends, or ctx is
// done.
func (c *Client) TriggerSimulation(ctx context.Context) error {
	c.mu.Lock()
	sub := c.sub
	c.mu.Unlock()
	if sub == nil {
		return ErrClosed
	}
	select {
	case <-sub.ready:
	default:
		c.log.Debug("waiting for session initialization")
		select {
		case <-sub.ready:
		case <-sub.done:
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(sub.ctx, cancel)
	defer stop()

	c.state.Update(func(st State) State {
		st.Phase = PhaseStreaming
		return st
	})
	var g errgroup.Group
	for i, variant := range c.opts.Variants {
		id := int64(i + 1)
		g.Go(func() error {
			params, err := json.Marshal(&mcp.CallToolParams{
				Name:      c.opts.Tool,
				Arguments: map[string]any{"strategy_name": variant},
			})
			if err != nil {
				return err
			}
			c.log.Info("triggering simulation", "strategy", variant, "id", id)
			if err := c.call(ctx, sub, id, "tools/call", params); err != nil {
				if ctx.Err() == nil {
					c.log.Error("tools/call failed", "strategy", variant, "error", err)
					c.project(postFailedText(err))
				}
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// Simulate is TriggerSimulation preceded by user-facing progress text.
func (c *Client) Simulate(ctx context.Context) error {
	c.project(textPreparing)
	t := time.NewTimer(c.opts.LeadIn)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
	}
	c.project(textRunning)
	return c.TriggerSimulation(ctx)
}

func (c *Client) stream(sub *subscription) {
	err := c.consume(sub)
	sub.cancel()
	sub.posts.Wait()
	if err != nil {
		c.log.Error("strategy stream failed", "error", err)
	} else {
		c.log.Info("strategy stream closed")
	}
	c.state.Update(func(st State) State {
		st.ConnectionOpen = false
		st.Initialized = false
		st.PostEndpoint = ""
		st.Phase = PhaseClosed
		if err != nil {
			st.Phase = PhaseFailed
			st.Text = textConnectionFailed
		}
		return st
	})
	close(sub.done)
}

// consume reads the event stream until it ends. Cancellation is a clean
// close, not a failure.
func (c *Client) consume(sub *subscription) error {
	ctx := sub.ctx
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.BaseURL+"/sse", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("open stream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("open stream: unexpected status %s", resp.Status)
	}

	c.log.Info("strategy stream opened", "url", req.URL.String())
	c.state.Update(func(st State) State {
		st.ConnectionOpen = true
		st.Phase = PhaseAwaitingEndpoint
		return st
	})
	err = readEvents(resp.Body, func(ev Event) error {
		c.dispatch(sub, ev)
		return nil
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (c *Client) dispatch(sub *subscription, ev Event) {
	c.log.Debug("event received", "type", ev.Type, "data", ev.Data)
	switch ev.Type {
	case "endpoint":
		c.onEndpoint(sub, ev.Data)
	case "initialized":
		c.confirm(sub)
	case "message":
		c.onMessage(sub, []byte(ev.Data))
	case "tool_result":
		text, ok := toolResultText(ev.Data)
		if !ok {
			c.log.Error("failed to parse tool_result", "data", ev.Data)
		}
		c.project(text)
	case "log", "notifications/message":
		c.project(logText(ev.Data))
	case "error":
		c.log.Error("received error event", "data", ev.Data)
		c.project(errorText(ev.Data))
	default:
		c.log.Debug("unhandled event", "type", ev.Type)
	}
}

func (c *Client) onEndpoint(sub *subscription, data string) {
	target := c.opts.BaseURL + data
	if u, err := url.Parse(data); err == nil && u.IsAbs() {
		target = data
	}
	sub.setEndpoint(target)
	c.state.Update(func(st State) State {
		st.PostEndpoint = target
		if !st.Initialized {
			st.Phase = PhaseInitializing
		}
		st.Text = textConnected
		return st
	})

	sub.posts.Add(1)
	go func() {
		defer sub.posts.Done()
		if err := c.initialize(sub); err != nil && sub.ctx.Err() == nil {
			c.log.Error("initialize failed", "error", err)
			c.project(postFailedText(err))
		}
	}()
}

func (c *Client) initialize(sub *subscription) error {
	params, err := json.Marshal(&mcp.InitializeParams{
		ProtocolVersion: c.opts.ProtocolVersion,
		Capabilities:    &mcp.ClientCapabilities{},
		ClientInfo:      &mcp.Implementation{Name: c.opts.ClientName, Version: c.opts.ClientVersion},
	})
	if err != nil {
		return err
	}
	return c.call(sub.ctx, sub, initializeID, "initialize", params)
}

// call posts one JSON-RPC request to the announced endpoint. A JSON-RPC
// reply in the POST body is handled like one received on the stream.
func (c *Client) call(ctx context.Context, sub *subscription, id int64, method string, params json.RawMessage) error {
	endpoint := sub.postEndpoint()
	if endpoint == "" {
		return ErrNoEndpoint
	}
	rid, err := jsonrpc.MakeID(float64(id))
	if err != nil {
		return err
	}
	body, err := jsonrpc.EncodeMessage(&jsonrpc.Request{ID: rid, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("encode %s: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", method, err)
	}
	defer resp.Body.Close()
	ack, _ := io.ReadAll(io.LimitReader(resp.Body, maxAckBody))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("post %s: unexpected status %s", method, resp.Status)
	}
	c.log.Debug("post acknowledged", "method", method, "id", id, "body", string(ack))
	if gjson.ValidBytes(ack) && gjson.GetBytes(ack, "jsonrpc").Exists() {
		c.onMessage(sub, ack)
	}
	return nil
}

func (c *Client) onMessage(sub *subscription, data []byte) {
	msg, err := jsonrpc.DecodeMessage(data)
	if err != nil {
		// Not strict JSON-RPC; still honour an initialize reply.
		if gjson.GetBytes(data, "id").Raw == "0" && gjson.GetBytes(data, "result").Exists() {
			c.confirm(sub)
			return
		}
		c.log.Debug("ignoring message", "data", string(data), "error", err)
		return
	}
	switch m := msg.(type) {
	case *jsonrpc.Response:
		if m.Error != nil {
			c.project(errorText(m.Error.Error()))
			return
		}
		if m.ID.Raw() == int64(initializeID) && len(m.Result) > 0 {
			c.confirm(sub)
			return
		}
		if text, ok := callResultText(m.Result); ok {
			c.project(text)
		}
	case *jsonrpc.Request:
		if m.Method == "notifications/message" {
			c.project(notificationText(m.Params))
		}
	}
}

// confirm marks the subscription initialized. Later confirmations are
// ignored.
func (c *Client) confirm(sub *subscription) {
	if sub.ctx.Err() != nil {
		return
	}
	sub.once.Do(func() {
		close(sub.ready)
		c.state.Update(func(st State) State {
			st.Initialized = true
			st.Phase = PhaseInitialized
			st.Text = textReady
			return st
		})
		c.log.Info("session initialized")
	})
}

func (c *Client) project(text string) {
	c.state.Update(func(st State) State {
		st.Text = text
		return st
	})
}
