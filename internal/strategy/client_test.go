package strategy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tidwall/gjson"
)

// sseServer is a minimal tool server: it announces a post endpoint on the
// stream, relays queued events and records every POST body.
type sseServer struct {
	srv    *httptest.Server
	events chan string
	posts  chan []byte
	// reject makes every POST fail with 500 once it has been recorded.
	reject atomic.Bool
}

func newSSEServer(t *testing.T) *sseServer {
	t.Helper()
	s := &sseServer{events: make(chan string, 16), posts: make(chan []byte, 16)}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /sse", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "text/event-stream" {
			http.Error(w, "not an event stream request", http.StatusBadRequest)
			return
		}
		fl := w.(http.Flusher)
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, ": keep-alive\n\nevent: endpoint\ndata: /messages?session_id=abc\n\n")
		fl.Flush()
		for {
			select {
			case <-r.Context().Done():
				return
			case ev := <-s.events:
				fmt.Fprint(w, ev)
				fl.Flush()
			}
		}
	})
	mux.HandleFunc("POST /messages", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("session_id") != "abc" {
			http.Error(w, "unknown session", http.StatusBadRequest)
			return
		}
		b, _ := io.ReadAll(r.Body)
		s.posts <- b
		if s.reject.Load() {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusAccepted)
		io.WriteString(w, "Accepted")
	})
	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)
	return s
}

func (s *sseServer) send(typ, data string) {
	s.events <- fmt.Sprintf("event: %s\ndata: %s\n\n", typ, data)
}

func (s *sseServer) nextPost(t *testing.T) gjson.Result {
	t.Helper()
	select {
	case b := <-s.posts:
		return gjson.ParseBytes(b)
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for a POST")
	}
	return gjson.Result{}
}

func newTestClient(t *testing.T, s *sseServer) *Client {
	t.Helper()
	c := New(Options{
		BaseURL: s.srv.URL,
		LeadIn:  time.Millisecond,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	t.Cleanup(c.Close)
	return c
}

func waitState(t *testing.T, c *Client, what string, ok func(State) bool) State {
	t.Helper()
	ch, cancel := c.State().Subscribe()
	defer cancel()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case st := <-ch:
			if ok(st) {
				return st
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s, last state %+v", what, c.State().Get())
		}
	}
}

func connectAndInitialize(t *testing.T, s *sseServer, c *Client) {
	t.Helper()
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if init := s.nextPost(t); init.Get("method").String() != "initialize" {
		t.Fatalf("expected initialize first, got %s", init.Raw)
	}
	s.send("message", `{"jsonrpc":"2.0","id":0,"result":{"protocolVersion":"2024-11-05"}}`)
	waitState(t, c, "initialized", func(st State) bool { return st.Initialized })
}

func TestEndpointSendsInitialize(t *testing.T) {
	s := newSSEServer(t)
	c := newTestClient(t, s)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}

	init := s.nextPost(t)
	if init.Get("jsonrpc").String() != "2.0" || init.Get("method").String() != "initialize" {
		t.Fatalf("unexpected request %s", init.Raw)
	}
	if !init.Get("id").Exists() || init.Get("id").Int() != 0 {
		t.Fatalf("initialize must use id 0: %s", init.Raw)
	}
	if v := init.Get("params.protocolVersion").String(); v != DefaultProtocolVersion {
		t.Fatalf("protocol version %q", v)
	}
	if name := init.Get("params.clientInfo.name").String(); name != "map3d-scenarios" {
		t.Fatalf("client name %q", name)
	}

	st := waitState(t, c, "endpoint", func(st State) bool { return st.PostEndpoint != "" })
	if st.PostEndpoint != s.srv.URL+"/messages?session_id=abc" {
		t.Fatalf("post endpoint %q", st.PostEndpoint)
	}
	if !st.ConnectionOpen || st.Initialized || st.Phase != PhaseInitializing {
		t.Fatalf("unexpected state %+v", st)
	}
	if st.Text != textConnected {
		t.Fatalf("text %q", st.Text)
	}
}

func TestTriggerBlocksUntilInitialized(t *testing.T) {
	s := newSSEServer(t)
	c := newTestClient(t, s)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	s.nextPost(t)

	errCh := make(chan error, 1)
	go func() { errCh <- c.TriggerSimulation(context.Background()) }()
	select {
	case err := <-errCh:
		t.Fatalf("trigger returned before initialization: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	select {
	case b := <-s.posts:
		t.Fatalf("tool call sent before initialization: %s", b)
	default:
	}

	s.send("message", `{"jsonrpc":"2.0","id":0,"result":{}}`)
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("trigger: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("trigger still blocked after initialization")
	}

	var strategies []string
	ids := map[int64]bool{}
	for range DefaultVariants {
		call := s.nextPost(t)
		if call.Get("method").String() != "tools/call" || call.Get("params.name").String() != DefaultTool {
			t.Fatalf("unexpected call %s", call.Raw)
		}
		strategies = append(strategies, call.Get("params.arguments.strategy_name").String())
		ids[call.Get("id").Int()] = true
	}
	sort.Strings(strategies)
	if fmt.Sprint(strategies) != "[1-stop 2-stop 3-stop]" {
		t.Fatalf("strategies %v", strategies)
	}
	if len(ids) != 3 || ids[0] {
		t.Fatalf("tool calls need distinct non-zero ids: %v", ids)
	}
	if st := c.State().Get(); st.Phase != PhaseStreaming {
		t.Fatalf("phase %s", st.Phase)
	}
}

func TestInitializedOnce(t *testing.T) {
	s := newSSEServer(t)
	c := newTestClient(t, s)

	var mu sync.Mutex
	confirmations := 0
	prev := c.State().Get()
	cancel := c.State().OnChange(func(st State) {
		mu.Lock()
		defer mu.Unlock()
		if st.Initialized && !prev.Initialized {
			confirmations++
		}
		prev = st
	})
	defer cancel()

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	s.nextPost(t)
	s.send("initialized", "{}")
	s.send("message", `{"jsonrpc":"2.0","id":0,"result":{}}`)
	s.send("log", "after confirmations")
	waitState(t, c, "log", func(st State) bool { return st.Text == "after confirmations" })

	mu.Lock()
	defer mu.Unlock()
	if confirmations != 1 {
		t.Fatalf("expected one confirmation, got %d", confirmations)
	}
}

func TestProjections(t *testing.T) {
	s := newSSEServer(t)
	c := newTestClient(t, s)
	connectAndInitialize(t, s, c)
	if got := c.State().Get().Text; got != textReady {
		t.Fatalf("ready text %q", got)
	}

	cases := []struct {
		typ, data, want string
	}{
		{"tool_result", `{"result":{"content":"Pit on lap 23"}}`, "Pit on lap 23"},
		{"tool_result", `{"result":{}}`, textBadResult},
		{"log", `{"level":"info","message":"sampling 1000 races"}`, "sampling 1000 races"},
		{"notifications/message", "plain progress line", "plain progress line"},
		{"log", `{"level":"debug"}`, `{"level":"debug"}`},
		{"error", "quota exceeded", "Error: quota exceeded"},
		{"message", `{"jsonrpc":"2.0","method":"notifications/message","params":{"level":"info","data":"lap 12 of 57"}}`, "lap 12 of 57"},
		{"message", `{"jsonrpc":"2.0","id":2,"result":{"content":[{"type":"text","text":"2-stop wins"}]}}`, "2-stop wins"},
	}
	for _, tc := range cases {
		s.send(tc.typ, tc.data)
		waitState(t, c, tc.typ+" projection", func(st State) bool { return st.Text == tc.want })
	}
}

func TestSimulateProjectsProgress(t *testing.T) {
	s := newSSEServer(t)
	c := newTestClient(t, s)
	connectAndInitialize(t, s, c)

	var mu sync.Mutex
	var texts []string
	cancel := c.State().OnChange(func(st State) {
		mu.Lock()
		texts = append(texts, st.Text)
		mu.Unlock()
	})
	defer cancel()

	if err := c.Simulate(context.Background()); err != nil {
		t.Fatalf("simulate: %v", err)
	}
	for range DefaultVariants {
		s.nextPost(t)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(texts) < 2 || texts[0] != textPreparing || texts[1] != textRunning {
		t.Fatalf("unexpected progress %q", texts)
	}
}

func TestCloseResetsState(t *testing.T) {
	s := newSSEServer(t)
	c := newTestClient(t, s)
	connectAndInitialize(t, s, c)

	c.Close()
	st := c.State().Get()
	if st.ConnectionOpen || st.Initialized || st.PostEndpoint != "" || st.Phase != PhaseClosed {
		t.Fatalf("state not reset: %+v", st)
	}
	if err := c.TriggerSimulation(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	select {
	case <-c.Done():
	default:
		t.Fatalf("done must be closed without a subscription")
	}

	// A fresh subscription has to confirm initialization again.
	connectAndInitialize(t, s, c)
}

func TestCloseReleasesWaitingTrigger(t *testing.T) {
	s := newSSEServer(t)
	c := newTestClient(t, s)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	s.nextPost(t)

	errCh := make(chan error, 1)
	go func() { errCh <- c.TriggerSimulation(context.Background()) }()
	time.Sleep(20 * time.Millisecond)
	c.Close()
	select {
	case err := <-errCh:
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("expected ErrClosed, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("trigger not released by close")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if err := c.TriggerSimulation(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
}

func TestConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	c := New(Options{BaseURL: srv.URL, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	defer c.Close()
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	<-c.Done()
	st := c.State().Get()
	if st.Phase != PhaseFailed || st.Text != textConnectionFailed || st.ConnectionOpen {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestFailedInitializeIsProjected(t *testing.T) {
	s := newSSEServer(t)
	s.reject.Store(true)
	c := newTestClient(t, s)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	s.nextPost(t)
	st := waitState(t, c, "post failure text", func(st State) bool {
		return strings.HasPrefix(st.Text, "Error: POST failed:")
	})
	if !strings.Contains(st.Text, "500") || st.Initialized {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestFailedToolCallIsProjected(t *testing.T) {
	s := newSSEServer(t)
	c := newTestClient(t, s)
	connectAndInitialize(t, s, c)

	s.reject.Store(true)
	err := c.TriggerSimulation(context.Background())
	if err == nil {
		t.Fatalf("expected trigger to report the failed POST")
	}
	for range DefaultVariants {
		s.nextPost(t)
	}
	if st := c.State().Get(); !strings.HasPrefix(st.Text, "Error: POST failed: post tools/call") {
		t.Fatalf("failure not projected: %+v", st)
	}
}
