package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"map3d-scenarios/internal/logging"
	"map3d-scenarios/internal/scenario"
	"map3d-scenarios/internal/scene"
	"map3d-scenarios/internal/sim"
	"map3d-scenarios/internal/strategy"
)

const (
	shutdownTimeout = 5 * time.Second
	defaultOrbit    = 60 * time.Second
)

// Server exposes the sequencer and the strategy client over JSON.
type Server struct {
	Seq      *sim.Sequencer
	Strategy *strategy.Client
	tpl      *template.Template
	mux      *http.ServeMux
	log      *slog.Logger
	// bg bounds work that outlives a request, such as a simulation.
	bg context.Context
}

//go:embed templates/index.html
var content embed.FS

// ScenarioInfo is the catalogue entry returned by GET /scenarios.
type ScenarioInfo struct {
	Name  string        `json:"name"`
	Title string        `json:"title"`
	Kind  scenario.Kind `json:"kind"`
	Steps int           `json:"steps"`
}

// StateResponse is returned by GET /state.
type StateResponse struct {
	Run     sim.RunState  `json:"run"`
	Tracked sim.Attribute `json:"tracked"`
	Roll    float64       `json:"roll"`
	Camera  scene.Camera  `json:"camera"`
}

// NewServer builds the handler tree. client may be nil, in which case the
// strategy endpoints answer 503.
func NewServer(seq *sim.Sequencer, client *strategy.Client) *Server {
	tpl := template.Must(template.New("index.html").ParseFS(content, "templates/index.html"))
	s := &Server{Seq: seq, Strategy: client, tpl: tpl, mux: http.NewServeMux(), log: slog.Default(), bg: context.Background()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /state", s.handleState)
	s.mux.HandleFunc("GET /scenarios", s.handleScenarios)
	s.mux.HandleFunc("POST /scenario", s.handleSelect)
	s.mux.HandleFunc("POST /repeat", s.handleRepeat)
	s.mux.HandleFunc("POST /next", s.handleNext)
	s.mux.HandleFunc("POST /exit", s.handleExit)
	s.mux.HandleFunc("POST /close", s.handleClose)
	s.mux.HandleFunc("POST /snapshot", s.handleSnapshot)
	s.mux.HandleFunc("GET /camera", s.handleCamera)
	s.mux.HandleFunc("POST /orbit", s.handleOrbit)
	s.mux.HandleFunc("GET /strategy", s.handleStrategy)
	s.mux.HandleFunc("POST /strategy/simulate", s.handleSimulate)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.log = logging.FromContext(ctx).With("component", "admin")
	s.bg = ctx
	srv := &http.Server{Addr: addr, Handler: s, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("admin server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) scenarios() []ScenarioInfo {
	list := s.Seq.Registry().List()
	out := make([]ScenarioInfo, 0, len(list))
	for _, sc := range list {
		out = append(out, ScenarioInfo{Name: sc.Name, Title: sc.Title, Kind: sc.Kind, Steps: len(sc.Steps)})
	}
	return out
}

func (s *Server) state() StateResponse {
	return StateResponse{
		Run:     s.Seq.State().Get(),
		Tracked: s.Seq.Tracked().Get(),
		Roll:    s.Seq.Roll().Get(),
		Camera:  s.Seq.Camera().Get(),
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		State     sim.RunState
		Camera    string
		Scenarios []ScenarioInfo
		Strategy  *strategy.State
	}{
		State:     s.Seq.State().Get(),
		Camera:    s.Seq.Camera().Get().String(),
		Scenarios: s.scenarios(),
	}
	if s.Strategy != nil {
		st := s.Strategy.State().Get()
		data.Strategy = &st
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.Execute(w, data); err != nil {
		s.log.Error("render index", "error", err)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.scenarios())
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing name"))
		return
	}
	if err := s.Seq.Select(name); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleRepeat(w http.ResponseWriter, r *http.Request) {
	s.control(w, s.Seq.Repeat)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.control(w, s.Seq.Next)
}

func (s *Server) control(w http.ResponseWriter, fn func() error) {
	if err := fn(); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, sim.ErrNoScenario) {
			status = http.StatusConflict
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleExit(w http.ResponseWriter, r *http.Request) {
	s.Seq.Exit()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	s.Seq.CloseOverlay()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"camera": s.Seq.Snapshot()})
}

func (s *Server) handleCamera(w http.ResponseWriter, r *http.Request) {
	cam := s.Seq.Camera().Get()
	writeJSON(w, http.StatusOK, map[string]any{"camera": cam, "descriptor": cam.String()})
}

// handleOrbit flies to camera (a descriptor, Barber Motorsports Park by
// default) and orbits it in the background.
func (s *Server) handleOrbit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	desc := q.Get("camera")
	if desc == "" {
		desc = scenario.BarberCamera
	}
	d := defaultOrbit
	if v := q.Get("duration_ms"); v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil || ms <= 0 {
			writeError(w, http.StatusBadRequest, errors.New("duration_ms must be a positive integer"))
			return
		}
		d = time.Duration(ms) * time.Millisecond
	}
	rounds := 1.0
	if v := q.Get("rounds"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("rounds must be a number"))
			return
		}
		rounds = f
	}
	cam := scene.ToCamera(desc)
	go func() {
		if err := s.Seq.Orbit(s.bg, cam, d, rounds); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Warn("orbit ended", "error", err)
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]any{"camera": cam.String(), "duration_ms": d.Milliseconds(), "rounds": rounds})
}

func (s *Server) handleStrategy(w http.ResponseWriter, r *http.Request) {
	if s.Strategy == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("strategy client not configured"))
		return
	}
	writeJSON(w, http.StatusOK, s.Strategy.State().Get())
}

// handleSimulate connects if needed and runs the simulation in the
// background; progress is visible through GET /strategy.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	if s.Strategy == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("strategy client not configured"))
		return
	}
	if err := s.Strategy.Connect(s.bg); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	go func() {
		if err := s.Strategy.Simulate(s.bg); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Error("strategy simulation failed", "error", err)
		}
	}()
	writeJSON(w, http.StatusAccepted, s.Strategy.State().Get())
}
