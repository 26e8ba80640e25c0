package surface

import (
	"errors"
	"sync"
	"testing"
	"time"

	"map3d-scenarios/internal/scene"
)

type recordingWriter struct {
	mu   sync.Mutex
	rows []CommandRow
}

func (w *recordingWriter) Write(r CommandRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rows = append(w.rows, r)
	return nil
}

func (w *recordingWriter) commands() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.rows))
	for i, r := range w.rows {
		out[i] = r.Command
	}
	return out
}

func waitErr(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for completion")
		return nil
	}
}

func TestHeadlessFlyToCompletes(t *testing.T) {
	w := &recordingWriter{}
	h := NewHeadless(HeadlessOptions{Speed: 10, Writer: w})
	target := scene.ToCamera("lat=1,lng=2,range=800")

	if err := waitErr(t, h.FlyTo(target, 200*time.Millisecond)); err != nil {
		t.Fatalf("fly to failed: %v", err)
	}
	if h.Camera() != target {
		t.Fatalf("camera = %v, want %v", h.Camera(), target)
	}
	if !h.Steady() {
		t.Fatalf("camera should be steady after the flight with no settle period")
	}
	rows := w.rows
	if len(rows) != 1 || rows[0].Command != CmdFlyTo || rows[0].DurationMs != 200 || rows[0].Range != 800 {
		t.Fatalf("unexpected rows %+v", rows)
	}
	if rows[0].SessionID != h.SessionID() {
		t.Fatalf("row session = %q", rows[0].SessionID)
	}
}

func TestHeadlessNewCommandInterruptsFlight(t *testing.T) {
	h := NewHeadless(HeadlessOptions{})
	first := h.FlyTo(scene.ToCamera("lat=1,lng=2"), time.Hour)
	h.SetCamera(scene.ToCamera("lat=5,lng=6"))
	if err := waitErr(t, first); !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}
	if h.Camera().Center.Latitude != 5 {
		t.Fatalf("camera should follow the newest command, got %v", h.Camera())
	}
}

func TestHeadlessSteadyTransitions(t *testing.T) {
	h := NewHeadless(HeadlessOptions{Settle: 20 * time.Millisecond})
	var mu sync.Mutex
	var seen []bool
	settled := make(chan struct{}, 1)
	cancel := h.OnSteadyChange(func(s bool) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
		if s {
			settled <- struct{}{}
		}
	})
	defer cancel()

	h.SetCamera(scene.ToCamera("lat=1,lng=1"))
	if h.Steady() {
		t.Fatalf("camera should be moving right after a command")
	}
	select {
	case <-settled:
	case <-time.After(2 * time.Second):
		t.Fatalf("camera never settled")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] || !seen[1] {
		t.Fatalf("unexpected transitions %v", seen)
	}
}

func TestHeadlessFlyAroundEndsAtOrbitHeading(t *testing.T) {
	h := NewHeadless(HeadlessOptions{Speed: 100})
	center := scene.ToCamera("lat=1,lng=2,hdg=10")
	if err := waitErr(t, h.FlyAround(center, 100*time.Millisecond, 0.5)); err != nil {
		t.Fatalf("fly around failed: %v", err)
	}
	if got := h.Camera().Heading; got != -170 {
		t.Fatalf("heading = %v, want -170", got)
	}
}

func TestHeadlessObjectsAndOrder(t *testing.T) {
	w := &recordingWriter{}
	h := NewHeadless(HeadlessOptions{Writer: w})
	h.SetMapMode(scene.Hybrid)
	h.AddMarker(scene.Marker{ID: "m"})
	h.AddPolygon(scene.Polygon{Outer: []scene.LatLngAltitude{{Latitude: 1}}})
	h.ClearObjects()
	h.AddModel(scene.Model{ID: "x"})
	h.AddPolyline(scene.Polyline{ID: "p"})

	got := h.Objects()
	if got.Mode != scene.Hybrid || got.Markers != 0 || got.Polygons != 0 || got.Models != 1 || got.Polylines != 1 {
		t.Fatalf("unexpected objects %+v", got)
	}
	want := []string{CmdSetMapMode, CmdAddMarker, CmdAddPolygon, CmdClear, CmdAddModel, CmdAddPolyline}
	cmds := w.commands()
	if len(cmds) != len(want) {
		t.Fatalf("commands = %v", cmds)
	}
	for i := range want {
		if cmds[i] != want[i] {
			t.Fatalf("command %d = %s, want %s", i, cmds[i], want[i])
		}
	}
}
