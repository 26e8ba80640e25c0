package surface

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"map3d-scenarios/internal/scene"
)

// DefaultSettle is how long a headless camera rests before it reports steady.
const DefaultSettle = 300 * time.Millisecond

// Objects counts what is currently placed on a surface.
type Objects struct {
	Mode      scene.MapMode `json:"mode"`
	Markers   int           `json:"markers"`
	Models    int           `json:"models"`
	Polylines int           `json:"polylines"`
	Polygons  int           `json:"polygons"`
}

// HeadlessOptions configures a Headless surface.
type HeadlessOptions struct {
	// Speed divides every animation duration. Values <= 0 mean 1.
	Speed float64
	// Settle is the rest period before the camera reports steady. Zero reports
	// steady as soon as motion stops.
	Settle time.Duration
	Writer CommandWriter
	Logger *slog.Logger
}

// Headless is an in-process Surface. Flights complete after their scaled
// duration and a newer camera command interrupts the one in flight.
type Headless struct {
	mu        sync.Mutex
	sessionID string
	speed     float64
	settle    time.Duration
	writer    CommandWriter
	log       *slog.Logger
	now       func() time.Time

	camera  scene.Camera
	objects Objects
	steady  bool
	flight  *flight
	settleT *time.Timer
	gen     uint64

	nextID   int
	watchers map[int]func(bool)
}

type flight struct {
	done  chan error
	timer *time.Timer
}

// NewHeadless returns a steady surface at the default wide view.
func NewHeadless(opts HeadlessOptions) *Headless {
	speed := opts.Speed
	if speed <= 0 {
		speed = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Headless{
		sessionID: uuid.New().String(),
		speed:     speed,
		settle:    opts.Settle,
		writer:    opts.Writer,
		log:       logger,
		now:       time.Now,
		camera:    scene.DefaultMapOptions().Camera,
		steady:    true,
		watchers:  make(map[int]func(bool)),
	}
}

// SessionID identifies this surface in command rows.
func (h *Headless) SessionID() string { return h.sessionID }

// Objects returns the current object counts.
func (h *Headless) Objects() Objects {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.objects
}

func (h *Headless) Camera() scene.Camera {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.camera
}

func (h *Headless) SetCamera(c scene.Camera) {
	h.mu.Lock()
	h.interruptLocked()
	h.camera = c
	h.record(CommandRow{Command: CmdSetCamera}, &c)
	notify := h.moveLocked()
	h.mu.Unlock()
	notify()
}

func (h *Headless) SetMapMode(m scene.MapMode) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.objects.Mode = m
	h.record(CommandRow{Command: CmdSetMapMode, Detail: m.String()}, nil)
}

func (h *Headless) ClearObjects() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.objects = Objects{Mode: h.objects.Mode}
	h.record(CommandRow{Command: CmdClear}, nil)
}

func (h *Headless) AddMarker(m scene.Marker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.objects.Markers++
	row := CommandRow{Command: CmdAddMarker, ObjectID: m.ID, Detail: m.Label}
	row.setPosition(m.Position)
	h.record(row, nil)
}

func (h *Headless) AddModel(m scene.Model) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.objects.Models++
	row := CommandRow{Command: CmdAddModel, ObjectID: m.ID, Detail: m.URL}
	row.setPosition(m.Position)
	h.record(row, nil)
}

func (h *Headless) AddPolyline(p scene.Polyline) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.objects.Polylines++
	row := CommandRow{Command: CmdAddPolyline, ObjectID: p.ID, Detail: p.StrokeColor.String()}
	if len(p.Path) > 0 {
		row.setPosition(p.Path[0])
	}
	h.record(row, nil)
}

func (h *Headless) AddPolygon(p scene.Polygon) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.objects.Polygons++
	row := CommandRow{Command: CmdAddPolygon, Detail: p.FillColor.String()}
	if len(p.Outer) > 0 {
		row.setPosition(p.Outer[0])
	}
	h.record(row, nil)
}

func (h *Headless) FlyTo(end scene.Camera, d time.Duration) <-chan error {
	return h.fly(CommandRow{Command: CmdFlyTo, DurationMs: d.Milliseconds()}, end, end, d)
}

// FlyAround orbits center and comes to rest facing the heading reached after
// the given number of rounds.
func (h *Headless) FlyAround(center scene.Camera, d time.Duration, rounds float64) <-chan error {
	end := center.WithHeading(scene.WrapHeading(center.Heading + 360*rounds))
	return h.fly(CommandRow{Command: CmdFlyAround, DurationMs: d.Milliseconds(), Rounds: rounds}, center, end, d)
}

func (h *Headless) Steady() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.steady
}

func (h *Headless) OnSteadyChange(fn func(bool)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.watchers[id] = fn
	return func() {
		h.mu.Lock()
		delete(h.watchers, id)
		h.mu.Unlock()
	}
}

func (h *Headless) fly(row CommandRow, target, end scene.Camera, d time.Duration) <-chan error {
	done := make(chan error, 1)
	h.mu.Lock()
	h.interruptLocked()
	h.record(row, &target)
	f := &flight{done: done}
	h.flight = f
	notify := h.moveLocked()
	f.timer = time.AfterFunc(h.scale(d), func() {
		h.mu.Lock()
		if h.flight != f {
			h.mu.Unlock()
			return
		}
		h.flight = nil
		h.camera = end
		notify := h.restLocked()
		h.mu.Unlock()
		done <- nil
		notify()
	})
	h.mu.Unlock()
	notify()
	return done
}

func (h *Headless) interruptLocked() {
	if h.flight == nil {
		return
	}
	if h.flight.timer != nil {
		h.flight.timer.Stop()
	}
	h.flight.done <- ErrInterrupted
	h.flight = nil
}

// moveLocked marks the camera as moving and, if nothing is in flight, schedules
// the return to steady. The returned func delivers notifications and must be
// called without h.mu held.
func (h *Headless) moveLocked() func() {
	h.gen++
	if h.settleT != nil {
		h.settleT.Stop()
		h.settleT = nil
	}
	var fns []func(bool)
	if h.steady {
		h.steady = false
		fns = h.watcherList()
	}
	rest := func() {}
	if h.flight == nil {
		rest = h.restLocked()
	}
	return func() {
		for _, fn := range fns {
			fn(false)
		}
		rest()
	}
}

// restLocked schedules the steady report after the settle period.
func (h *Headless) restLocked() func() {
	gen := h.gen
	if h.settle <= 0 {
		h.steady = true
		fns := h.watcherList()
		return func() {
			for _, fn := range fns {
				fn(true)
			}
		}
	}
	h.settleT = time.AfterFunc(h.scale(h.settle), func() {
		h.mu.Lock()
		if h.gen != gen || h.flight != nil || h.steady {
			h.mu.Unlock()
			return
		}
		h.steady = true
		h.settleT = nil
		fns := h.watcherList()
		h.mu.Unlock()
		for _, fn := range fns {
			fn(true)
		}
	})
	return func() {}
}

func (h *Headless) watcherList() []func(bool) {
	fns := make([]func(bool), 0, len(h.watchers))
	for _, fn := range h.watchers {
		fns = append(fns, fn)
	}
	return fns
}

func (h *Headless) scale(d time.Duration) time.Duration {
	return time.Duration(float64(d) / h.speed)
}

func (h *Headless) record(row CommandRow, cam *scene.Camera) {
	if h.writer == nil {
		return
	}
	row.SessionID = h.sessionID
	row.Timestamp = h.now().UTC()
	if cam != nil {
		row.setCamera(*cam)
	}
	if err := h.writer.Write(row); err != nil {
		h.log.Warn("command write failed", "command", row.Command, "err", err)
	}
}
