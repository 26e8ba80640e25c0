package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"map3d-scenarios/internal/observe"
	"map3d-scenarios/internal/scene"
	"map3d-scenarios/internal/sim"
	"map3d-scenarios/internal/strategy"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// Controls are the sequencer actions bound to keys.
type Controls interface {
	Select(name string) error
	Repeat() error
	Next() error
	Exit()
	CloseOverlay()
	Snapshot() string
}

// Simulator starts a strategy simulation.
type Simulator interface {
	Simulate(ctx context.Context) error
}

type runStateMsg struct{ sim.RunState }
type trackedMsg struct{ attr sim.Attribute }
type rollMsg struct{ value float64 }
type cameraMsg struct{ cam scene.Camera }
type strategyMsg struct{ strategy.State }

// actionMsg reports the outcome of a key-bound action.
type actionMsg struct {
	action string
	detail string
	err    error
}

// TUI renders sequencer and strategy state in a bubbletea program.
type TUI struct {
	program teaProgram
	done    chan struct{}
	err     error
	cancels []func()
}

// Start runs the program on the terminal until q is pressed, ctx ends, or
// Close is called. client may be nil.
func Start(ctx context.Context, seq *sim.Sequencer, client *strategy.Client) *TUI {
	var simulator Simulator
	if client != nil {
		simulator = client
	}
	m := newModel(ctx, seq, names(seq), simulator)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	u := &TUI{program: p, done: make(chan struct{})}
	u.watch(seq, client)
	go func() {
		_, u.err = p.Run()
		u.stopWatching()
		close(u.done)
	}()
	return u
}

func names(seq *sim.Sequencer) []string {
	list := seq.Registry().List()
	out := make([]string, 0, len(list))
	for _, sc := range list {
		out = append(out, sc.Name)
	}
	return out
}

// watch forwards observable state into the program. Subscriptions conflate,
// so a slow terminal never holds up the sequencer.
func (u *TUI) watch(seq *sim.Sequencer, client *strategy.Client) {
	u.cancels = append(u.cancels,
		forward(u.program, seq.State(), func(v sim.RunState) tea.Msg { return runStateMsg{v} }),
		forward(u.program, seq.Tracked(), func(v sim.Attribute) tea.Msg { return trackedMsg{v} }),
		forward(u.program, seq.Roll(), func(v float64) tea.Msg { return rollMsg{v} }),
		forward(u.program, seq.Camera(), func(v scene.Camera) tea.Msg { return cameraMsg{v} }),
	)
	if client != nil {
		u.cancels = append(u.cancels,
			forward(u.program, client.State(), func(v strategy.State) tea.Msg { return strategyMsg{v} }))
	}
}

func forward[T comparable](p teaProgram, v *observe.Value[T], wrap func(T) tea.Msg) func() {
	ch, cancel := v.Subscribe()
	go func() {
		for val := range ch {
			p.Send(wrap(val))
		}
	}()
	return cancel
}

func (u *TUI) stopWatching() {
	for _, cancel := range u.cancels {
		cancel()
	}
	u.cancels = nil
}

// Done is closed once the program has exited.
func (u *TUI) Done() <-chan struct{} { return u.done }

// Close quits the program and waits for the terminal to be restored.
func (u *TUI) Close() error {
	u.program.Send(tea.Quit())
	<-u.done
	return u.err
}
