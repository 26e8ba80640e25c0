package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"map3d-scenarios/internal/scene"
	"map3d-scenarios/internal/sim"
	"map3d-scenarios/internal/strategy"
)

const maxLogLines = 200

var (
	styleOn      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleOff     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleTracked = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("11"))
	styleBanner  = lipgloss.NewStyle().Bold(true).Padding(0, 1).Border(lipgloss.RoundedBorder())
)

type model struct {
	ctx      context.Context
	ctrl     Controls
	sim      Simulator
	table    table.Model
	vp       viewport.Model
	logs     []string
	state    sim.RunState
	tracked  sim.Attribute
	roll     float64
	camera   scene.Camera
	strategy strategy.State
	width    int
	height   int
	wrap     bool
	help     bool
}

func newModel(ctx context.Context, ctrl Controls, scenarios []string, simulator Simulator) model {
	cols := []table.Column{
		{Title: "#", Width: 3},
		{Title: "Scenario", Width: 18},
	}
	rows := make([]table.Row, 0, len(scenarios))
	for i, name := range scenarios {
		rows = append(rows, table.Row{fmt.Sprint(i + 1), name})
	}
	t := table.New(table.WithColumns(cols), table.WithRows(rows), table.WithFocused(true), table.WithHeight(len(rows)+1))
	return model{
		ctx:   ctx,
		ctrl:  ctrl,
		sim:   simulator,
		table: t,
		vp:    viewport.New(0, 0),
		state: sim.RunState{Phase: sim.PhaseIdle},
		wrap:  true,
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.vp.Width = msg.Width
		m.updateViewportHeight()
		m.refreshViewport()
	case tea.KeyMsg:
		if m.help {
			switch msg.String() {
			case "?", "h", "esc":
				m.help = false
			case "q", "ctrl+c":
				return m, tea.Quit
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "enter":
			row := m.table.SelectedRow()
			if len(row) < 2 {
				return m, nil
			}
			name := row[1]
			return m, m.action("select", func() (string, error) { return name, m.ctrl.Select(name) })
		case "r":
			return m, m.action("repeat", func() (string, error) { return "", m.ctrl.Repeat() })
		case "n":
			return m, m.action("next", func() (string, error) { return "", m.ctrl.Next() })
		case "x":
			return m, m.action("exit", func() (string, error) { m.ctrl.Exit(); return "", nil })
		case "c":
			return m, m.action("close", func() (string, error) { m.ctrl.CloseOverlay(); return "", nil })
		case "s":
			return m, m.action("snapshot", func() (string, error) { return m.ctrl.Snapshot(), nil })
		case "p":
			if m.sim == nil {
				m.appendLog(styleOff.Render("strategy client not configured"))
				return m, nil
			}
			return m, m.action("simulate", func() (string, error) { return "", m.sim.Simulate(m.ctx) })
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
			return m, nil
		case "h", "?":
			m.help = true
			return m, nil
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	case runStateMsg:
		if msg.Err != "" && msg.Err != m.state.Err {
			m.appendLog(styleOff.Render(fmt.Sprintf("%s failed: %s", msg.Scenario, msg.Err)))
		}
		if msg.Finished && !m.state.Finished {
			m.appendLog(fmt.Sprintf("%s finished", msg.Scenario))
		}
		m.state = msg.RunState
		m.updateViewportHeight()
	case trackedMsg:
		m.tracked = msg.attr
	case rollMsg:
		m.roll = msg.value
	case cameraMsg:
		m.camera = msg.cam
	case strategyMsg:
		if msg.Text != "" && msg.Text != m.strategy.Text {
			m.appendLog("strategy: " + msg.Text)
		}
		m.strategy = msg.State
	case actionMsg:
		switch {
		case msg.err != nil:
			m.appendLog(styleOff.Render(fmt.Sprintf("%s: %v", msg.action, msg.err)))
		case msg.detail != "":
			m.appendLog(fmt.Sprintf("%s: %s", msg.action, msg.detail))
		}
	}
	return m, nil
}

// action runs fn off the update loop; sequencer controls wait for the
// previous run to stop and must not block rendering.
func (m model) action(name string, fn func() (string, error)) tea.Cmd {
	return func() tea.Msg {
		detail, err := fn()
		return actionMsg{action: name, detail: detail, err: err}
	}
}

func (m *model) appendLog(line string) {
	m.logs = append(m.logs, line)
	if len(m.logs) > maxLogLines {
		m.logs = m.logs[len(m.logs)-maxLogLines:]
	}
	m.refreshViewport()
}

func (m *model) refreshViewport() {
	lines := make([]string, 0, len(m.logs))
	for _, l := range m.logs {
		if m.wrap && m.vp.Width > 0 {
			l = wordwrap.String(l, m.vp.Width)
		}
		lines = append(lines, l)
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	m.vp.GotoBottom()
}

func (m *model) updateViewportHeight() {
	h := m.height - lipgloss.Height(m.renderHeader()) - lipgloss.Height(m.renderBottom()) - 2
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
}

func (m model) View() string {
	if m.help {
		return m.renderHelp()
	}
	divider := strings.Repeat("─", m.vp.Width)
	return strings.Join([]string{
		m.renderHeader(),
		divider,
		m.vp.View(),
		divider,
		m.renderBottom(),
	}, "\n")
}

func (m model) renderHeader() string {
	sep := styleDim.Render("│")
	return lipgloss.JoinHorizontal(lipgloss.Top, m.table.View(), sep, m.renderRun())
}

func (m model) renderRun() string {
	st := m.state
	name := st.Scenario
	if name == "" {
		name = "none"
	}
	lines := []string{
		fmt.Sprintf("scenario %s  phase %s", name, st.Phase),
	}
	if st.Steps > 0 {
		lines = append(lines, fmt.Sprintf("step %d/%d", st.Step, st.Steps))
	}
	lines = append(lines, m.renderCamera())
	if st.CountdownVisible {
		lines = append(lines, styleBanner.Render(fmt.Sprintf("Starting in %d", st.Countdown)))
	}
	if st.Finished {
		lines = append(lines, styleBanner.Render("Finished  [r] repeat  [x] exit  [n] next  [s] snapshot  [c] close"))
	}
	if st.Err != "" {
		lines = append(lines, styleOff.Render("error: "+st.Err))
	}
	return strings.Join(lines, "\n")
}

func (m model) renderCamera() string {
	c := m.camera
	attrs := []struct {
		attr sim.Attribute
		text string
	}{
		{sim.AttrHeading, fmt.Sprintf("hdg %.1f", c.Heading)},
		{sim.AttrTilt, fmt.Sprintf("tilt %.1f", c.Tilt)},
		{sim.AttrRange, fmt.Sprintf("range %.0f", c.Range)},
		{sim.AttrRoll, fmt.Sprintf("roll %.1f", m.roll)},
	}
	parts := []string{fmt.Sprintf("%.5f,%.5f", c.Center.Latitude, c.Center.Longitude)}
	for _, a := range attrs {
		if a.attr == m.tracked {
			parts = append(parts, styleTracked.Render(a.text))
			continue
		}
		parts = append(parts, a.text)
	}
	return strings.Join(parts, "  ")
}

func (m model) renderBottom() string {
	connColor := styleOff
	if m.strategy.ConnectionOpen {
		connColor = styleOn
	}
	initColor := styleOff
	if m.strategy.Initialized {
		initColor = styleOn
	}
	phase := m.strategy.Phase
	if phase == "" {
		phase = strategy.PhaseDisconnected
	}
	return fmt.Sprintf("Strategy %s | Stream %s | Session %s | enter select  r repeat  n next  x exit  s snapshot  c close  p simulate  h help  q quit",
		phase, connColor.Render("●"), initColor.Render("●"))
}

func (m model) renderHelp() string {
	lines := []string{
		"Key Bindings:",
		" ↑/↓    move in the scenario list",
		" enter  play the highlighted scenario",
		" r      repeat the active scenario",
		" n      next scenario",
		" x      exit the active scenario",
		" s      log a camera snapshot",
		" c      close the finished overlay",
		" p      run the race strategy simulation",
		" w      toggle wrap for the log",
		" h/?    toggle this help view",
		" q      quit",
	}
	return strings.Join(lines, "\n")
}
