package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/npillmayer/scurve"
	"github.com/npillmayer/scurve/planner"
	"github.com/npillmayer/scurve/preset"
	"github.com/npillmayer/scurve/profile"
	"github.com/npillmayer/scurve/render"
)

var (
	docStyle     = lipgloss.NewStyle().Margin(1, 2)
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	focusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	barFullStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
)

const (
	sliderWidth     = 30
	minSparkWidth   = 20
	defaultSparkLen = 60
)

// === Sliders ===============================================================

type slider struct {
	title string
	value float64
	min   float64
	max   float64
	step  float64
}

func (s *slider) nudge(steps float64) {
	v := math.Round((s.value+steps*s.step)/s.step) * s.step
	s.value = math.Min(s.max, math.Max(s.min, v))
}

func (s slider) View(focused bool) string {
	frac := (s.value - s.min) / (s.max - s.min)
	n := int(math.Round(frac * sliderWidth))
	n = max(0, min(sliderWidth, n))
	bar := barFullStyle.Render(strings.Repeat("█", n)) + dimStyle.Render(strings.Repeat("░", sliderWidth-n))
	label := fmt.Sprintf("%-10s", s.title)
	cursor := "  "
	if focused {
		label = focusStyle.Render(label)
		cursor = focusStyle.Render("› ")
	}
	return fmt.Sprintf("%s%s %s %6.2f", cursor, label, bar, s.value)
}

func newSliders(l scurve.Limits) []slider {
	sl := []slider{
		{title: "jerk_max", value: l.JerkMax, min: 0.1, max: 10, step: 0.1},
		{title: "accel_max", value: l.AccelMax, min: 0.1, max: 10, step: 0.1},
		{title: "vel_max", value: l.VelMax, min: 0.1, max: 10, step: 0.1},
		{title: "distance", value: l.Distance, min: 0.1, max: 10, step: 0.1},
	}
	for i := range sl {
		sl[i].value = math.Min(sl[i].max, math.Max(sl[i].min, sl[i].value))
	}
	return sl
}

// === Key bindings ==========================================================

type keyMap struct {
	Up, Down, Left, Right, FastLeft, FastRight, Save, Quit key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Left, k.Right, k.Save, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Left, k.Right, k.FastLeft, k.FastRight}, {k.Save, k.Quit}}
}

var keys = keyMap{
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "previous limit")),
	Down:      key.NewBinding(key.WithKeys("down", "j", "tab"), key.WithHelp("↓/j", "next limit")),
	Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "decrease")),
	Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "increase")),
	FastLeft:  key.NewBinding(key.WithKeys("H", "pgdown"), key.WithHelp("H", "decrease ×10")),
	FastRight: key.NewBinding(key.WithKeys("L", "pgup"), key.WithHelp("L", "increase ×10")),
	Save:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save preset")),
	Quit:      key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

// === Model =================================================================

type uiModel struct {
	sliders    []slider
	focus      int
	prof       *profile.Profile // last valid profile
	series     profile.Series
	shape      planner.Shape
	err        error // error of the last recomputation, if any
	status     string
	presetPath string
	sparkWidth int
	help       help.Model
}

func initialModel(l scurve.Limits, presetPath string) uiModel {
	m := uiModel{
		sliders:    newSliders(l),
		presetPath: presetPath,
		sparkWidth: defaultSparkLen,
		help:       help.New(),
	}
	m.recompute()
	return m
}

func (m uiModel) limits() scurve.Limits {
	return scurve.L(m.sliders[0].value, m.sliders[1].value, m.sliders[2].value, m.sliders[3].value)
}

// recompute plans and samples the move for the current slider values. On
// failure the previous profile stays on display.
func (m *uiModel) recompute() {
	l := m.limits()
	p, tm, err := planner.PlanShape(l)
	if err != nil {
		m.err = err
		return
	}
	s, err := profile.Sample(p, 4*m.sparkWidth)
	if err != nil {
		m.err = err
		return
	}
	m.prof, m.series, m.shape, m.err = p, s, tm.Shape, nil
}

func (m uiModel) Init() tea.Cmd {
	return nil
}

func (m uiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, _ := docStyle.GetFrameSize()
		m.sparkWidth = max(minSparkWidth, msg.Width-h-16)
		m.help.Width = msg.Width - h
		m.recompute()
	case tea.KeyMsg:
		m.status = ""
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			m.focus = (m.focus + len(m.sliders) - 1) % len(m.sliders)
		case key.Matches(msg, keys.Down):
			m.focus = (m.focus + 1) % len(m.sliders)
		case key.Matches(msg, keys.Left):
			m.sliders[m.focus].nudge(-1)
			m.recompute()
		case key.Matches(msg, keys.Right):
			m.sliders[m.focus].nudge(1)
			m.recompute()
		case key.Matches(msg, keys.FastLeft):
			m.sliders[m.focus].nudge(-10)
			m.recompute()
		case key.Matches(msg, keys.FastRight):
			m.sliders[m.focus].nudge(10)
			m.recompute()
		case key.Matches(msg, keys.Save):
			if err := preset.Save(m.presetPath, m.limits()); err != nil {
				m.status = errorStyle.Render(fmt.Sprintf("could not save: %v", err))
			} else {
				m.status = fmt.Sprintf("saved to %s", m.presetPath)
			}
		}
	}
	return m, nil
}

func (m uiModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("S-curve motion profile") + "\n\n")
	for i, s := range m.sliders {
		b.WriteString(s.View(i == m.focus) + "\n")
	}
	b.WriteString("\n")
	if m.prof != nil {
		peakA, peakV := m.prof.Peak()
		fmt.Fprintf(&b, "%s move, %d phases, duration %.4g, peak a=%.4g v=%.4g\n\n",
			m.shape, m.prof.Len(), m.prof.Duration(), peakA, peakV)
		for _, c := range render.Curves(m.series) {
			fmt.Fprintf(&b, "%-13s %s\n", c.Name, render.Sparkline(c.Values, m.sparkWidth))
		}
	}
	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	}
	if m.status != "" {
		b.WriteString("\n" + m.status + "\n")
	}
	b.WriteString("\n" + m.help.View(keys))
	return docStyle.Render(b.String())
}

func interactive(l scurve.Limits, presetPath string) error {
	p := tea.NewProgram(initialModel(l, presetPath), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
