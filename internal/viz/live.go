package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

const historyCapacity = 200

// LiveUpdate is one frame of a running propagation.
type LiveUpdate struct {
	T        float64
	Steps    int
	Rejected int
	Nominal  []float64
}

// LiveDone ends the stream. Final is the last state when Err is nil.
type LiveDone struct {
	Final LiveUpdate
	Err   error
}

// Live is a bubbletea model that follows a propagation through a channel
// of LiveUpdate and LiveDone messages.
type Live struct {
	title   string
	t0, t1  float64
	updates <-chan tea.Msg
	cancel  func()

	last    LiveUpdate
	history [][]float64
	done    bool
	err     error
}

func NewLive(title string, t0, t1 float64, updates <-chan tea.Msg, cancel func()) *Live {
	return &Live{title: title, t0: t0, t1: t1, updates: updates, cancel: cancel}
}

func (m *Live) Init() tea.Cmd { return m.next }

func (m *Live) next() tea.Msg {
	msg, ok := <-m.updates
	if !ok {
		return LiveDone{Final: m.last}
	}
	return msg
}

func (m *Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case LiveUpdate:
		m.apply(msg)
		return m, m.next
	case LiveDone:
		m.done, m.err = true, msg.Err
		if msg.Err == nil {
			m.apply(msg.Final)
		}
	}
	return m, nil
}

func (m *Live) apply(u LiveUpdate) {
	if len(m.history) < len(u.Nominal) {
		m.history = append(m.history, make([][]float64, len(u.Nominal)-len(m.history))...)
	}
	for i, v := range u.Nominal {
		h := append(m.history[i], v)
		if len(h) > historyCapacity {
			h = h[len(h)-historyCapacity:]
		}
		m.history[i] = h
	}
	m.last = u
}

// Done reports whether the stream has ended.
func (m *Live) Done() bool { return m.done }

func (m *Live) fraction() float64 {
	if m.t1 == m.t0 {
		return 1
	}
	return min(max((m.last.T-m.t0)/(m.t1-m.t0), 0), 1)
}

func (m *Live) View() string {
	lines := []string{
		Title.Render(m.title),
		Metric("t", fmt.Sprintf("%.4f / %g (%3.0f%%)", m.last.T, m.t1, 100*m.fraction())),
		Metric("steps", m.last.Steps),
		Metric("rejected", m.last.Rejected),
	}
	for i, v := range m.last.Nominal {
		lines = append(lines, Metric(fmt.Sprintf("x%d", i), fmt.Sprintf("%+.6e", v))+"  "+Sparkline(m.history[i], 40))
	}

	switch {
	case m.err != nil:
		lines = append(lines, StatusFail.Render("failed: "+m.err.Error()))
	case m.done:
		lines = append(lines, StatusOK.Render("done"))
	default:
		lines = append(lines, Subtle.Render("running"))
	}
	lines = append(lines, Subtle.Render("q to quit"))

	return Panel.Render(strings.Join(lines, "\n"))
}
