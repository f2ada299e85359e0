package ui

import (
	"fmt"

	"github.com/Cyclone1070/beachai/internal/orchestrator"
	"github.com/charmbracelet/lipgloss"
)

var (
	statusThinkingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	statusExecutingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	statusDoneStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	statusErrorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	statusDimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// RenderStatus renders one progress event as a status line. It returns ""
// for events that have nothing to show.
func RenderStatus(ev orchestrator.Event) string {
	switch e := ev.(type) {
	case orchestrator.ThinkingEvent:
		if e.RoundTrip == 1 {
			return statusThinkingStyle.Render("… Thinking")
		}
		return statusThinkingStyle.Render(fmt.Sprintf("… Thinking (round %d)", e.RoundTrip))

	case orchestrator.ToolStartEvent:
		return statusExecutingStyle.Render("→ " + DescribeToolCall(e.ToolName, e.Args))

	case orchestrator.ToolEndEvent:
		switch {
		case e.Success && e.Cached:
			return statusDoneStyle.Render("✔ "+e.ToolName) + statusDimStyle.Render(" (cached)")
		case e.Success:
			return statusDoneStyle.Render("✔ " + e.ToolName)
		default:
			return statusErrorStyle.Render(fmt.Sprintf("✘ %s: %s", e.ToolName, e.ErrorKind))
		}

	case orchestrator.DoneEvent:
		if e.Err != nil {
			return statusErrorStyle.Render(fmt.Sprintf("✘ %s: %v", e.State, e.Err))
		}
		return ""
	}
	return ""
}
