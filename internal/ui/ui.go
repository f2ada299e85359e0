// Package ui prints progress and answers of the ask command to a terminal.
package ui

import (
	"fmt"
	"io"

	"github.com/Cyclone1070/beachai/internal/orchestrator"
)

// Printer writes status lines to status and answers to out.
type Printer struct {
	out      io.Writer
	status   io.Writer
	renderer MarkdownRenderer
}

// NewPrinter creates a Printer. A nil renderer prints answers as plain text.
func NewPrinter(out, status io.Writer, renderer MarkdownRenderer) *Printer {
	if renderer == nil {
		renderer = PlainRenderer{}
	}
	return &Printer{out: out, status: status, renderer: renderer}
}

// Follow prints events until a DoneEvent arrives or events is closed.
func (p *Printer) Follow(events <-chan orchestrator.Event) {
	for ev := range events {
		if line := RenderStatus(ev); line != "" {
			fmt.Fprintln(p.status, line)
		}
		if _, ok := ev.(orchestrator.DoneEvent); ok {
			return
		}
	}
}

// Answer prints the answer text followed by the session footer.
func (p *Printer) Answer(a *orchestrator.Answer) error {
	rendered, err := p.renderer.Render(a.Text)
	if err != nil {
		// Fallback to plain text
		rendered = a.Text + "\n"
	}
	if _, err := io.WriteString(p.out, rendered); err != nil {
		return err
	}
	footer := fmt.Sprintf("session %s · %d tool call(s), %d cached", a.SessionID, a.ToolCalls, a.CacheHits)
	_, err = fmt.Fprintln(p.status, statusDimStyle.Render(footer))
	return err
}
