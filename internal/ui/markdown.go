package ui

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// GlamourRenderer renders markdown with glamour's terminal styles.
type GlamourRenderer struct {
	tr *glamour.TermRenderer
}

// NewGlamourRenderer wraps answers at width columns.
func NewGlamourRenderer(width int) (*GlamourRenderer, error) {
	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("create markdown renderer: %w", err)
	}
	return &GlamourRenderer{tr: tr}, nil
}

func (g *GlamourRenderer) Render(markdown string) (string, error) {
	return g.tr.Render(markdown)
}

// PlainRenderer prints answers untouched.
type PlainRenderer struct{}

func (PlainRenderer) Render(markdown string) (string, error) {
	return markdown + "\n", nil
}
