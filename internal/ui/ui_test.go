package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Cyclone1070/beachai/internal/orchestrator"
	"github.com/Cyclone1070/beachai/internal/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockMarkdownRenderer struct {
	RenderFunc func(string) (string, error)
}

func (m *MockMarkdownRenderer) Render(in string) (string, error) {
	if m.RenderFunc != nil {
		return m.RenderFunc(in)
	}
	return "rendered: " + in, nil
}

func TestDescribeToolCall(t *testing.T) {
	tests := []struct {
		name string
		tool string
		args map[string]any
		want string
	}{
		{"Tides By Station", tool.NameTidePredictions, map[string]any{"station_id": "9410840"}, "Tides station 9410840"},
		{"Water Temp By Location", tool.NameWaterTemperature, map[string]any{"latitude": 34.0086, "longitude": -118.4986}, "Water temperature near 34.009,-118.499"},
		{"Weather Default Kind", tool.NameWeather, map[string]any{"latitude": 34.0, "longitude": -118.5}, "Weather forecast at 34.000,-118.500"},
		{"Weather Current", tool.NameWeather, map[string]any{"latitude": 34.0, "longitude": -118.5, "kind": "current"}, "Weather current at 34.000,-118.500"},
		{"Places Query", tool.NamePlaces, map[string]any{"query": "tacos"}, "Places 'tacos'"},
		{"Places Type", tool.NamePlaces, map[string]any{"type": "parking_lot", "latitude": 34.0, "longitude": -118.5}, "Places parking lot near 34.000,-118.500"},
		{"Place Details", tool.NamePlaceDetails, map[string]any{"place_id": "abc"}, "Place details abc"},
		{"Unknown Tool", "get_surf", nil, "get_surf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DescribeToolCall(tt.tool, tt.args))
		})
	}
}

func TestRenderStatus(t *testing.T) {
	assert.Contains(t, RenderStatus(orchestrator.ThinkingEvent{RoundTrip: 1}), "Thinking")
	assert.Contains(t, RenderStatus(orchestrator.ThinkingEvent{RoundTrip: 2}), "round 2")
	assert.Contains(t, RenderStatus(orchestrator.ToolStartEvent{ToolName: tool.NamePlaces, Args: map[string]any{"query": "tacos"}}), "Places 'tacos'")
	assert.Contains(t, RenderStatus(orchestrator.ToolEndEvent{ToolName: tool.NameWeather, Success: true, Cached: true}), "cached")

	failed := RenderStatus(orchestrator.ToolEndEvent{ToolName: tool.NameWeather, ErrorKind: tool.ErrorTimeout})
	assert.Contains(t, failed, "get_weather")
	assert.Contains(t, failed, "Timeout")

	assert.Empty(t, RenderStatus(orchestrator.DoneEvent{State: orchestrator.StateDone}))
	assert.Contains(t, RenderStatus(orchestrator.DoneEvent{State: orchestrator.StateAborted, Err: orchestrator.ErrRequestTimeout}), "request timed out")
}

func TestPrinter_Follow(t *testing.T) {
	var out, status bytes.Buffer
	p := NewPrinter(&out, &status, nil)

	events := make(chan orchestrator.Event, 8)
	events <- orchestrator.ThinkingEvent{RoundTrip: 1}
	events <- orchestrator.ToolStartEvent{CallID: "c1", ToolName: tool.NameTidePredictions, Args: map[string]any{"station_id": "9410840"}}
	events <- orchestrator.ToolEndEvent{CallID: "c1", ToolName: tool.NameTidePredictions, Success: true}
	events <- orchestrator.DoneEvent{State: orchestrator.StateDone}
	events <- orchestrator.ThinkingEvent{RoundTrip: 9}

	p.Follow(events)

	assert.Contains(t, status.String(), "Tides station 9410840")
	assert.NotContains(t, status.String(), "round 9", "Follow stops at DoneEvent")
	assert.Empty(t, out.String())
}

func TestPrinter_Answer(t *testing.T) {
	answer := &orchestrator.Answer{SessionID: "sess-1", Text: "**High tide** at 09:06", ToolCalls: 2, CacheHits: 1}

	t.Run("Rendered", func(t *testing.T) {
		var out, status bytes.Buffer
		p := NewPrinter(&out, &status, &MockMarkdownRenderer{})

		require.NoError(t, p.Answer(answer))
		assert.Equal(t, "rendered: **High tide** at 09:06", out.String())
		assert.Contains(t, status.String(), "session sess-1")
		assert.Contains(t, status.String(), "2 tool call(s), 1 cached")
	})

	t.Run("Renderer Failure Falls Back", func(t *testing.T) {
		var out, status bytes.Buffer
		p := NewPrinter(&out, &status, &MockMarkdownRenderer{RenderFunc: func(string) (string, error) {
			return "", errors.New("no style")
		}})

		require.NoError(t, p.Answer(answer))
		assert.Equal(t, "**High tide** at 09:06\n", out.String())
	})
}

func TestGlamourRenderer(t *testing.T) {
	r, err := NewGlamourRenderer(80)
	require.NoError(t, err)

	out, err := r.Render("# Santa Monica\n\nHigh tide at 09:06.")
	require.NoError(t, err)
	assert.Contains(t, out, "Santa Monica")
	assert.Contains(t, out, "09:06")
}
