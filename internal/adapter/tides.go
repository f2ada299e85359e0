package adapter

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/Cyclone1070/beachai/internal/config"
	"github.com/Cyclone1070/beachai/internal/tool"
)

// TideAdapter serves get_tide_predictions from NOAA CO-OPS predictions.
type TideAdapter struct {
	noaa *noaaClient
}

// NewTideAdapter creates a TideAdapter.
func NewTideAdapter(cfg config.APIsConfig, opts ...Option) *TideAdapter {
	return &TideAdapter{noaa: newNOAAClient(cfg, opts)}
}

// Spec implements Adapter.
func (a *TideAdapter) Spec() tool.Spec {
	return tool.Spec{
		Name: tool.NameTidePredictions,
		Description: "Get tide predictions (heights in meters above MLLW) for a NOAA station. " +
			"Give either station_id or latitude and longitude to use the nearest station. " +
			"Dates and times are in the station's local time.",
		Source: SourceNOAA,
		Params: map[string]tool.Param{
			"station_id": {Type: tool.TypeString, Description: "NOAA station ID, e.g. 9410840 for Santa Monica"},
			"latitude":   {Type: tool.TypeNumber, Description: "Latitude used to find the nearest tide station"},
			"longitude":  {Type: tool.TypeNumber, Description: "Longitude used to find the nearest tide station"},
			"date":       {Type: tool.TypeString, Description: "Day to predict, YYYY-MM-DD. Defaults to today"},
			"time":       {Type: tool.TypeString, Description: "Time of interest, HH:MM (24h). The closest prediction is reported as nearest"},
			"interval": {
				Type:        tool.TypeString,
				Description: "hilo for high and low tides only, h for hourly heights. Defaults to hilo",
				Enum:        []string{tool.IntervalHighLow, tool.IntervalHourly},
			},
		},
		NewParams: func() any { return &tool.TideParams{} },
		Invoker:   a,
	}
}

type tidePredictions struct {
	noaaEnvelope
	Predictions []struct {
		T    string `json:"t"`
		V    string `json:"v"`
		Type string `json:"type"`
	} `json:"predictions"`
}

// Invoke implements tool.Invoker.
func (a *TideAdapter) Invoke(ctx context.Context, args *tool.ValidatedArgs, timeout time.Duration) tool.Result {
	return a.noaa.invoke(ctx, tool.NameTidePredictions, timeout, func(ctx context.Context) (map[string]any, time.Time, error) {
		p, ok := args.Params.(*tool.TideParams)
		if !ok {
			return nil, time.Time{}, wrongParams(a.noaa.source, args.Params)
		}
		return a.predict(ctx, p)
	})
}

func (a *TideAdapter) predict(ctx context.Context, p *tool.TideParams) (map[string]any, time.Time, error) {
	st, err := a.noaa.resolveStation(ctx, p.StationRef, stationTypeTides)
	if err != nil {
		return nil, time.Time{}, err
	}

	interval := p.Interval
	if interval == "" {
		interval = tool.IntervalHighLow
	}
	params := url.Values{
		"datum":     {"MLLW"},
		"time_zone": {"lst_ldt"},
		"interval":  {interval},
	}
	if p.Date == "" {
		params.Set("date", "today")
	} else {
		day, _ := time.Parse(tool.DateLayout, p.Date)
		params.Set("begin_date", day.Format("20060102"))
		params.Set("end_date", day.Format("20060102"))
	}

	var resp tidePredictions
	if err := a.noaa.fetch(ctx, "predictions", st.ID, params, &resp); err != nil {
		return nil, time.Time{}, err
	}
	if err := resp.err(a.noaa.source); err != nil {
		return nil, time.Time{}, err
	}
	if len(resp.Predictions) == 0 {
		return nil, time.Time{}, unavailable(a.noaa.source, "no tide predictions for station %s", st.ID)
	}

	type point struct {
		at    time.Time
		entry map[string]any
	}
	points := make([]point, 0, len(resp.Predictions))
	for _, pr := range resp.Predictions {
		at, err := time.Parse(noaaTimeLayout, pr.T)
		if err != nil {
			return nil, time.Time{}, invalidResponse(a.noaa.source, err, "bad prediction time %q", pr.T)
		}
		height, err := parseNOAAValue(a.noaa.source, pr.V)
		if err != nil {
			return nil, time.Time{}, err
		}
		entry := map[string]any{
			"time":     at.Format(localTimeLayout),
			"height_m": round3(height),
		}
		if kind := tideKind(pr.Type); kind != "" {
			entry["type"] = kind
		}
		points = append(points, point{at: at, entry: entry})
	}

	predictions := make([]map[string]any, len(points))
	for i, pt := range points {
		predictions[i] = pt.entry
	}

	payload := map[string]any{
		"datum":       "MLLW",
		"height_unit": "m",
		"time_zone":   "station_local",
		"interval":    interval,
		"date":        points[0].at.Format(tool.DateLayout),
		"predictions": predictions,
	}
	st.describe(payload)

	if p.Time != "" {
		clk, _ := time.Parse(tool.ClockLayout, p.Time)
		day := points[0].at
		target := time.Date(day.Year(), day.Month(), day.Day(), clk.Hour(), clk.Minute(), 0, 0, time.UTC)
		nearest := points[0]
		for _, pt := range points[1:] {
			if absDuration(pt.at.Sub(target)) < absDuration(nearest.at.Sub(target)) {
				nearest = pt
			}
		}
		payload["requested_time"] = target.Format(localTimeLayout)
		payload["nearest"] = nearest.entry
	}

	return payload, a.noaa.clock.Now(), nil
}

func tideKind(t string) string {
	switch strings.ToUpper(strings.TrimSpace(t)) {
	case "H", "HH":
		return "high"
	case "L", "LL":
		return "low"
	}
	return ""
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
