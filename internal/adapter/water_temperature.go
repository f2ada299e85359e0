package adapter

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/Cyclone1070/beachai/internal/config"
	"github.com/Cyclone1070/beachai/internal/tool"
)

// WaterTemperatureAdapter serves get_water_temperature from the latest NOAA
// station reading.
type WaterTemperatureAdapter struct {
	noaa *noaaClient
}

// NewWaterTemperatureAdapter creates a WaterTemperatureAdapter.
func NewWaterTemperatureAdapter(cfg config.APIsConfig, opts ...Option) *WaterTemperatureAdapter {
	return &WaterTemperatureAdapter{noaa: newNOAAClient(cfg, opts)}
}

// Spec implements Adapter.
func (a *WaterTemperatureAdapter) Spec() tool.Spec {
	return tool.Spec{
		Name: tool.NameWaterTemperature,
		Description: "Get the latest water temperature in degrees Celsius measured at a NOAA station. " +
			"Give either station_id or latitude and longitude to use the nearest station with a sensor.",
		Source: SourceNOAA,
		Params: map[string]tool.Param{
			"station_id": {Type: tool.TypeString, Description: "NOAA station ID"},
			"latitude":   {Type: tool.TypeNumber, Description: "Latitude used to find the nearest station"},
			"longitude":  {Type: tool.TypeNumber, Description: "Longitude used to find the nearest station"},
		},
		NewParams: func() any { return &tool.WaterTemperatureParams{} },
		Invoker:   a,
	}
}

type waterTemperatureData struct {
	noaaEnvelope
	Metadata struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"metadata"`
	Data []struct {
		T string `json:"t"`
		V string `json:"v"`
	} `json:"data"`
}

// Invoke implements tool.Invoker.
func (a *WaterTemperatureAdapter) Invoke(ctx context.Context, args *tool.ValidatedArgs, timeout time.Duration) tool.Result {
	return a.noaa.invoke(ctx, tool.NameWaterTemperature, timeout, func(ctx context.Context) (map[string]any, time.Time, error) {
		p, ok := args.Params.(*tool.WaterTemperatureParams)
		if !ok {
			return nil, time.Time{}, wrongParams(a.noaa.source, args.Params)
		}
		return a.latest(ctx, p)
	})
}

func (a *WaterTemperatureAdapter) latest(ctx context.Context, p *tool.WaterTemperatureParams) (map[string]any, time.Time, error) {
	st, err := a.noaa.resolveStation(ctx, p.StationRef, stationTypeWaterTemp)
	if err != nil {
		return nil, time.Time{}, err
	}

	var resp waterTemperatureData
	params := url.Values{"date": {"latest"}, "time_zone": {"gmt"}}
	if err := a.noaa.fetch(ctx, "water_temperature", st.ID, params, &resp); err != nil {
		return nil, time.Time{}, err
	}
	if err := resp.err(a.noaa.source); err != nil {
		return nil, time.Time{}, err
	}

	// The newest reading with a value wins; gaps are reported as "".
	for i := len(resp.Data) - 1; i >= 0; i-- {
		d := resp.Data[i]
		if strings.TrimSpace(d.V) == "" {
			continue
		}
		observed, err := time.ParseInLocation(noaaTimeLayout, d.T, time.UTC)
		if err != nil {
			return nil, time.Time{}, invalidResponse(a.noaa.source, err, "bad observation time %q", d.T)
		}
		temp, err := parseNOAAValue(a.noaa.source, d.V)
		if err != nil {
			return nil, time.Time{}, err
		}

		if st.Name == "" && resp.Metadata.Name != "" {
			st.Name = resp.Metadata.Name
		}
		payload := map[string]any{
			"station_id":    st.ID,
			"temperature_c": round1(temp),
			"observed_at":   observed.Format(time.RFC3339),
			"age_minutes":   int(a.noaa.clock.Now().Sub(observed).Minutes()),
		}
		if st.Name != "" {
			payload["station_name"] = st.Name
		}
		if st.DistanceKm > 0 {
			payload["station_distance_km"] = round1(st.DistanceKm)
		}
		return payload, observed, nil
	}
	return nil, time.Time{}, unavailable(a.noaa.source, "no recent water temperature at station %s", st.ID)
}
