package adapter

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Cyclone1070/beachai/internal/config"
	"github.com/Cyclone1070/beachai/internal/tool"
)

// SourceNWS is the rate-limit source of the weather tool.
const SourceNWS = "nws"

// WeatherAdapter serves get_weather from the National Weather Service. A
// forecast is a two-step lookup (points, then forecast); current conditions
// take three (points, observation stations, latest observation).
type WeatherAdapter struct {
	base
	baseURL string
	periods int
}

// NewWeatherAdapter creates a WeatherAdapter.
func NewWeatherAdapter(cfg config.APIsConfig, opts ...Option) *WeatherAdapter {
	return &WeatherAdapter{
		base:    newBase(SourceNWS, cfg.UserAgent, opts),
		baseURL: strings.TrimRight(cfg.NWSBaseURL, "/"),
		periods: cfg.ForecastPeriods,
	}
}

// Spec implements Adapter.
func (a *WeatherAdapter) Spec() tool.Spec {
	return tool.Spec{
		Name: tool.NameWeather,
		Description: "Get the weather for a US location from the National Weather Service. " +
			"kind=forecast returns the next forecast periods, kind=current the latest observation. " +
			"Temperatures are in degrees Celsius and wind speeds in km/h.",
		Source: SourceNWS,
		Params: map[string]tool.Param{
			"latitude":  {Type: tool.TypeNumber, Required: true, Description: "Latitude of the location"},
			"longitude": {Type: tool.TypeNumber, Required: true, Description: "Longitude of the location"},
			"kind": {
				Type:        tool.TypeString,
				Description: "forecast or current. Defaults to forecast",
				Enum:        []string{tool.WeatherForecast, tool.WeatherCurrent},
			},
		},
		NewParams: func() any { return &tool.WeatherParams{} },
		Invoker:   a,
	}
}

type quantity struct {
	Value    *float64 `json:"value"`
	UnitCode string   `json:"unitCode"`
}

type nwsPoint struct {
	Properties struct {
		Forecast            string `json:"forecast"`
		ObservationStations string `json:"observationStations"`
		RelativeLocation    struct {
			Properties struct {
				City  string `json:"city"`
				State string `json:"state"`
			} `json:"properties"`
		} `json:"relativeLocation"`
	} `json:"properties"`
}

type nwsForecast struct {
	Properties struct {
		UpdateTime string `json:"updateTime"`
		Periods    []struct {
			Name                       string   `json:"name"`
			StartTime                  string   `json:"startTime"`
			EndTime                    string   `json:"endTime"`
			IsDaytime                  bool     `json:"isDaytime"`
			Temperature                *float64 `json:"temperature"`
			TemperatureUnit            string   `json:"temperatureUnit"`
			WindSpeed                  string   `json:"windSpeed"`
			WindDirection              string   `json:"windDirection"`
			ShortForecast              string   `json:"shortForecast"`
			DetailedForecast           string   `json:"detailedForecast"`
			ProbabilityOfPrecipitation quantity `json:"probabilityOfPrecipitation"`
		} `json:"periods"`
	} `json:"properties"`
}

type nwsStations struct {
	Features []struct {
		Properties struct {
			StationIdentifier string `json:"stationIdentifier"`
			Name              string `json:"name"`
		} `json:"properties"`
	} `json:"features"`
}

type nwsObservation struct {
	Properties struct {
		Timestamp          string   `json:"timestamp"`
		TextDescription    string   `json:"textDescription"`
		Temperature        quantity `json:"temperature"`
		WindSpeed          quantity `json:"windSpeed"`
		WindGust           quantity `json:"windGust"`
		WindDirection      quantity `json:"windDirection"`
		RelativeHumidity   quantity `json:"relativeHumidity"`
		BarometricPressure quantity `json:"barometricPressure"`
	} `json:"properties"`
}

// Invoke implements tool.Invoker.
func (a *WeatherAdapter) Invoke(ctx context.Context, args *tool.ValidatedArgs, timeout time.Duration) tool.Result {
	return a.invoke(ctx, tool.NameWeather, timeout, func(ctx context.Context) (map[string]any, time.Time, error) {
		p, ok := args.Params.(*tool.WeatherParams)
		if !ok {
			return nil, time.Time{}, wrongParams(a.source, args.Params)
		}

		var point nwsPoint
		endpoint := a.baseURL + "/points/" + coord(p.Latitude) + "," + coord(p.Longitude)
		if err := a.getJSON(ctx, endpoint, nil, &point); err != nil {
			return nil, time.Time{}, err
		}

		var (
			payload    map[string]any
			sourceTime time.Time
			err        error
		)
		if p.Kind == tool.WeatherCurrent {
			payload, sourceTime, err = a.current(ctx, point)
		} else {
			payload, sourceTime, err = a.forecast(ctx, point)
		}
		if err != nil {
			return nil, time.Time{}, err
		}

		loc := point.Properties.RelativeLocation.Properties
		if loc.City != "" {
			payload["location"] = strings.TrimSuffix(loc.City+", "+loc.State, ", ")
		}
		return payload, sourceTime, nil
	})
}

func (a *WeatherAdapter) forecast(ctx context.Context, point nwsPoint) (map[string]any, time.Time, error) {
	if point.Properties.Forecast == "" {
		return nil, time.Time{}, invalidResponse(a.source, nil, "points response has no forecast URL")
	}
	var fc nwsForecast
	if err := a.getJSON(ctx, point.Properties.Forecast, nil, &fc); err != nil {
		return nil, time.Time{}, err
	}
	if len(fc.Properties.Periods) == 0 {
		return nil, time.Time{}, unavailable(a.source, "forecast has no periods")
	}

	n := len(fc.Properties.Periods)
	if a.periods > 0 {
		n = min(n, a.periods)
	}
	periods := make([]map[string]any, 0, n)
	for _, fp := range fc.Properties.Periods[:n] {
		period := map[string]any{
			"name":           fp.Name,
			"is_daytime":     fp.IsDaytime,
			"wind_direction": fp.WindDirection,
			"summary":        fp.ShortForecast,
			"detail":         fp.DetailedForecast,
		}
		if _, start, ok := utcTimestamp(fp.StartTime); ok {
			period["start"] = start
		}
		if _, end, ok := utcTimestamp(fp.EndTime); ok {
			period["end"] = end
		}
		if fp.Temperature != nil {
			period["temperature_c"] = celsius(*fp.Temperature, fp.TemperatureUnit)
		}
		if kmh, ok := parseWindSpeed(fp.WindSpeed); ok {
			period["wind_speed_kmh"] = kmh
		}
		if v := fp.ProbabilityOfPrecipitation.Value; v != nil {
			period["precipitation_chance_pct"] = *v
		}
		periods = append(periods, period)
	}

	payload := map[string]any{"kind": tool.WeatherForecast, "periods": periods}
	sourceTime := a.clock.Now()
	if t, ts, ok := utcTimestamp(fc.Properties.UpdateTime); ok {
		payload["updated_at"] = ts
		sourceTime = t
	}
	return payload, sourceTime, nil
}

func (a *WeatherAdapter) current(ctx context.Context, point nwsPoint) (map[string]any, time.Time, error) {
	if point.Properties.ObservationStations == "" {
		return nil, time.Time{}, invalidResponse(a.source, nil, "points response has no observation stations URL")
	}
	var stations nwsStations
	if err := a.getJSON(ctx, point.Properties.ObservationStations, nil, &stations); err != nil {
		return nil, time.Time{}, err
	}
	if len(stations.Features) == 0 {
		return nil, time.Time{}, unavailable(a.source, "no observation stations near location")
	}
	st := stations.Features[0].Properties

	var obs nwsObservation
	endpoint := a.baseURL + "/stations/" + url.PathEscape(st.StationIdentifier) + "/observations/latest"
	if err := a.getJSON(ctx, endpoint, nil, &obs); err != nil {
		return nil, time.Time{}, err
	}
	props := obs.Properties
	observed, observedAt, ok := utcTimestamp(props.Timestamp)
	if !ok {
		return nil, time.Time{}, invalidResponse(a.source, nil, "bad observation timestamp %q", props.Timestamp)
	}

	payload := map[string]any{
		"kind":         tool.WeatherCurrent,
		"station_id":   st.StationIdentifier,
		"station_name": st.Name,
		"summary":      props.TextDescription,
		"observed_at":  observedAt,
		"age_minutes":  int(a.clock.Now().Sub(observed).Minutes()),
	}
	if v := props.Temperature.Value; v != nil {
		payload["temperature_c"] = celsius(*v, props.Temperature.UnitCode)
	}
	if v := props.WindSpeed.Value; v != nil {
		payload["wind_speed_kmh"] = speedKmh(*v, props.WindSpeed.UnitCode)
	}
	if v := props.WindGust.Value; v != nil {
		payload["wind_gust_kmh"] = speedKmh(*v, props.WindGust.UnitCode)
	}
	if v := props.WindDirection.Value; v != nil {
		payload["wind_direction_deg"] = round1(*v)
	}
	if v := props.RelativeHumidity.Value; v != nil {
		payload["relative_humidity_pct"] = round1(*v)
	}
	if v := props.BarometricPressure.Value; v != nil {
		payload["pressure_hpa"] = pressureHPa(*v, props.BarometricPressure.UnitCode)
	}
	return payload, observed, nil
}

// coord formats a coordinate with the four decimals NWS accepts without
// redirecting.
func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
