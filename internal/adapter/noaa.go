package adapter

import (
	"context"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/Cyclone1070/beachai/internal/config"
	"github.com/Cyclone1070/beachai/internal/tool"
)

// SourceNOAA is the rate-limit source shared by the tide and water
// temperature tools.
const SourceNOAA = "noaa"

// Station types understood by the NOAA metadata API.
const (
	stationTypeTides     = "tidepredictions"
	stationTypeWaterTemp = "watertemp"
)

// noaaClient queries the CO-OPS data getter and the station metadata API.
type noaaClient struct {
	base
	dataURL     string
	stationsURL string
	application string
	radiusKm    float64
}

func newNOAAClient(cfg config.APIsConfig, opts []Option) *noaaClient {
	return &noaaClient{
		base:        newBase(SourceNOAA, cfg.UserAgent, opts),
		dataURL:     strings.TrimRight(cfg.NOAABaseURL, "/") + "/datagetter",
		stationsURL: cfg.NOAAStationsURL,
		application: cfg.Application,
		radiusKm:    cfg.StationRadiusKm,
	}
}

// station is a resolved NOAA station. Name and DistanceKm are only known
// when the station was looked up by location.
type station struct {
	ID         string
	Name       string
	DistanceKm float64
}

func (s station) describe(payload map[string]any) {
	payload["station_id"] = s.ID
	if s.Name != "" {
		payload["station_name"] = s.Name
		payload["station_distance_km"] = round1(s.DistanceKm)
	}
}

type stationList struct {
	Stations []struct {
		ID    string  `json:"id"`
		Name  string  `json:"name"`
		State string  `json:"state"`
		Lat   float64 `json:"lat"`
		Lng   float64 `json:"lng"`
	} `json:"stations"`
}

// resolveStation returns the station named by ref, or the nearest station
// of stationType within the configured radius of ref's location.
func (c *noaaClient) resolveStation(ctx context.Context, ref tool.StationRef, stationType string) (station, error) {
	if id := strings.TrimSpace(ref.StationID); id != "" {
		return station{ID: id}, nil
	}
	lat, lon := *ref.Latitude, *ref.Longitude

	var list stationList
	if err := c.getJSON(ctx, c.stationsURL, url.Values{"type": {stationType}}, &list); err != nil {
		return station{}, err
	}

	best := station{DistanceKm: math.Inf(1)}
	for _, s := range list.Stations {
		d := haversineKm(lat, lon, s.Lat, s.Lng)
		if d < best.DistanceKm {
			name := s.Name
			if s.State != "" {
				name += ", " + s.State
			}
			best = station{ID: s.ID, Name: name, DistanceKm: d}
		}
	}
	if best.ID == "" || best.DistanceKm > c.radiusKm {
		return station{}, unavailable(c.source, "no %s station within %g km of %.4f,%.4f", stationType, c.radiusKm, lat, lon)
	}
	return best, nil
}

// noaaEnvelope carries the in-band error the data getter reports with a 200
// status, e.g. when a station has no data for the requested product.
type noaaEnvelope struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (e noaaEnvelope) err(source string) error {
	if e.Error == nil {
		return nil
	}
	return unavailable(source, "%s", strings.TrimSpace(e.Error.Message))
}

// fetch queries the data getter for product at stationID. Units are always
// metric.
func (c *noaaClient) fetch(ctx context.Context, product, stationID string, params url.Values, out any) error {
	q := url.Values{
		"product":     {product},
		"station":     {stationID},
		"units":       {"metric"},
		"format":      {"json"},
		"application": {c.application},
	}
	for k, vs := range params {
		q[k] = vs
	}
	return c.getJSON(ctx, c.dataURL, q, out)
}

func parseNOAAValue(source, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, invalidResponse(source, err, "bad value %q", s)
	}
	return v, nil
}
