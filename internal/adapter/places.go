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

// SourcePlaces is the rate-limit source of the places tool.
const SourcePlaces = "places"

var priceLevels = map[int]string{
	0: "free",
	1: "inexpensive",
	2: "moderate",
	3: "expensive",
	4: "very_expensive",
}

// PlacesAdapter serves search_places from the Google Places web service.
// A query selects text search; a bare location selects nearby search.
type PlacesAdapter struct {
	base
	baseURL       string
	apiKey        string
	maxResults    int
	defaultRadius int
}

// NewPlacesAdapter creates a PlacesAdapter.
func NewPlacesAdapter(cfg config.APIsConfig, opts ...Option) *PlacesAdapter {
	return &PlacesAdapter{
		base:          newBase(SourcePlaces, cfg.UserAgent, opts),
		baseURL:       strings.TrimRight(cfg.PlacesBaseURL, "/"),
		apiKey:        cfg.PlacesAPIKey,
		maxResults:    cfg.MaxPlaces,
		defaultRadius: cfg.DefaultPlacesRadius,
	}
}

// Spec implements Adapter.
func (a *PlacesAdapter) Spec() tool.Spec {
	return tool.Spec{
		Name: tool.NamePlaces,
		Description: "Search for beaches, restaurants, parking and other places. " +
			"Give a text query (e.g. \"beaches near Santa Monica\"), a location, or both.",
		Source: SourcePlaces,
		Params: map[string]tool.Param{
			"query":         {Type: tool.TypeString, Description: "Free-text search"},
			"latitude":      {Type: tool.TypeNumber, Description: "Latitude to search around"},
			"longitude":     {Type: tool.TypeNumber, Description: "Longitude to search around"},
			"radius_meters": {Type: tool.TypeInteger, Description: "Search radius in meters, at most 50000"},
			"type":          {Type: tool.TypeString, Description: "Place type filter, e.g. restaurant, parking, lodging"},
			"open_now":      {Type: tool.TypeBoolean, Description: "Only return places open now"},
		},
		NewParams: func() any { return &tool.PlacesParams{} },
		Invoker:   a,
	}
}

type placesSearch struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		PlaceID          string   `json:"place_id"`
		Name             string   `json:"name"`
		FormattedAddress string   `json:"formatted_address"`
		Vicinity         string   `json:"vicinity"`
		Rating           *float64 `json:"rating"`
		UserRatingsTotal *int     `json:"user_ratings_total"`
		PriceLevel       *int     `json:"price_level"`
		BusinessStatus   string   `json:"business_status"`
		Types            []string `json:"types"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		OpeningHours *struct {
			OpenNow *bool `json:"open_now"`
		} `json:"opening_hours"`
	} `json:"results"`
}

// Invoke implements tool.Invoker.
func (a *PlacesAdapter) Invoke(ctx context.Context, args *tool.ValidatedArgs, timeout time.Duration) tool.Result {
	return a.invoke(ctx, tool.NamePlaces, timeout, func(ctx context.Context) (map[string]any, time.Time, error) {
		p, ok := args.Params.(*tool.PlacesParams)
		if !ok {
			return nil, time.Time{}, wrongParams(a.source, args.Params)
		}
		return a.search(ctx, p)
	})
}

func (a *PlacesAdapter) search(ctx context.Context, p *tool.PlacesParams) (map[string]any, time.Time, error) {
	if a.apiKey == "" {
		return nil, time.Time{}, unavailable(a.source, "places API key is not configured")
	}

	q := url.Values{"key": {a.apiKey}, "language": {"en"}}
	endpoint := a.baseURL + "/nearbysearch/json"
	if query := strings.TrimSpace(p.Query); query != "" {
		endpoint = a.baseURL + "/textsearch/json"
		q.Set("query", query)
	}
	if p.HasLocation() {
		q.Set("location", coord(*p.Latitude)+","+coord(*p.Longitude))
		radius := p.RadiusMeters
		if radius == 0 {
			radius = a.defaultRadius
		}
		q.Set("radius", strconv.Itoa(radius))
	}
	if p.Type != "" {
		q.Set("type", p.Type)
	}
	if p.OpenNow {
		q.Set("opennow", "true")
	}

	var resp placesSearch
	if err := a.getJSON(ctx, endpoint, q, &resp); err != nil {
		return nil, time.Time{}, err
	}
	if err := placesStatusErr(a.source, resp.Status, resp.ErrorMessage); err != nil {
		return nil, time.Time{}, err
	}

	n := len(resp.Results)
	if a.maxResults > 0 {
		n = min(n, a.maxResults)
	}
	places := make([]map[string]any, 0, n)
	for _, r := range resp.Results[:n] {
		place := map[string]any{
			"place_id":  r.PlaceID,
			"name":      r.Name,
			"latitude":  r.Geometry.Location.Lat,
			"longitude": r.Geometry.Location.Lng,
		}
		if addr := firstNonEmpty(r.FormattedAddress, r.Vicinity); addr != "" {
			place["address"] = addr
		}
		if r.Rating != nil {
			place["rating"] = *r.Rating
		}
		if r.UserRatingsTotal != nil {
			place["ratings_total"] = *r.UserRatingsTotal
		}
		if level := placePriceLevel(r.PriceLevel); level != "" {
			place["price_level"] = level
		}
		if r.OpeningHours != nil && r.OpeningHours.OpenNow != nil {
			place["open_now"] = *r.OpeningHours.OpenNow
		}
		if r.BusinessStatus != "" && r.BusinessStatus != "OPERATIONAL" {
			place["business_status"] = strings.ToLower(r.BusinessStatus)
		}
		if len(r.Types) > 0 {
			place["types"] = r.Types
		}
		places = append(places, place)
	}

	payload := map[string]any{
		"places":        places,
		"total_results": len(resp.Results),
	}
	return payload, a.clock.Now(), nil
}

// placesStatusErr maps the in-band status of a Places reply.
func placesStatusErr(source, status, message string) error {
	switch status {
	case "OK", "ZERO_RESULTS":
		return nil
	case "OVER_QUERY_LIMIT":
		return &UpstreamError{Source: source, Kind: tool.ErrorRateLimited, Message: firstNonEmpty(message, status)}
	case "":
		return invalidResponse(source, nil, "reply has no status")
	default:
		return unavailable(source, "%s", firstNonEmpty(message, status))
	}
}

// placePriceLevel names a Places price level, or "" when unknown.
func placePriceLevel(level *int) string {
	if level == nil {
		return ""
	}
	return priceLevels[*level]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
