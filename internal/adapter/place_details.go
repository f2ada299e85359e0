package adapter

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/Cyclone1070/beachai/internal/config"
	"github.com/Cyclone1070/beachai/internal/tool"
)

// placeDetailFields limits the details reply to what the payload carries.
const placeDetailFields = "place_id,name,formatted_address,formatted_phone_number," +
	"international_phone_number,website,url,rating,user_ratings_total,price_level," +
	"business_status,opening_hours,geometry"

// PlaceDetailsAdapter serves get_place_details for a place_id returned by
// search_places. It shares the places rate-limit bucket.
type PlaceDetailsAdapter struct {
	base
	baseURL string
	apiKey  string
}

// NewPlaceDetailsAdapter creates a PlaceDetailsAdapter.
func NewPlaceDetailsAdapter(cfg config.APIsConfig, opts ...Option) *PlaceDetailsAdapter {
	return &PlaceDetailsAdapter{
		base:    newBase(SourcePlaces, cfg.UserAgent, opts),
		baseURL: strings.TrimRight(cfg.PlacesBaseURL, "/"),
		apiKey:  cfg.PlacesAPIKey,
	}
}

// Spec implements Adapter.
func (a *PlaceDetailsAdapter) Spec() tool.Spec {
	return tool.Spec{
		Name: tool.NamePlaceDetails,
		Description: "Get phone number, website, opening hours and rating of one place. " +
			"Use a place_id from search_places.",
		Source: SourcePlaces,
		Params: map[string]tool.Param{
			"place_id": {Type: tool.TypeString, Required: true, Description: "place_id from a search_places result"},
		},
		NewParams: func() any { return &tool.PlaceDetailsParams{} },
		Invoker:   a,
	}
}

type placeDetails struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Result       *struct {
		PlaceID                  string   `json:"place_id"`
		Name                     string   `json:"name"`
		FormattedAddress         string   `json:"formatted_address"`
		FormattedPhoneNumber     string   `json:"formatted_phone_number"`
		InternationalPhoneNumber string   `json:"international_phone_number"`
		Website                  string   `json:"website"`
		URL                      string   `json:"url"`
		Rating                   *float64 `json:"rating"`
		UserRatingsTotal         *int     `json:"user_ratings_total"`
		PriceLevel               *int     `json:"price_level"`
		BusinessStatus           string   `json:"business_status"`
		Geometry                 struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		OpeningHours *struct {
			OpenNow     *bool    `json:"open_now"`
			WeekdayText []string `json:"weekday_text"`
		} `json:"opening_hours"`
	} `json:"result"`
}

// Invoke implements tool.Invoker.
func (a *PlaceDetailsAdapter) Invoke(ctx context.Context, args *tool.ValidatedArgs, timeout time.Duration) tool.Result {
	return a.invoke(ctx, tool.NamePlaceDetails, timeout, func(ctx context.Context) (map[string]any, time.Time, error) {
		p, ok := args.Params.(*tool.PlaceDetailsParams)
		if !ok {
			return nil, time.Time{}, wrongParams(a.source, args.Params)
		}
		return a.details(ctx, strings.TrimSpace(p.PlaceID))
	})
}

func (a *PlaceDetailsAdapter) details(ctx context.Context, placeID string) (map[string]any, time.Time, error) {
	if a.apiKey == "" {
		return nil, time.Time{}, unavailable(a.source, "places API key is not configured")
	}

	q := url.Values{
		"key":      {a.apiKey},
		"place_id": {placeID},
		"fields":   {placeDetailFields},
		"language": {"en"},
	}
	var resp placeDetails
	if err := a.getJSON(ctx, a.baseURL+"/details/json", q, &resp); err != nil {
		return nil, time.Time{}, err
	}
	switch resp.Status {
	case "NOT_FOUND", "INVALID_REQUEST":
		return nil, time.Time{}, unavailable(a.source, "no place with id %q (%s)", placeID, resp.Status)
	case "ZERO_RESULTS":
		return nil, time.Time{}, unavailable(a.source, "place %q no longer exists", placeID)
	}
	if err := placesStatusErr(a.source, resp.Status, resp.ErrorMessage); err != nil {
		return nil, time.Time{}, err
	}
	if resp.Result == nil {
		return nil, time.Time{}, invalidResponse(a.source, nil, "reply has no result")
	}

	r := resp.Result
	payload := map[string]any{
		"place_id":  firstNonEmpty(r.PlaceID, placeID),
		"name":      r.Name,
		"latitude":  r.Geometry.Location.Lat,
		"longitude": r.Geometry.Location.Lng,
	}
	optional := map[string]string{
		"address":     r.FormattedAddress,
		"phone":       firstNonEmpty(r.FormattedPhoneNumber, r.InternationalPhoneNumber),
		"website":     r.Website,
		"maps_url":    r.URL,
		"price_level": placePriceLevel(r.PriceLevel),
	}
	for k, v := range optional {
		if v != "" {
			payload[k] = v
		}
	}
	if r.Rating != nil {
		payload["rating"] = *r.Rating
	}
	if r.UserRatingsTotal != nil {
		payload["ratings_total"] = *r.UserRatingsTotal
	}
	if r.OpeningHours != nil {
		if r.OpeningHours.OpenNow != nil {
			payload["open_now"] = *r.OpeningHours.OpenNow
		}
		if len(r.OpeningHours.WeekdayText) > 0 {
			payload["opening_hours"] = r.OpeningHours.WeekdayText
		}
	}
	if r.BusinessStatus != "" && r.BusinessStatus != "OPERATIONAL" {
		payload["business_status"] = strings.ToLower(r.BusinessStatus)
	}
	return payload, a.clock.Now(), nil
}
