package tool

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Names of the tools the assistant can call. The set is closed: every tool
// has a statically declared parameter struct below.
const (
	NameTidePredictions  = "get_tide_predictions"
	NameWaterTemperature = "get_water_temperature"
	NameWeather          = "get_weather"
	NamePlaces           = "search_places"
	NamePlaceDetails     = "get_place_details"
)

// Weather report kinds.
const (
	WeatherForecast = "forecast"
	WeatherCurrent  = "current"
)

// Tide prediction intervals.
const (
	IntervalHighLow = "hilo"
	IntervalHourly  = "h"
)

const (
	// DateLayout is the accepted layout for date parameters.
	DateLayout = "2006-01-02"
	// ClockLayout is the accepted layout for time-of-day parameters.
	ClockLayout = "15:04"
)

var (
	ErrStationOrLocation  = errors.New("exactly one of station_id or latitude/longitude is required")
	ErrIncompleteLocation = errors.New("latitude and longitude must be given together")
	ErrQueryOrLocation    = errors.New("query or latitude/longitude is required")
	ErrEmptyPlaceID       = errors.New("place_id must not be empty")
)

// StationRef identifies a NOAA station either directly or by a location
// from which the nearest station is resolved.
type StationRef struct {
	StationID string   `mapstructure:"station_id"`
	Latitude  *float64 `mapstructure:"latitude"`
	Longitude *float64 `mapstructure:"longitude"`
}

// HasLocation reports whether a coordinate pair was supplied.
func (s StationRef) HasLocation() bool {
	return s.Latitude != nil && s.Longitude != nil
}

func (s StationRef) validate() error {
	if (s.Latitude == nil) != (s.Longitude == nil) {
		return ErrIncompleteLocation
	}
	hasStation := strings.TrimSpace(s.StationID) != ""
	if hasStation == s.HasLocation() {
		return ErrStationOrLocation
	}
	if s.HasLocation() {
		return validateCoordinates(*s.Latitude, *s.Longitude)
	}
	return nil
}

// TideParams are the arguments of get_tide_predictions.
type TideParams struct {
	StationRef `mapstructure:",squash"`
	Date       string `mapstructure:"date"`
	Time       string `mapstructure:"time"`
	Interval   string `mapstructure:"interval"`
}

// Validate implements Validator.
func (p *TideParams) Validate() error {
	if err := p.StationRef.validate(); err != nil {
		return err
	}
	if p.Date != "" {
		if _, err := time.Parse(DateLayout, p.Date); err != nil {
			return fmt.Errorf("date must be YYYY-MM-DD: %q", p.Date)
		}
	}
	if p.Time != "" {
		if _, err := time.Parse(ClockLayout, p.Time); err != nil {
			return fmt.Errorf("time must be HH:MM (24h): %q", p.Time)
		}
	}
	return nil
}

// WaterTemperatureParams are the arguments of get_water_temperature.
type WaterTemperatureParams struct {
	StationRef `mapstructure:",squash"`
}

// Validate implements Validator.
func (p *WaterTemperatureParams) Validate() error {
	return p.StationRef.validate()
}

// WeatherParams are the arguments of get_weather.
type WeatherParams struct {
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
	Kind      string  `mapstructure:"kind"`
}

// Validate implements Validator.
func (p *WeatherParams) Validate() error {
	return validateCoordinates(p.Latitude, p.Longitude)
}

// PlacesParams are the arguments of search_places.
type PlacesParams struct {
	Query        string   `mapstructure:"query"`
	Latitude     *float64 `mapstructure:"latitude"`
	Longitude    *float64 `mapstructure:"longitude"`
	RadiusMeters int      `mapstructure:"radius_meters"`
	Type         string   `mapstructure:"type"`
	OpenNow      bool     `mapstructure:"open_now"`
}

// HasLocation reports whether a coordinate pair was supplied.
func (p *PlacesParams) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// Validate implements Validator.
func (p *PlacesParams) Validate() error {
	if (p.Latitude == nil) != (p.Longitude == nil) {
		return ErrIncompleteLocation
	}
	if strings.TrimSpace(p.Query) == "" && !p.HasLocation() {
		return ErrQueryOrLocation
	}
	if p.HasLocation() {
		if err := validateCoordinates(*p.Latitude, *p.Longitude); err != nil {
			return err
		}
	}
	if p.RadiusMeters < 0 || p.RadiusMeters > 50000 {
		return fmt.Errorf("radius_meters must be between 0 and 50000, got %d", p.RadiusMeters)
	}
	return nil
}

// PlaceDetailsParams are the arguments of get_place_details.
type PlaceDetailsParams struct {
	PlaceID string `mapstructure:"place_id"`
}

// Validate implements Validator.
func (p *PlaceDetailsParams) Validate() error {
	if strings.TrimSpace(p.PlaceID) == "" {
		return ErrEmptyPlaceID
	}
	return nil
}

func validateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %v", lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %v", lon)
	}
	return nil
}
