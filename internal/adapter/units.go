package adapter

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	kmhPerMph       = 1.609344
	kmhPerMps       = 3.6
	kmhPerKnot      = 1.852
	earthRadiusKm   = 6371.0
	wmoUnitPrefix   = "wmoUnit:"
	noaaTimeLayout  = "2006-01-02 15:04"
	localTimeLayout = "2006-01-02T15:04"
)

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }

func fahrenheitToCelsius(f float64) float64 { return (f - 32) * 5 / 9 }

// celsius converts a temperature given in unit ("C", "F", "degC", "degF").
func celsius(v float64, unit string) float64 {
	switch strings.TrimPrefix(unit, wmoUnitPrefix) {
	case "F", "degF":
		return round1(fahrenheitToCelsius(v))
	default:
		return round1(v)
	}
}

// parseWindSpeed reads NWS forecast strings such as "10 mph" or
// "5 to 15 mph" and returns the upper bound in km/h.
func parseWindSpeed(s string) (float64, bool) {
	nums := numberPattern.FindAllString(s, -1)
	if len(nums) == 0 {
		return 0, false
	}
	top := 0.0
	for _, n := range nums {
		v, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		top = math.Max(top, v)
	}
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "km/h"):
	case strings.Contains(lower, "kt"), strings.Contains(lower, "knot"):
		top *= kmhPerKnot
	default:
		top *= kmhPerMph
	}
	return round1(top), true
}

// speedKmh converts an NWS quantitative speed to km/h.
func speedKmh(v float64, unitCode string) float64 {
	switch strings.TrimPrefix(unitCode, wmoUnitPrefix) {
	case "m_s-1":
		return round1(v * kmhPerMps)
	case "kt":
		return round1(v * kmhPerKnot)
	case "mi_h-1":
		return round1(v * kmhPerMph)
	default:
		return round1(v)
	}
}

// pressureHPa converts an NWS pressure to hectopascals.
func pressureHPa(v float64, unitCode string) float64 {
	if strings.TrimPrefix(unitCode, wmoUnitPrefix) == "Pa" {
		return round1(v / 100)
	}
	return round1(v)
}

// haversineKm is the great-circle distance between two coordinates.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// utcTimestamp parses an RFC 3339 timestamp and formats it in UTC.
func utcTimestamp(s string) (time.Time, string, bool) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, "", false
	}
	t = t.UTC()
	return t, t.Format(time.RFC3339), true
}
