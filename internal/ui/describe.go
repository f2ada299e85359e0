package ui

import (
	"fmt"
	"strings"

	"github.com/Cyclone1070/beachai/internal/tool"
)

// DescribeToolCall generates a short human description of a tool call.
func DescribeToolCall(name string, args map[string]any) string {
	switch name {
	case tool.NameTidePredictions:
		return "Tides " + describeStation(args)
	case tool.NameWaterTemperature:
		return "Water temperature " + describeStation(args)
	case tool.NameWeather:
		kind, _ := args["kind"].(string)
		if kind == "" {
			kind = tool.WeatherForecast
		}
		return fmt.Sprintf("Weather %s at %s", kind, describeCoords(args))
	case tool.NamePlaces:
		if q, ok := args["query"].(string); ok && q != "" {
			return fmt.Sprintf("Places '%s'", q)
		}
		if t, ok := args["type"].(string); ok && t != "" {
			return fmt.Sprintf("Places %s near %s", strings.ReplaceAll(t, "_", " "), describeCoords(args))
		}
		return "Places near " + describeCoords(args)
	case tool.NamePlaceDetails:
		id, _ := args["place_id"].(string)
		return "Place details " + id
	}
	return name
}

func describeStation(args map[string]any) string {
	if id, ok := args["station_id"].(string); ok && id != "" {
		return "station " + id
	}
	return "near " + describeCoords(args)
}

func describeCoords(args map[string]any) string {
	lat, latOK := args["latitude"].(float64)
	lon, lonOK := args["longitude"].(float64)
	if !latOK || !lonOK {
		return "?"
	}
	return fmt.Sprintf("%.3f,%.3f", lat, lon)
}
