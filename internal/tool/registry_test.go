package tool

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubInvoker struct{}

func (stubInvoker) Invoke(ctx context.Context, args *ValidatedArgs, timeout time.Duration) Result {
	return Succeeded(args.Tool, map[string]any{"ok": true}, time.Now())
}

func tideSpec() Spec {
	return Spec{
		Name:        NameTidePredictions,
		Description: "tides",
		Source:      "noaa",
		Params: map[string]Param{
			"station_id": {Type: TypeString},
			"latitude":   {Type: TypeNumber},
			"longitude":  {Type: TypeNumber},
			"date":       {Type: TypeString},
			"time":       {Type: TypeString},
			"interval":   {Type: TypeString, Enum: []string{IntervalHighLow, IntervalHourly}},
		},
		NewParams: func() any { return &TideParams{} },
		Invoker:   stubInvoker{},
	}
}

func weatherSpec() Spec {
	return Spec{
		Name:   NameWeather,
		Source: "nws",
		Params: map[string]Param{
			"latitude":  {Type: TypeNumber, Required: true},
			"longitude": {Type: TypeNumber, Required: true},
			"kind":      {Type: TypeString, Enum: []string{WeatherForecast, WeatherCurrent}},
		},
		NewParams: func() any { return &WeatherParams{} },
		Invoker:   stubInvoker{},
	}
}

func placesSpec() Spec {
	return Spec{
		Name:   NamePlaces,
		Source: "places",
		Params: map[string]Param{
			"query":         {Type: TypeString},
			"latitude":      {Type: TypeNumber},
			"longitude":     {Type: TypeNumber},
			"radius_meters": {Type: TypeInteger},
			"type":          {Type: TypeString},
			"open_now":      {Type: TypeBoolean},
		},
		NewParams: func() any { return &PlacesParams{} },
		Invoker:   stubInvoker{},
	}
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.Register(tideSpec()))
	require.NoError(t, r.Register(weatherSpec()))
	require.NoError(t, r.Register(placesSpec()))
	return r
}

func TestRegister_Duplicate_ReturnsDuplicateToolError(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(weatherSpec()))

	err := r.Register(weatherSpec())

	var dup *DuplicateToolError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, NameWeather, dup.Name)
	assert.ErrorIs(t, err, ErrDuplicateTool)
}

func TestRegister_InvalidSpec_Rejected(t *testing.T) {
	r := NewRegistry()

	noInvoker := weatherSpec()
	noInvoker.Invoker = nil
	assert.ErrorIs(t, r.Register(noInvoker), ErrInvalidSpec)

	badType := weatherSpec()
	badType.Params = map[string]Param{"x": {Type: "date"}}
	assert.ErrorIs(t, r.Register(badType), ErrInvalidSpec)

	assert.ErrorIs(t, r.Register(Spec{}), ErrInvalidSpec)
}

func TestResolve_Unknown_ReturnsUnknownToolError(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Resolve("get_surf")

	var unknown *UnknownToolError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "get_surf", unknown.Name)
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestDeclarations_SortedWithRequired(t *testing.T) {
	r := newTestRegistry(t)

	decls := r.Declarations()

	require.Len(t, decls, 3)
	assert.Equal(t, NameTidePredictions, decls[0].Name)
	assert.Equal(t, NameWeather, decls[1].Name)
	assert.Equal(t, NamePlaces, decls[2].Name)
	assert.Equal(t, []string{"latitude", "longitude"}, decls[1].Parameters.Required)
	assert.Equal(t, TypeObject, decls[1].Parameters.Type)
	assert.Equal(t, []string{WeatherForecast, WeatherCurrent}, decls[1].Parameters.Properties["kind"].Enum)
}

func TestValidate_ExactSchema_Accepted(t *testing.T) {
	r := newTestRegistry(t)

	va, err := r.Validate(NameWeather, map[string]any{
		"latitude":  34.0,
		"longitude": -118.5,
		"kind":      "Current",
	})

	require.NoError(t, err)
	assert.Equal(t, NameWeather, va.Tool)
	assert.Equal(t, "current", va.Args["kind"])
	params := va.Params.(*WeatherParams)
	assert.Equal(t, 34.0, params.Latitude)
	assert.Equal(t, -118.5, params.Longitude)
	assert.Equal(t, WeatherCurrent, params.Kind)
}

func TestValidate_Rejections(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name    string
		tool    string
		args    map[string]any
		problem string
	}{
		{"missing required", NameWeather, map[string]any{"latitude": 34.0}, `missing required parameter "longitude"`},
		{"unknown extra", NameWeather, map[string]any{"latitude": 34.0, "longitude": -118.0, "units": "metric"}, `unknown parameter "units"`},
		{"wrong type", NameWeather, map[string]any{"latitude": "34", "longitude": -118.0}, `parameter "latitude": expected number`},
		{"bad enum", NameWeather, map[string]any{"latitude": 34.0, "longitude": -118.0, "kind": "hourly"}, `parameter "kind": must be one of`},
		{"fractional integer", NamePlaces, map[string]any{"query": "tacos", "radius_meters": 12.5}, `parameter "radius_meters": expected integer`},
		{"cross-field station xor location", NameTidePredictions, map[string]any{}, ErrStationOrLocation.Error()},
		{"half a location", NamePlaces, map[string]any{"latitude": 34.0}, ErrIncompleteLocation.Error()},
		{"bad date", NameTidePredictions, map[string]any{"station_id": "9410840", "date": "tomorrow"}, "date must be YYYY-MM-DD"},
		{"out of range", NameWeather, map[string]any{"latitude": 134.0, "longitude": -118.0}, "latitude must be between"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			va, err := r.Validate(tt.tool, tt.args)

			assert.Nil(t, va)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tt.problem)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Validate(NameWeather, map[string]any{"lat": 1.0, "lon": 2.0})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Problems, 4)
}

func TestValidate_NilValueTreatedAsAbsent(t *testing.T) {
	r := newTestRegistry(t)

	va, err := r.Validate(NamePlaces, map[string]any{"query": "lifeguard", "latitude": nil, "longitude": nil})

	require.NoError(t, err)
	_, hasLat := va.Args["latitude"]
	assert.False(t, hasLat)
}

func TestValidate_IntegerFromJSONFloat(t *testing.T) {
	r := newTestRegistry(t)

	va, err := r.Validate(NamePlaces, map[string]any{
		"latitude":      34.01,
		"longitude":     -118.49,
		"radius_meters": float64(1500),
		"open_now":      true,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1500), va.Args["radius_meters"])
	params := va.Params.(*PlacesParams)
	assert.Equal(t, 1500, params.RadiusMeters)
	assert.True(t, params.OpenNow)
	require.True(t, params.HasLocation())
	assert.Equal(t, 34.01, *params.Latitude)
}

func TestValidate_SquashedStationRef(t *testing.T) {
	r := newTestRegistry(t)

	va, err := r.Validate(NameTidePredictions, map[string]any{
		"station_id": " 9410840 ",
		"date":       "2025-07-04",
		"time":       "09:00",
	})

	require.NoError(t, err)
	params := va.Params.(*TideParams)
	assert.Equal(t, "9410840", params.StationID)
	assert.Equal(t, "2025-07-04", params.Date)
	assert.Equal(t, "09:00", params.Time)
	assert.False(t, params.HasLocation())
}

func TestValidate_UnknownTool(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Validate("get_surf", map[string]any{})

	assert.True(t, errors.Is(err, ErrUnknownTool))
}

func TestValidate_ConcurrentReads_NoRace(t *testing.T) {
	r := newTestRegistry(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = r.Validate(NameWeather, map[string]any{"latitude": float64(i), "longitude": 1.0})
			_ = r.Declarations()
		}(i)
	}
	wg.Wait()
}
