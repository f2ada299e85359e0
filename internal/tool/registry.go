package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Invoker executes a validated tool call. Implementations must be stateless,
// safe for concurrent use, honour the timeout and report every failure as a
// failed Result instead of an error.
type Invoker interface {
	Invoke(ctx context.Context, args *ValidatedArgs, timeout time.Duration) Result
}

// Spec describes a callable tool. Specs are immutable once registered.
type Spec struct {
	Name        string
	Description string

	// Source names the external service behind the tool. Tools sharing a
	// Source share one rate-limit bucket.
	Source string

	Params map[string]Param

	// NewParams returns a pointer to a zero parameter struct
	// (e.g. &TideParams{}) that validated arguments are decoded into.
	NewParams func() any

	Invoker Invoker
}

// Declaration converts the spec to the schema sent to the model.
func (s Spec) Declaration() Declaration {
	schema := &Schema{
		Type:       TypeObject,
		Properties: make(map[string]*Schema, len(s.Params)),
	}
	for _, name := range sortedKeys(s.Params) {
		p := s.Params[name]
		schema.Properties[name] = &Schema{
			Type:        p.Type,
			Description: p.Description,
			Enum:        p.Enum,
		}
		if p.Required {
			schema.Required = append(schema.Required, name)
		}
	}
	return Declaration{
		Name:        s.Name,
		Description: s.Description,
		Parameters:  schema,
	}
}

// ValidatedArgs is a tool call whose arguments passed validation.
type ValidatedArgs struct {
	Tool string

	// Args holds the normalized, declared arguments only. Cache keys are
	// derived from it.
	Args map[string]any

	// Params is the typed parameter struct returned by Spec.NewParams.
	Params any
}

// Registry is the catalog of callable tools.
// All Register calls must happen before the registry is shared; afterwards
// it is read-only and safe for concurrent use without locking.
type Registry struct {
	specs map[string]Spec
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]Spec)}
}

// Register adds a tool. Registering an existing name fails with
// *DuplicateToolError.
func (r *Registry) Register(spec Spec) error {
	if err := checkSpec(spec); err != nil {
		return err
	}
	if _, exists := r.specs[spec.Name]; exists {
		return &DuplicateToolError{Name: spec.Name}
	}
	params := make(map[string]Param, len(spec.Params))
	for k, v := range spec.Params {
		params[k] = v
	}
	spec.Params = params
	r.specs[spec.Name] = spec
	return nil
}

// Resolve returns the spec registered under name, or *UnknownToolError.
func (r *Registry) Resolve(name string) (Spec, error) {
	spec, ok := r.specs[name]
	if !ok {
		return Spec{}, &UnknownToolError{Name: name}
	}
	return spec, nil
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	return sortedKeys(r.specs)
}

// Declarations returns all tool schemas for the LLM, sorted by name.
func (r *Registry) Declarations() []Declaration {
	decls := make([]Declaration, 0, len(r.specs))
	for _, name := range sortedKeys(r.specs) {
		decls = append(decls, r.specs[name].Declaration())
	}
	return decls
}

// Validate checks args against the declared parameters of the named tool.
// It fails closed: missing required parameters, wrongly typed values and
// undeclared extra parameters are all rejected with *ValidationError.
// A nil value is treated as absent.
func (r *Registry) Validate(name string, args map[string]any) (*ValidatedArgs, error) {
	spec, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}

	var problems []string
	normalized := make(map[string]any, len(args))
	present := make(map[string]bool, len(args))

	for _, key := range sortedKeys(args) {
		value := args[key]
		p, declared := spec.Params[key]
		if !declared {
			problems = append(problems, fmt.Sprintf("unknown parameter %q", key))
			continue
		}
		if value == nil {
			continue
		}
		present[key] = true
		v, err := coerce(p, value)
		if err != nil {
			problems = append(problems, fmt.Sprintf("parameter %q: %v", key, err))
			continue
		}
		normalized[key] = v
	}

	for _, key := range sortedKeys(spec.Params) {
		if spec.Params[key].Required && !present[key] {
			problems = append(problems, fmt.Sprintf("missing required parameter %q", key))
		}
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Tool: name, Problems: problems}
	}

	params := spec.NewParams()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      params,
		ErrorUnused: true,
		TagName:     "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("tool %q: building decoder: %w", name, err)
	}
	if err := decoder.Decode(normalized); err != nil {
		return nil, &ValidationError{Tool: name, Problems: []string{err.Error()}}
	}

	if v, ok := params.(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, &ValidationError{Tool: name, Problems: []string{err.Error()}}
		}
	}

	return &ValidatedArgs{
		Tool:   name,
		Args:   normalized,
		Params: params,
	}, nil
}

func checkSpec(spec Spec) error {
	switch {
	case strings.TrimSpace(spec.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidSpec)
	case spec.NewParams == nil:
		return fmt.Errorf("%w: %s: NewParams is required", ErrInvalidSpec, spec.Name)
	case spec.Invoker == nil:
		return fmt.Errorf("%w: %s: Invoker is required", ErrInvalidSpec, spec.Name)
	}
	for name, p := range spec.Params {
		switch p.Type {
		case TypeString, TypeNumber, TypeInteger, TypeBoolean, TypeArray, TypeObject:
		default:
			return fmt.Errorf("%w: %s: parameter %q has unsupported type %q", ErrInvalidSpec, spec.Name, name, p.Type)
		}
	}
	return nil
}

// coerce checks value against p and returns its normalized form.
func coerce(p Param, value any) (any, error) {
	switch p.Type {
	case TypeString:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", value)
		}
		s = strings.TrimSpace(s)
		if len(p.Enum) == 0 {
			return s, nil
		}
		for _, allowed := range p.Enum {
			if strings.EqualFold(s, allowed) {
				return allowed, nil
			}
		}
		return nil, fmt.Errorf("must be one of %v, got %q", p.Enum, s)

	case TypeNumber:
		f, ok := toFloat(value)
		if !ok {
			return nil, fmt.Errorf("expected number, got %T", value)
		}
		return f, nil

	case TypeInteger:
		f, ok := toFloat(value)
		if !ok {
			return nil, fmt.Errorf("expected integer, got %T", value)
		}
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("expected integer, got %v", f)
		}
		return int64(f), nil

	case TypeBoolean:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("expected boolean, got %T", value)
		}
		return b, nil

	case TypeArray:
		a, ok := value.([]any)
		if !ok {
			return nil, fmt.Errorf("expected array, got %T", value)
		}
		return a, nil

	case TypeObject:
		m, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected object, got %T", value)
		}
		return m, nil
	}
	return nil, fmt.Errorf("unsupported parameter type %q", p.Type)
}

func toFloat(value any) (float64, bool) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
