// Package template renders payload templates: nested maps, slices and scalars
// whose strings may carry synthetic-data function placeholders and variable
// placeholders.
package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"mock-response-service/internal/common/logger"
	"mock-response-service/internal/common/metrics"
	"mock-response-service/internal/synthetic"

	"github.com/spf13/cast"
)

// Unresolved placeholder reasons, used as the metric label.
const (
	ReasonNotFound    = "not_found"
	ReasonNamespace   = "namespace"
	ReasonInvalidArgs = "invalid_args"
	ReasonError       = "error"
	ReasonPanic       = "panic"
)

// Renderer is stateless apart from the read-only registry and is safe for concurrent use.
type Renderer struct {
	registry *synthetic.Registry
	logger   logger.Logger
}

func NewRenderer(registry *synthetic.Registry, log logger.Logger) *Renderer {
	if registry == nil {
		registry = synthetic.NewRegistry()
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Renderer{
		registry: registry,
		logger:   log.WithFields(map[string]interface{}{"component": "template"}),
	}
}

// Render returns a new tree with every string leaf resolved. The input is never mutated.
func (r *Renderer) Render(tmpl interface{}, ctx map[string]interface{}) interface{} {
	switch v := tmpl.(type) {
	case string:
		return r.RenderString(v, ctx)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, child := range v {
			out[k] = r.Render(child, ctx)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, child := range v {
			out[fmt.Sprint(k)] = r.Render(child, ctx)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, child := range v {
			out[i] = r.Render(child, ctx)
		}
		return out
	case []string:
		out := make([]interface{}, len(v))
		for i, child := range v {
			out[i] = r.RenderString(child, ctx)
		}
		return out
	default:
		return v
	}
}

// RenderString resolves function placeholders against the registry and
// variable placeholders against ctx. Output of one placeholder is never
// rescanned.
func (r *Renderer) RenderString(s string, ctx map[string]interface{}) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	var b strings.Builder
	for _, seg := range Parse(s) {
		switch seg.Kind {
		case Literal:
			b.WriteString(seg.Raw)
		case FunctionCall:
			b.WriteString(r.callFunction(seg))
		case Variable:
			if v, ok := Lookup(ctx, seg.Name); ok {
				b.WriteString(Stringify(v))
			}
		}
	}
	return b.String()
}

// ApplyFlatTemplate substitutes variable placeholders in the top-level string
// values of fields from props. Function placeholders are left untouched and
// non-string values pass through.
func ApplyFlatTemplate(fields, props map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		s, ok := v.(string)
		if !ok {
			out[k] = v
			continue
		}
		var b strings.Builder
		for _, seg := range Parse(s) {
			switch seg.Kind {
			case Variable:
				if pv, ok := props[seg.Name]; ok {
					b.WriteString(Stringify(pv))
				}
			default:
				b.WriteString(seg.Raw)
			}
		}
		out[k] = b.String()
	}
	return out
}

func (r *Renderer) callFunction(seg Segment) (out string) {
	fn, err := r.registry.Lookup(seg.Path)
	if err != nil {
		reason := ReasonNotFound
		if errors.Is(err, synthetic.ErrNotInvocable) {
			reason = ReasonNamespace
		}
		return r.unresolved(seg, reason, err)
	}

	var args []interface{}
	if seg.Args != "" {
		if err := json.Unmarshal([]byte("["+seg.Args+"]"), &args); err != nil {
			return r.unresolved(seg, ReasonInvalidArgs, err)
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			out = r.unresolved(seg, ReasonPanic, fmt.Errorf("%v", rec))
		}
	}()

	v, err := fn(args)
	if err != nil {
		reason := ReasonError
		if errors.Is(err, synthetic.ErrInvalidArgs) {
			reason = ReasonInvalidArgs
		}
		return r.unresolved(seg, reason, err)
	}
	return Stringify(v)
}

func (r *Renderer) unresolved(seg Segment, reason string, err error) string {
	metrics.PlaceholdersUnresolved.WithLabelValues(reason).Inc()
	r.logger.Warn("placeholder left unresolved", map[string]interface{}{
		"placeholder": seg.Raw,
		"path":        seg.Path,
		"reason":      reason,
		"error":       err,
	})
	return seg.Raw
}

// Lookup resolves name in ctx: the exact key first, then a dotted walk
// through nested maps.
func Lookup(ctx map[string]interface{}, name string) (interface{}, bool) {
	if ctx == nil {
		return nil, false
	}
	if v, ok := ctx[name]; ok {
		return v, true
	}
	if !strings.Contains(name, ".") {
		return nil, false
	}

	var current interface{} = ctx
	for _, part := range strings.Split(name, ".") {
		next, ok := mapIndex(current, part)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func mapIndex(m interface{}, key string) (interface{}, bool) {
	switch mm := m.(type) {
	case map[string]interface{}:
		v, ok := mm[key]
		return v, ok
	case map[string]string:
		v, ok := mm[key]
		return v, ok
	}
	rv := reflect.ValueOf(m)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	v := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
	if !v.IsValid() {
		return nil, false
	}
	return v.Interface(), true
}

// Stringify converts a resolved value to placeholder text: strings verbatim,
// nil as empty, scalars via cast, composites as compact JSON.
func Stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	case map[string]interface{}, []interface{}, map[string]string, []string:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
