// Package keys derives correlation key sets: one value per recognised key
// type, carrying forward stable values and minting fresh ones where required.
package keys

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"mock-response-service/internal/common/config"

	"github.com/google/uuid"
)

// Format selects how a key value is minted.
type Format string

const (
	FormatUUID     Format = "uuid"
	FormatSequence Format = "sequence"
)

// KeySet maps key type name to value.
type KeySet map[string]string

// KeyType describes one correlation key.
type KeyType struct {
	Name       string
	Format     Format
	Regenerate bool  // mint a fresh value on every derivation
	Start      int64 // first value of a sequence
}

// Schema is the ordered set of key types a Generator produces.
type Schema []KeyType

// DefaultSchema: userId and sessionId change per generation, tenantId and deviceId are stable.
func DefaultSchema() Schema {
	return Schema{
		{Name: "userId", Format: FormatSequence, Regenerate: true, Start: 1000},
		{Name: "sessionId", Format: FormatUUID, Regenerate: true},
		{Name: "tenantId", Format: FormatUUID},
		{Name: "deviceId", Format: FormatUUID},
	}
}

// SchemaFromConfig converts the configured schema, falling back to DefaultSchema.
func SchemaFromConfig(cfg config.KeysConfig) Schema {
	if len(cfg.Schema) == 0 {
		return DefaultSchema()
	}
	out := make(Schema, 0, len(cfg.Schema))
	for _, kt := range cfg.Schema {
		out = append(out, KeyType{
			Name:       kt.Name,
			Format:     Format(kt.Format),
			Regenerate: kt.Regenerate,
			Start:      kt.Start,
		})
	}
	return out
}

// Names lists the key type names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, kt := range s {
		names[i] = kt.Name
	}
	return names
}

// Generator is safe for concurrent use.
type Generator struct {
	schema    Schema
	sequences map[string]*atomic.Int64 // last value handed out or observed
}

func NewGenerator(schema Schema) (*Generator, error) {
	if len(schema) == 0 {
		return nil, fmt.Errorf("key schema is empty")
	}
	g := &Generator{schema: schema, sequences: make(map[string]*atomic.Int64)}
	seen := make(map[string]bool, len(schema))
	for _, kt := range schema {
		if kt.Name == "" {
			return nil, fmt.Errorf("key type name is empty")
		}
		if seen[kt.Name] {
			return nil, fmt.Errorf("duplicate key type %q", kt.Name)
		}
		seen[kt.Name] = true
		switch kt.Format {
		case FormatUUID:
		case FormatSequence:
			counter := &atomic.Int64{}
			counter.Store(kt.Start - 1)
			g.sequences[kt.Name] = counter
		default:
			return nil, fmt.Errorf("key type %q has unknown format %q", kt.Name, kt.Format)
		}
	}
	return g, nil
}

func (g *Generator) Schema() Schema {
	return g.schema
}

// Derive returns a complete KeySet. Values in existing are kept for key types
// that do not regenerate; every other key type gets a freshly minted value.
// Unrecognised entries in existing are dropped. existing is not modified.
func (g *Generator) Derive(existing KeySet) KeySet {
	for _, kt := range g.schema {
		if kt.Format == FormatSequence {
			g.observe(kt.Name, existing[kt.Name])
		}
	}

	out := make(KeySet, len(g.schema))
	for _, kt := range g.schema {
		if v, ok := existing[kt.Name]; ok && v != "" && !kt.Regenerate {
			out[kt.Name] = v
			continue
		}
		out[kt.Name] = g.mint(kt)
	}
	return out
}

func (g *Generator) mint(kt KeyType) string {
	if kt.Format == FormatSequence {
		return strconv.FormatInt(g.sequences[kt.Name].Add(1), 10)
	}
	return uuid.NewString()
}

// observe advances the sequence past a numeric value seen in stored data so
// minted values never collide with it.
func (g *Generator) observe(name, value string) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return
	}
	counter := g.sequences[name]
	for {
		cur := counter.Load()
		if n <= cur || counter.CompareAndSwap(cur, n) {
			return
		}
	}
}

// FromMap converts a decoded JSON object (e.g. a stored uniqueKeys field) to a KeySet.
func FromMap(m interface{}) KeySet {
	out := KeySet{}
	switch v := m.(type) {
	case KeySet:
		for k, s := range v {
			out[k] = s
		}
	case map[string]string:
		for k, s := range v {
			out[k] = s
		}
	case map[string]interface{}:
		for k, raw := range v {
			switch s := raw.(type) {
			case string:
				out[k] = s
			case nil:
			default:
				out[k] = fmt.Sprint(s)
			}
		}
	}
	return out
}

// ToMap returns a map[string]interface{} copy for rendering contexts and storage.
func (ks KeySet) ToMap() map[string]interface{} {
	out := make(map[string]interface{}, len(ks))
	for k, v := range ks {
		out[k] = v
	}
	return out
}
