// pkg/columns/registry.go
package columns

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

//go:embed columns.json
var defaultRegistry []byte

var (
	defaultOnce sync.Once
	defaultReg  *Registry
	defaultErr  error
)

// Load reads a registry from a JSON file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a registry document.
func Parse(data []byte) (*Registry, error) {
	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, err
	}
	if err := reg.validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Default returns the built-in registry shipped with the console.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg, defaultErr = Parse(defaultRegistry)
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("columns: embedded registry is invalid: %v", defaultErr))
	}
	return defaultReg
}

func (r *Registry) validate() error {
	seenEntity := make(map[string]bool, len(r.Entities))
	for _, e := range r.Entities {
		if e.Name == "" {
			return fmt.Errorf("entity name is required")
		}
		if seenEntity[e.Name] {
			return fmt.Errorf("duplicate entity %q", e.Name)
		}
		seenEntity[e.Name] = true

		seenKey := make(map[string]bool, len(e.Columns))
		for _, c := range e.Columns {
			if c.Key == "" {
				return fmt.Errorf("%s: column key is required", e.Name)
			}
			if seenKey[c.Key] {
				return fmt.Errorf("%s: duplicate column %q", e.Name, c.Key)
			}
			seenKey[c.Key] = true
			switch c.Kind {
			case KindString, KindNumber, KindDate, KindTime:
			default:
				return fmt.Errorf("%s.%s: unknown kind %q", e.Name, c.Key, c.Kind)
			}
		}
	}
	return nil
}

// Entity looks up the column set of one list page.
func (r *Registry) Entity(name string) (Entity, error) {
	for _, e := range r.Entities {
		if e.Name == name {
			return e, nil
		}
	}
	return Entity{}, fmt.Errorf("unknown entity %q", name)
}

func (e Entity) Column(key string) (Column, bool) {
	for _, c := range e.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column{}, false
}

// Header returns the human-readable header for key, or key itself.
func (e Entity) Header(key string) string {
	if c, ok := e.Column(key); ok && c.Header != "" {
		return c.Header
	}
	return key
}

// Select resolves keys to columns, keeping the caller's order.
func (e Entity) Select(keys []string) ([]Column, error) {
	out := make([]Column, 0, len(keys))
	for _, k := range keys {
		c, ok := e.Column(k)
		if !ok {
			return nil, fmt.Errorf("%s has no column %q", e.Name, k)
		}
		out = append(out, c)
	}
	return out, nil
}

// DefaultKeys lists the columns visible before the user toggles any.
func (e Entity) DefaultKeys() []string {
	var keys []string
	for _, c := range e.Columns {
		if c.Default {
			keys = append(keys, c.Key)
		}
	}
	return keys
}

// Keys lists every column key in registry order.
func (e Entity) Keys() []string {
	keys := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		keys[i] = c.Key
	}
	return keys
}

// SearchableKeys lists the columns the client-side search matches against.
func (e Entity) SearchableKeys() []string {
	var keys []string
	for _, c := range e.Columns {
		if c.Searchable {
			keys = append(keys, c.Key)
		}
	}
	return keys
}
