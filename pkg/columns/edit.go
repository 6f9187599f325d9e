// pkg/columns/edit.go
package columns

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

func (r *Registry) entityIndex(name string) (int, error) {
	for i, e := range r.Entities {
		if e.Name == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("unknown entity %q", name)
}

// AddColumn appends c to entity, creating the entity when it is new. The
// registry is revalidated; on error it is left unchanged.
func (r *Registry) AddColumn(entity string, c Column) error {
	next := r.clone()
	i, err := next.entityIndex(entity)
	if err != nil {
		next.Entities = append(next.Entities, Entity{Name: entity})
		i = len(next.Entities) - 1
	}
	next.Entities[i].Columns = append(next.Entities[i].Columns, c)
	if err := next.validate(); err != nil {
		return err
	}
	*r = *next
	return nil
}

// UpdateColumn sets one field of an existing column.
func (r *Registry) UpdateColumn(entity, key, field, value string) error {
	next := r.clone()
	i, err := next.entityIndex(entity)
	if err != nil {
		return err
	}

	cols := next.Entities[i].Columns
	j := -1
	for k := range cols {
		if cols[k].Key == key {
			j = k
			break
		}
	}
	if j < 0 {
		return fmt.Errorf("%s has no column %q", entity, key)
	}

	c := &cols[j]
	switch field {
	case "header":
		c.Header = value
	case "kind":
		c.Kind = value
	case "searchable", "sortable", "default", "derived":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", field, err)
		}
		switch field {
		case "searchable":
			c.Searchable = b
		case "sortable":
			c.Sortable = b
		case "default":
			c.Default = b
		case "derived":
			c.Derived = b
		}
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	if err := next.validate(); err != nil {
		return err
	}
	*r = *next
	return nil
}

// Validate checks the registry the way Parse does.
func (r *Registry) Validate() error {
	return r.validate()
}

// Save writes the registry as indented JSON, creating the directory.
func (r *Registry) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func (r *Registry) clone() *Registry {
	out := &Registry{Version: r.Version, Entities: make([]Entity, len(r.Entities))}
	for i, e := range r.Entities {
		out.Entities[i] = Entity{Name: e.Name, Columns: append([]Column(nil), e.Columns...)}
	}
	return out
}
