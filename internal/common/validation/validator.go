// internal/common/validation/validator.go
package validation

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	apperrors "fieldsales-console/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Payload schemas shipped with the console.
const (
	SchemaStore    = "store"
	SchemaVisit    = "visit"
	SchemaTask     = "task"
	SchemaExpense  = "expense"
	SchemaEmployee = "employee"
	SchemaTeam     = "team"
	SchemaNote     = "note"
)

// Validator checks create payloads against JSON schemas before they are
// sent to the backend.
type Validator struct {
	mu      sync.RWMutex
	schemas map[string]*gojsonschema.Schema
}

// New compiles every embedded schema.
func New() (*Validator, error) {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("read embedded schemas: %w", err)
	}

	v := &Validator{schemas: make(map[string]*gojsonschema.Schema, len(entries))}
	for _, e := range entries {
		data, err := schemaFS.ReadFile(path.Join("schemas", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", e.Name(), err)
		}
		if err := v.Register(strings.TrimSuffix(e.Name(), ".json"), data); err != nil {
			return nil, err
		}
	}
	return v, nil
}

var (
	defaultOnce sync.Once
	defaultV    *Validator
	defaultErr  error
)

// Default returns the shared validator over the embedded schemas.
func Default() *Validator {
	defaultOnce.Do(func() {
		defaultV, defaultErr = New()
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("validation: embedded schemas are invalid: %v", defaultErr))
	}
	return defaultV
}

// Register compiles and adds (or replaces) a named schema.
func (v *Validator) Register(name string, schema []byte) error {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schema))
	if err != nil {
		return fmt.Errorf("compile schema %s: %w", name, err)
	}
	v.mu.Lock()
	v.schemas[name] = compiled
	v.mu.Unlock()
	return nil
}

// Validate checks payload against the named schema. Violations come back as
// a VALIDATION_FAILED error whose details map field paths to messages.
func (v *Validator) Validate(name string, payload interface{}) error {
	v.mu.RLock()
	schema, ok := v.schemas[name]
	v.mu.RUnlock()
	if !ok {
		return apperrors.NewInternalError(fmt.Errorf("no schema named %q", name))
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(payload))
	if err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("%s payload is not valid JSON: %v", name, err), nil)
	}
	if result.Valid() {
		return nil
	}

	fields := make(map[string]string, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if desc.Type() == "required" {
			if prop, ok := desc.Details()["property"].(string); ok {
				field = prop
			}
		}
		if _, seen := fields[field]; !seen {
			fields[field] = desc.Description()
		}
	}
	return apperrors.NewValidationError(summary(name, fields), fields)
}

func summary(name string, fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("invalid %s: %s", name, strings.Join(keys, ", "))
}
