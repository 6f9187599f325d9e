// pkg/columns/schema.go
package columns

// Column kinds drive comparison and cell formatting.
const (
	KindString = "string"
	KindNumber = "number"
	KindDate   = "date"
	KindTime   = "time"
)

type Registry struct {
	Version  string   `json:"version"`
	Entities []Entity `json:"entities"`
}

type Entity struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

type Column struct {
	Key        string `json:"key"`
	Header     string `json:"header"`
	Kind       string `json:"kind"`
	Searchable bool   `json:"searchable,omitempty"`
	Sortable   bool   `json:"sortable,omitempty"`
	Default    bool   `json:"default,omitempty"`
	Derived    bool   `json:"derived,omitempty"`
}
