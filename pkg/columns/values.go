// pkg/columns/values.go
package columns

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Row holds the display value of every top-level field of one record, keyed
// by its JSON name. Nested objects and arrays are left out.
type Row map[string]string

// Flatten converts a JSON-tagged record into a Row.
func Flatten(v interface{}) (Row, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var fields map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}

	row := make(Row, len(fields))
	for k, raw := range fields {
		if s, ok := Format(raw); ok {
			row[k] = s
		}
	}
	return row, nil
}

// Format renders a decoded JSON scalar. ok is false for objects and arrays.
func Format(v interface{}) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// Project returns the values of keys in order. Missing keys yield "".
func (r Row) Project(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = r[k]
	}
	return out
}
