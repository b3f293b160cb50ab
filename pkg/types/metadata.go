package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Metadata is the free-form string map the processor attaches to objects,
// persisted as a JSON document.
type Metadata map[string]string

// Value marshals the map into JSON text.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	buf, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

// Scan decodes the stored JSON document into the map.
func (m *Metadata) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("metadata: unsupported scan type %T", value)
	}

	result := make(Metadata)
	if len(raw) == 0 {
		*m = result
		return nil
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*m = result
	return nil
}

// Clone returns an independent copy.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
