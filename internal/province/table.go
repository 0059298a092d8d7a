package province

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// LoadTable reads a YAML table file and builds a validated Mapper from it.
// Sections omitted from the file fall back to the built-in tables, so a file
// may override only the mapping or only the pending list.
func LoadTable(path string) (*Mapper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "province: read table %s", path)
	}
	t, err := ParseTable(data)
	if err != nil {
		return nil, err
	}
	m, err := NewMapper(t)
	if err != nil {
		return nil, eris.Wrapf(err, "province: table %s", path)
	}
	return m, nil
}

// ParseTable decodes a YAML table, filling omitted sections with defaults.
func ParseTable(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, eris.Wrap(err, "province: parse table")
	}

	def := DefaultTable()
	if t.Mapping == nil {
		t.Mapping = def.Mapping
	}
	if t.Pending == nil {
		t.Pending = def.Pending
	}
	if t.Regions == nil {
		t.Regions = def.Regions
	}
	if t.AggregateMarker == "" {
		t.AggregateMarker = def.AggregateMarker
	}
	return t, nil
}

// MarshalTable encodes t as YAML, suitable as a starting point for a table
// override file.
func MarshalTable(t Table) ([]byte, error) {
	data, err := yaml.Marshal(t)
	if err != nil {
		return nil, eris.Wrap(err, "province: marshal table")
	}
	return data, nil
}

// Load returns the mapper for a configured table file, or the built-in
// mapper when path is empty.
func Load(path string) (*Mapper, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadTable(path)
}
