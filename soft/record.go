// Package soft parses GEO SOFT (Simple Omnibus Format in Text) files into raw,
// ordered records: one per ^SECTION, each holding its !attributes, its
// #column descriptions and, for samples and platforms, its data table.
package soft

import "strings"

// Section kinds found in GEO family files. Other kinds are preserved verbatim.
const (
	KindDatabase = "DATABASE"
	KindSeries   = "SERIES"
	KindSample   = "SAMPLE"
	KindPlatform = "PLATFORM"
)

// Attributes is a multi-valued map that remembers first-seen key order.
type Attributes struct {
	keys   []string
	values map[string][]string
}

func (a *Attributes) Add(key, value string) {
	if a.values == nil {
		a.values = make(map[string][]string)
	}
	if _, exists := a.values[key]; !exists {
		a.keys = append(a.keys, key)
	}
	a.values[key] = append(a.values[key], value)
}

// Get returns a copy of every value recorded for key, in file order.
func (a Attributes) Get(key string) []string {
	return append([]string(nil), a.values[key]...)
}

// First returns the first value recorded for key, or "".
func (a Attributes) First(key string) string {
	if v := a.values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Keys returns the attribute names in the order they were first seen.
func (a Attributes) Keys() []string {
	return append([]string(nil), a.keys...)
}

func (a Attributes) Len() int { return len(a.keys) }

// Clone returns a deep copy that shares no storage with a.
func (a Attributes) Clone() Attributes {
	out := Attributes{keys: append([]string(nil), a.keys...)}
	if a.values != nil {
		out.values = make(map[string][]string, len(a.values))
		for k, v := range a.values {
			out.values[k] = append([]string(nil), v...)
		}
	}

	return out
}

// Column is a #name = description line.
type Column struct {
	Name        string
	Description string
}

// Table is the block between !<kind>_table_begin and !<kind>_table_end. The
// first line of the block is the header; every row has len(Header) cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// Record is one SOFT section.
type Record struct {
	Kind       string
	ID         string
	Line       int
	Attributes Attributes
	Columns    []Column
	Table      *Table
}

// Is reports whether the record's kind matches, ignoring case.
func (r Record) Is(kind string) bool {
	return strings.EqualFold(r.Kind, kind)
}
