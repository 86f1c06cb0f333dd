package geo

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/BenLubar/memoize"
	"github.com/carbocation/geofetch/soft"
	"gopkg.in/guregu/null.v3"
)

// Series commonly share a title pattern, so compiled patterns are reused.
var compileTitlePattern = memoize.Memoize(regexp.Compile).(func(string) (*regexp.Regexp, error))

// Sample is a GEO sample (GSM). It belongs to exactly one Series.
type Sample struct {
	id    string
	title string
	attrs soft.Attributes

	charKeys []string
	chars    map[string]string

	columns []soft.Column
	header  []string
	rows    [][]string
	index   map[string]int

	platformID string
	platform   *Platform

	subject   string
	replicate string
}

func buildSample(rec soft.Record, titleRx *regexp.Regexp) *Sample {
	s := &Sample{
		id:         rec.ID,
		title:      rec.Attributes.First("title"),
		attrs:      rec.Attributes.Clone(),
		chars:      make(map[string]string),
		columns:    rec.Columns,
		index:      make(map[string]int),
		platformID: rec.Attributes.First("platform_id"),
	}

	for _, key := range rec.Attributes.Keys() {
		if !strings.HasPrefix(key, "characteristics_") {
			continue
		}
		for _, v := range rec.Attributes.Get(key) {
			name, value, found := strings.Cut(v, ":")
			if !found {
				name, value = key, v
			}
			s.addCharacteristic(strings.TrimSpace(name), strings.TrimSpace(value))
		}
	}

	if rec.Table != nil && rec.Table.Header != nil {
		s.header = rec.Table.Header
		s.rows = rec.Table.Rows
		for i, row := range s.rows {
			if _, dup := s.index[row[0]]; !dup {
				s.index[row[0]] = i
			}
		}
	}

	s.subject = s.title
	if titleRx != nil {
		if m := titleRx.FindStringSubmatch(s.title); m != nil {
			if len(m) > 1 {
				s.subject = m[1]
			}
			if len(m) > 2 {
				s.replicate = m[2]
			}
		}
	}

	return s
}

// Keys are unique; a repeated key keeps its first position and gains the new
// value after a "; ".
func (s *Sample) addCharacteristic(name, value string) {
	if old, exists := s.chars[name]; exists {
		if value != "" && value != old {
			s.chars[name] = old + "; " + value
		}
		return
	}
	s.charKeys = append(s.charKeys, name)
	s.chars[name] = value
}

func (s *Sample) ID() string { return s.id }

func (s *Sample) Title() string { return s.title }

func (s *Sample) Attributes() soft.Attributes { return s.attrs.Clone() }

// Subject is the part of the title that identifies the biological source,
// per the series title pattern. Replicates of one subject share it.
func (s *Sample) Subject() string { return s.subject }

// Replicate is the replicate marker captured from the title, or "".
func (s *Sample) Replicate() string { return s.replicate }

// Characteristics returns a copy of the name -> value map.
func (s *Sample) Characteristics() map[string]string {
	out := make(map[string]string, len(s.chars))
	for k, v := range s.chars {
		out[k] = v
	}
	return out
}

// CharacteristicNames returns characteristic names in the order first seen.
func (s *Sample) CharacteristicNames() []string {
	return append([]string(nil), s.charKeys...)
}

func (s *Sample) Characteristic(name string) (string, bool) {
	v, ok := s.chars[name]
	return v, ok
}

// PlatformID is the platform accession the sample declares.
func (s *Sample) PlatformID() string { return s.platformID }

// Platform is nil only for samples built on their own with BuildSample.
func (s *Sample) Platform() *Platform { return s.platform }

func (s *Sample) Columns() []soft.Column {
	return append([]soft.Column(nil), s.columns...)
}

// Header returns the value table's column titles; the first is the probe ID.
func (s *Sample) Header() []string {
	return append([]string(nil), s.header...)
}

// Rows returns the raw value table. The slice is shared and must not be
// modified.
func (s *Sample) Rows() [][]string { return s.rows }

func (s *Sample) Len() int { return len(s.rows) }

func (s *Sample) columnIndex(column string) int {
	for i, h := range s.header {
		if h == column {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the value table carries column. The probe ID
// column counts.
func (s *Sample) HasColumn(column string) bool {
	return s.columnIndex(column) >= 0
}

// Value returns the raw cell for probe in column.
func (s *Sample) Value(probe, column string) (string, bool) {
	row, ok := s.index[probe]
	if !ok {
		return "", false
	}
	col := s.columnIndex(column)
	if col < 0 {
		return "", false
	}
	return s.rows[row][col], true
}

// Float parses the cell for probe in column. Missing cells and GEO's textual
// placeholders ("null", "NA", "") come back invalid.
func (s *Sample) Float(probe, column string) null.Float {
	v, ok := s.Value(probe, column)
	if !ok {
		return null.Float{}
	}
	return parseFloat(v)
}

func parseFloat(v string) null.Float {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) {
		return null.Float{}
	}
	return null.FloatFrom(f)
}
