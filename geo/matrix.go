package geo

import (
	"fmt"

	"gopkg.in/guregu/null.v3"
)

// DefaultValueColumn is the sample table column GEO uses for the primary
// measurement.
const DefaultValueColumn = "VALUE"

// Matrix is a probe x sample view of one value column across a series.
type Matrix struct {
	Column    string
	SampleIDs []string
	ProbeIDs  []string

	// GeneNames is parallel to ProbeIDs. It is nil when the platform has no
	// confidently mapped gene column.
	GeneNames []string

	// Values[i][j] is the cell for ProbeIDs[i] in SampleIDs[j]; "" when the
	// sample has no row for that probe.
	Values [][]string
}

// Matrix assembles column (DefaultValueColumn when empty) from every sample.
// Probes follow platform order; probes that only appear in sample tables are
// appended in first-seen order.
func (s *Series) Matrix(column string) (*Matrix, error) {
	if column == "" {
		column = DefaultValueColumn
	}
	if len(s.platforms) > 1 {
		return nil, ErrMultiplePlatforms
	}

	m := &Matrix{Column: column}

	var withColumn int
	for _, smp := range s.samples {
		m.SampleIDs = append(m.SampleIDs, smp.id)
		if smp.HasColumn(column) {
			withColumn++
		}
	}
	if len(s.samples) > 0 && withColumn == 0 {
		return nil, fmt.Errorf("series %s: no sample carries a %s column", s.id, column)
	}

	seen := make(map[string]struct{})
	platform := s.Platform()
	if platform != nil {
		for _, probe := range platform.probeIDs {
			seen[probe] = struct{}{}
			m.ProbeIDs = append(m.ProbeIDs, probe)
		}
	}
	for _, smp := range s.samples {
		for _, row := range smp.rows {
			if _, ok := seen[row[0]]; !ok {
				seen[row[0]] = struct{}{}
				m.ProbeIDs = append(m.ProbeIDs, row[0])
			}
		}
	}

	m.Values = make([][]string, len(m.ProbeIDs))
	for i, probe := range m.ProbeIDs {
		m.Values[i] = make([]string, len(s.samples))
		for j, smp := range s.samples {
			if v, ok := smp.Value(probe, column); ok {
				m.Values[i][j] = v
			}
		}
	}

	if platform != nil && platform.SpecialColumn(GeneSymbol) != "" {
		m.GeneNames = make([]string, len(m.ProbeIDs))
		for i, probe := range m.ProbeIDs {
			m.GeneNames[i], _ = platform.GeneName(probe)
		}
	}

	return m, nil
}

// Float parses cell (i, j).
func (m *Matrix) Float(i, j int) null.Float {
	return parseFloat(m.Values[i][j])
}
