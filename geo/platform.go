package geo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/carbocation/geofetch/soft"
)

// Platform is a GEO platform (GPL): a probe -> annotation table plus the
// metadata describing it.
type Platform struct {
	id      string
	attrs   soft.Attributes
	columns []soft.Column
	header  []string

	probeIDs   []string
	rows       map[string]map[string]string
	lowerIndex map[string]string

	guessed   StudyType
	studyType StudyType
	special   map[string]string
}

func buildPlatform(rec soft.Record, hint StudyType, params Parameters) (*Platform, error) {
	p := &Platform{
		id:         rec.ID,
		attrs:      rec.Attributes.Clone(),
		columns:    rec.Columns,
		rows:       make(map[string]map[string]string),
		lowerIndex: make(map[string]string),
		special:    make(map[string]string),
	}

	if rec.Table != nil && rec.Table.Header != nil {
		p.header = rec.Table.Header
		for _, row := range rec.Table.Rows {
			probe := row[0]
			if _, dup := p.rows[probe]; dup {
				return nil, &DuplicateError{In: "platform " + p.id, Kind: "probe", ID: probe}
			}

			// Empty annotation cells are left out.
			ann := make(map[string]string, len(row)-1)
			for i := 1; i < len(row); i++ {
				if v := strings.TrimSpace(row[i]); v != "" {
					ann[p.header[i]] = v
				}
			}

			p.probeIDs = append(p.probeIDs, probe)
			p.rows[probe] = ann

			// First spelling wins when two probes differ only by case.
			if _, exists := p.lowerIndex[strings.ToLower(probe)]; !exists {
				p.lowerIndex[strings.ToLower(probe)] = probe
			}
		}
	}

	p.guessed = p.guessType()
	p.studyType = p.guessed
	if hint == StudyExpression || hint == StudySNP {
		p.studyType = hint
	}

	if err := p.mapSpecialColumns(params.ColumnOverrides); err != nil {
		return nil, err
	}

	return p, nil
}

// guessType scores the column titles/descriptions and the platform attributes
// against each study type's keywords. Attribute hits weigh six-fold.
func (p *Platform) guessType() StudyType {
	if len(p.columns) < 2 {
		return StudyOther
	}

	best, bestScore := StudyOther, 0
	for _, st := range guessOrder {
		score := 0
		for _, kw := range keywords[st] {
			for _, c := range p.columns {
				score += keywordScore(c.Name, c.Description, kw)
			}
		}
		for _, key := range p.attrs.Keys() {
			score += 6 * keywordScore(key, strings.Join(p.attrs.Get(key), " "), keywords[st][meta])
		}

		if score > bestScore {
			best, bestScore = st, score
		}
	}

	return best
}

func (p *Platform) mapSpecialColumns(overrides map[string]string) error {
	for name, kw := range keywords[p.studyType] {
		if name == meta {
			continue
		}

		if col, ok := overrides[name]; ok {
			if !p.hasColumn(col) {
				return fmt.Errorf("platform %s: override %s=%s names no column (have %v)", p.id, name, col, p.ColumnTitles())
			}
			p.special[name] = col
			continue
		}

		// A single weak hit is not trusted.
		bestTitle, bestScore := "", 1
		for _, c := range p.columns {
			if score := keywordScore(c.Name, c.Description, kw); score > bestScore {
				bestTitle, bestScore = c.Name, score
			}
		}
		if bestTitle != "" {
			p.special[name] = bestTitle
		}
	}

	// Overrides for names outside this study type still apply.
	for name, col := range overrides {
		if _, done := p.special[name]; done {
			continue
		}
		if !p.hasColumn(col) {
			return fmt.Errorf("platform %s: override %s=%s names no column (have %v)", p.id, name, col, p.ColumnTitles())
		}
		p.special[name] = col
	}

	return nil
}

func (p *Platform) hasColumn(title string) bool {
	for _, t := range p.ColumnTitles() {
		if t == title {
			return true
		}
	}
	return false
}

func (p *Platform) ID() string { return p.id }

func (p *Platform) Title() string { return p.attrs.First("title") }

func (p *Platform) Organism() string { return p.attrs.First("organism") }

func (p *Platform) Technology() string { return p.attrs.First("technology") }

func (p *Platform) Attributes() soft.Attributes { return p.attrs.Clone() }

// Columns returns the #column descriptions in file order.
func (p *Platform) Columns() []soft.Column {
	return append([]soft.Column(nil), p.columns...)
}

// ColumnTitles returns the data table header, or the described column names
// when the platform carries no table.
func (p *Platform) ColumnTitles() []string {
	if p.header != nil {
		return append([]string(nil), p.header...)
	}

	out := make([]string, 0, len(p.columns))
	for _, c := range p.columns {
		out = append(out, c.Name)
	}
	return out
}

// ProbeIDs returns the probe identifiers in table order.
func (p *Platform) ProbeIDs() []string {
	return append([]string(nil), p.probeIDs...)
}

func (p *Platform) Len() int { return len(p.probeIDs) }

// resolve finds the canonical spelling of probe, falling back to a
// case-insensitive match.
func (p *Platform) resolve(probe string) (string, bool) {
	if _, ok := p.rows[probe]; ok {
		return probe, true
	}
	canonical, ok := p.lowerIndex[strings.ToLower(probe)]
	return canonical, ok
}

// Annotation returns a copy of the non-empty annotation cells of probe.
func (p *Platform) Annotation(probe string) (map[string]string, bool) {
	canonical, ok := p.resolve(probe)
	if !ok {
		return nil, false
	}

	out := make(map[string]string, len(p.rows[canonical]))
	for k, v := range p.rows[canonical] {
		out[k] = v
	}
	return out, true
}

// Lookup returns one annotation cell. Empty cells are reported as absent.
func (p *Platform) Lookup(probe, column string) (string, bool) {
	canonical, ok := p.resolve(probe)
	if !ok {
		return "", false
	}
	v, ok := p.rows[canonical][column]
	return v, ok
}

// Type is the study type the special columns were resolved against.
func (p *Platform) Type() StudyType { return p.studyType }

// GuessedType is the study type inferred from the platform alone.
func (p *Platform) GuessedType() StudyType { return p.guessed }

// SpecialColumn returns the column title mapped to a special name such as
// GeneSymbol, or "" when none matched confidently.
func (p *Platform) SpecialColumn(name string) string {
	return p.special[name]
}

// SpecialColumns returns the special name -> column title mapping, sorted by
// special name.
func (p *Platform) SpecialColumns() [][2]string {
	out := make([][2]string, 0, len(p.special))
	for k, v := range p.special {
		out = append(out, [2]string{k, v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// Special returns the value of a special column for probe.
func (p *Platform) Special(probe, name string) (string, bool) {
	col := p.special[name]
	if col == "" {
		return "", false
	}
	return p.Lookup(probe, col)
}

// GeneName returns the best available gene identifier for probe, trying the
// gene symbol first and accession-style identifiers after it.
func (p *Platform) GeneName(probe string) (string, bool) {
	for _, name := range geneNameOrder {
		if v, ok := p.Special(probe, name); ok {
			return v, true
		}
	}
	return "", false
}
