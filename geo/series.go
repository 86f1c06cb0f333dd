// Package geo turns raw SOFT records into a cross-linked object graph: a
// Series owning its Samples, each Sample pointing at a Platform held by the
// same Series. Objects are immutable once built.
package geo

import (
	"regexp"
	"strings"

	"github.com/carbocation/geofetch/soft"
)

type StudyType string

const (
	StudyExpression StudyType = "Expression"
	StudySNP        StudyType = "SNP"
	StudySuper      StudyType = "Super"
	StudyOther      StudyType = "Other"
)

var (
	expressionTypeLines = map[string]struct{}{
		"Expression profiling by array": {},
	}
	snpTypeLines = map[string]struct{}{
		"SNP genotyping by SNP array":             {},
		"Genome variation profiling by SNP array": {},
	}

	rxSuperSeriesOf = regexp.MustCompile(`^SuperSeries of: (GSE\d+)$`)
)

// Series is a GEO series (GSE).
type Series struct {
	id     string
	parent string
	attrs  soft.Attributes

	studyType StudyType
	subSeries []string

	samples   []*Sample
	byID      map[string]*Sample
	platforms []*Platform

	missing []string
}

func (s *Series) ID() string { return s.id }

// Parent is the accession this series was split from by SplitByPlatform, or
// "" for a series built directly from a file.
func (s *Series) Parent() string { return s.parent }

func (s *Series) Title() string { return s.attrs.First("title") }

// Summary joins the summary paragraphs with blank lines.
func (s *Series) Summary() string {
	return strings.Join(s.attrs.Get("summary"), "\n\n")
}

func (s *Series) Attributes() soft.Attributes { return s.attrs.Clone() }

func (s *Series) Type() StudyType { return s.studyType }

// DeclaredTypes returns the raw !Series_type lines.
func (s *Series) DeclaredTypes() []string { return s.attrs.Get("type") }

// SubSeries returns the accessions this series declares itself a SuperSeries
// of.
func (s *Series) SubSeries() []string {
	return append([]string(nil), s.subSeries...)
}

// Samples returns the samples in declaration order.
func (s *Series) Samples() []*Sample {
	return append([]*Sample(nil), s.samples...)
}

func (s *Series) Sample(id string) (*Sample, bool) {
	v, ok := s.byID[id]
	return v, ok
}

func (s *Series) Len() int { return len(s.samples) }

// Platforms returns every platform in declaration order.
func (s *Series) Platforms() []*Platform {
	return append([]*Platform(nil), s.platforms...)
}

// Platform returns the series platform. It is nil when the series spans more
// than one platform; see SplitByPlatform.
func (s *Series) Platform() *Platform {
	if len(s.platforms) != 1 {
		return nil
	}
	return s.platforms[0]
}

func (s *Series) PlatformByID(id string) (*Platform, bool) {
	for _, p := range s.platforms {
		if p.id == id {
			return p, true
		}
	}
	return nil, false
}

// MissingSamples lists sample accessions the series declares but for which no
// ^SAMPLE section was present. A missing sample names no platform, so every
// part from SplitByPlatform reports the full list of its parent.
func (s *Series) MissingSamples() []string {
	return append([]string(nil), s.missing...)
}

// Subjects groups sample accessions by title subject, preserving sample order
// within each group.
func (s *Series) Subjects() map[string][]string {
	out := make(map[string][]string)
	for _, smp := range s.samples {
		out[smp.subject] = append(out[smp.subject], smp.id)
	}
	return out
}

// SplitByPlatform returns one derived series per platform, named
// <series>-<platform>, each holding only that platform's samples. A series on
// a single platform yields itself.
func (s *Series) SplitByPlatform() []*Series {
	if len(s.platforms) <= 1 {
		return []*Series{s}
	}

	out := make([]*Series, 0, len(s.platforms))
	for _, p := range s.platforms {
		sub := &Series{
			id:        s.id + "-" + p.id,
			parent:    s.id,
			attrs:     s.attrs,
			studyType: s.studyType,
			subSeries: s.subSeries,
			byID:      make(map[string]*Sample),
			platforms: []*Platform{p},
			missing:   s.missing,
		}
		if sub.studyType == StudyOther || sub.studyType == StudySuper {
			sub.studyType = p.studyType
		}
		for _, smp := range s.samples {
			if smp.platform == p {
				sub.samples = append(sub.samples, smp)
				sub.byID[smp.id] = smp
			}
		}
		out = append(out, sub)
	}

	return out
}

func classify(attrs soft.Attributes) (StudyType, []string) {
	var subSeries []string
	for _, rel := range attrs.Get("relation") {
		if m := rxSuperSeriesOf.FindStringSubmatch(strings.TrimSpace(rel)); m != nil {
			subSeries = append(subSeries, m[1])
		}
	}
	if len(subSeries) > 0 {
		return StudySuper, subSeries
	}

	for _, t := range attrs.Get("type") {
		if _, ok := expressionTypeLines[t]; ok {
			return StudyExpression, nil
		}
	}
	for _, t := range attrs.Get("type") {
		if _, ok := snpTypeLines[t]; ok {
			return StudySNP, nil
		}
	}

	return StudyOther, nil
}
