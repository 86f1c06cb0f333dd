package geo

import (
	"fmt"
	"regexp"

	"github.com/carbocation/geofetch/soft"
	"github.com/carbocation/pfx"
)

// DefaultTitlePattern captures the whole title as the subject and nothing as
// the replicate, i.e. every sample is its own subject.
const DefaultTitlePattern = `(.*)()`

// Parameters tune how one accession's records are interpreted.
type Parameters struct {
	// TitlePattern splits sample titles into (subject, replicate) with its
	// first two capture groups.
	TitlePattern string

	// ColumnOverrides pins special column names (GeneSymbol, ...) to
	// platform column titles, bypassing keyword detection.
	ColumnOverrides map[string]string
}

func DefaultParameters() Parameters {
	return Parameters{TitlePattern: DefaultTitlePattern}
}

// Build links the SERIES, PLATFORM and SAMPLE records of one family file.
func Build(records []soft.Record) (*Series, error) {
	return BuildWith(records, DefaultParameters())
}

// BuildWith is Build with per-accession parameters.
func BuildWith(records []soft.Record, params Parameters) (*Series, error) {
	titleRx, err := titleRegexp(params)
	if err != nil {
		return nil, err
	}

	var seriesRec *soft.Record
	for i := range records {
		if !records[i].Is(soft.KindSeries) {
			continue
		}
		if seriesRec != nil {
			return nil, ErrMultipleSeries
		}
		seriesRec = &records[i]
	}
	if seriesRec == nil {
		return nil, ErrNoSeries
	}

	s := &Series{
		id:    seriesRec.ID,
		attrs: seriesRec.Attributes.Clone(),
		byID:  make(map[string]*Sample),
	}
	s.studyType, s.subSeries = classify(s.attrs)

	byPlatform := make(map[string]*Platform)
	for _, rec := range records {
		if !rec.Is(soft.KindPlatform) {
			continue
		}
		if _, dup := byPlatform[rec.ID]; dup {
			return nil, &DuplicateError{In: "series " + s.id, Kind: "platform", ID: rec.ID}
		}
		p, err := buildPlatform(rec, s.studyType, params)
		if err != nil {
			return nil, pfx.Err(err)
		}
		byPlatform[p.id] = p
		s.platforms = append(s.platforms, p)
	}

	for _, rec := range records {
		if !rec.Is(soft.KindSample) {
			continue
		}
		if _, dup := s.byID[rec.ID]; dup {
			return nil, &DuplicateError{In: "series " + s.id, Kind: "sample", ID: rec.ID}
		}

		smp := buildSample(rec, titleRx)
		switch {
		case smp.platformID != "":
			p, ok := byPlatform[smp.platformID]
			if !ok {
				return nil, &InconsistentReferenceError{Series: s.id, Sample: smp.id, Platform: smp.platformID, Reason: "no such ^PLATFORM section in input"}
			}
			smp.platform = p
		case len(s.platforms) == 1:
			smp.platform = s.platforms[0]
			smp.platformID = s.platforms[0].id
		default:
			return nil, &InconsistentReferenceError{Series: s.id, Sample: smp.id, Reason: fmt.Sprintf("no platform_id and the series holds %d platforms", len(s.platforms))}
		}

		s.samples = append(s.samples, smp)
		s.byID[smp.id] = smp
	}

	for _, id := range s.attrs.Get("sample_id") {
		if _, ok := s.byID[id]; !ok {
			s.missing = append(s.missing, id)
		}
	}

	return s, nil
}

// BuildPlatform builds the single platform of a GPL family file.
func BuildPlatform(records []soft.Record) (*Platform, error) {
	return BuildPlatformWith(records, DefaultParameters())
}

func BuildPlatformWith(records []soft.Record, params Parameters) (*Platform, error) {
	rec, err := only(records, soft.KindPlatform)
	if err != nil {
		return nil, err
	}
	return buildPlatform(rec, StudyOther, params)
}

// BuildSample builds a sample fetched on its own. Its platform is linked only
// when the records also carry that platform.
func BuildSample(records []soft.Record) (*Sample, error) {
	return BuildSampleWith(records, DefaultParameters())
}

func BuildSampleWith(records []soft.Record, params Parameters) (*Sample, error) {
	titleRx, err := titleRegexp(params)
	if err != nil {
		return nil, err
	}

	rec, err := only(records, soft.KindSample)
	if err != nil {
		return nil, err
	}
	smp := buildSample(rec, titleRx)

	for _, r := range records {
		if r.Is(soft.KindPlatform) && r.ID == smp.platformID {
			p, err := buildPlatform(r, StudyOther, params)
			if err != nil {
				return nil, pfx.Err(err)
			}
			smp.platform = p
		}
	}

	return smp, nil
}

func only(records []soft.Record, kind string) (soft.Record, error) {
	var found []soft.Record
	for _, r := range records {
		if r.Is(kind) {
			found = append(found, r)
		}
	}
	if len(found) != 1 {
		return soft.Record{}, &SectionCountError{Kind: kind, Count: len(found)}
	}
	return found[0], nil
}

func titleRegexp(params Parameters) (*regexp.Regexp, error) {
	pattern := params.TitlePattern
	if pattern == "" {
		pattern = DefaultTitlePattern
	}

	rx, err := compileTitlePattern(pattern)
	if err != nil {
		return nil, fmt.Errorf("title pattern %q: %w", pattern, err)
	}
	return rx, nil
}
