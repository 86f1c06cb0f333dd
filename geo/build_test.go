package geo

import (
	"errors"
	"strings"
	"testing"

	"github.com/carbocation/geofetch/soft"
	"github.com/google/go-cmp/cmp"
)

func mustParse(t *testing.T, path string) []soft.Record {
	t.Helper()
	records, err := soft.ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return records
}

func countSections(records []soft.Record, kind string) int {
	n := 0
	for _, r := range records {
		if r.Is(kind) {
			n++
		}
	}
	return n
}

func TestBuildFamily(t *testing.T) {
	records := mustParse(t, "testdata/GSE9001_family.soft")

	s, err := Build(records)
	if err != nil {
		t.Fatal(err)
	}

	if s.ID() != "GSE9001" || s.Title() != "Liver expression across two donors" {
		t.Errorf("Series %s %q", s.ID(), s.Title())
	}
	if !strings.HasPrefix(s.Summary(), "Hepatic transcript") || !strings.HasSuffix(s.Summary(), "Second summary paragraph.") {
		t.Errorf("Summary %q", s.Summary())
	}
	if s.Type() != StudyExpression {
		t.Errorf("Type %s", s.Type())
	}
	if got, want := s.Len(), countSections(records, soft.KindSample); got != want {
		t.Errorf("Series has %d samples, file has %d ^SAMPLE sections", got, want)
	}

	var ids []string
	for _, smp := range s.Samples() {
		ids = append(ids, smp.ID())
	}
	if diff := cmp.Diff([]string{"GSM9101", "GSM9102", "GSM9103"}, ids); diff != "" {
		t.Errorf("Sample order (-want +got):\n%s", diff)
	}

	p := s.Platform()
	if p == nil || p.ID() != "GPL9002" {
		t.Fatalf("Platform %+v", p)
	}
	for _, smp := range s.Samples() {
		if smp.Platform() != p {
			t.Errorf("%s does not share the series platform", smp.ID())
		}
	}
	if len(s.MissingSamples()) != 0 {
		t.Errorf("Unexpected missing samples %v", s.MissingSamples())
	}
}

func TestSampleAccessors(t *testing.T) {
	s, err := Build(mustParse(t, "testdata/GSE9001_family.soft"))
	if err != nil {
		t.Fatal(err)
	}

	smp, ok := s.Sample("GSM9103")
	if !ok {
		t.Fatal("GSM9103 missing")
	}

	if diff := cmp.Diff(map[string]string{
		"age":                 "61",
		"sex":                 "male",
		"characteristics_ch1": "tissue",
	}, smp.Characteristics()); diff != "" {
		t.Errorf("Characteristics (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"age", "sex", "characteristics_ch1"}, smp.CharacteristicNames()); diff != "" {
		t.Errorf("Characteristic order (-want +got):\n%s", diff)
	}

	if v, ok := smp.Value("ILMN_3", "VALUE"); !ok || v != "1.5" {
		t.Errorf("Value %q %v", v, ok)
	}
	if f := smp.Float("ILMN_2", "VALUE"); !f.Valid || f.Float64 != 4 {
		t.Errorf("Float %+v", f)
	}
	if _, ok := smp.Value("ILMN_404", "VALUE"); ok {
		t.Error("Unknown probe reported present")
	}

	first, _ := s.Sample("GSM9101")
	if f := first.Float("ILMN_3", "VALUE"); f.Valid {
		t.Errorf("null cell parsed as %+v", f)
	}
}

func TestDuplicateCharacteristicsAreJoined(t *testing.T) {
	records, err := soft.Parse(strings.NewReader(strings.Join([]string{
		"^SERIES = GSE1",
		"^PLATFORM = GPL1",
		"^SAMPLE = GSM1",
		"!Sample_platform_id = GPL1",
		"!Sample_characteristics_ch1 = strain: B6",
		"!Sample_characteristics_ch2 = strain: 129",
		"!Sample_characteristics_ch2 = time: 10:30",
	}, "\n")))
	if err != nil {
		t.Fatal(err)
	}

	s, err := Build(records)
	if err != nil {
		t.Fatal(err)
	}
	smp, _ := s.Sample("GSM1")

	if v, _ := smp.Characteristic("strain"); v != "B6; 129" {
		t.Errorf("strain %q", v)
	}
	if v, _ := smp.Characteristic("time"); v != "10:30" {
		t.Errorf("time %q", v)
	}
}

func TestInconsistentPlatformReference(t *testing.T) {
	_, err := Build(mustParse(t, "testdata/bad_platform_ref.soft"))

	var inconsistent *InconsistentReferenceError
	if !errors.As(err, &inconsistent) {
		t.Fatalf("Expected *InconsistentReferenceError, got %v", err)
	}
	if inconsistent.Sample != "GSM9101" || inconsistent.Platform != "GPL404" {
		t.Errorf("Unexpected error detail %+v", inconsistent)
	}
}

func TestSampleWithoutPlatformAmbiguous(t *testing.T) {
	records, err := soft.Parse(strings.NewReader("^SERIES = GSE1\n^PLATFORM = GPL1\n^PLATFORM = GPL2\n^SAMPLE = GSM1\n!Sample_title = x\n"))
	if err != nil {
		t.Fatal(err)
	}

	_, err = Build(records)
	var inconsistent *InconsistentReferenceError
	if !errors.As(err, &inconsistent) {
		t.Fatalf("Expected *InconsistentReferenceError, got %v", err)
	}
}

func TestSampleWithoutPlatformSingle(t *testing.T) {
	records, err := soft.Parse(strings.NewReader("^SERIES = GSE1\n^PLATFORM = GPL1\n^SAMPLE = GSM1\n"))
	if err != nil {
		t.Fatal(err)
	}

	s, err := Build(records)
	if err != nil {
		t.Fatal(err)
	}
	smp, _ := s.Sample("GSM1")
	if smp.PlatformID() != "GPL1" || smp.Platform() != s.Platform() {
		t.Errorf("Sample not linked to the only platform: %q", smp.PlatformID())
	}
}

func TestSeriesCount(t *testing.T) {
	for input, expected := range map[string]error{
		"^SAMPLE = GSM1\n":                  ErrNoSeries,
		"^SERIES = GSE1\n^SERIES = GSE2\n": ErrMultipleSeries,
	} {
		records, err := soft.Parse(strings.NewReader(input))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := Build(records); !errors.Is(err, expected) {
			t.Errorf("%q: got %v, expected %v", input, err, expected)
		}
	}
}

func TestDuplicateSections(t *testing.T) {
	for _, v := range []struct {
		Input    string
		Expected DuplicateError
	}{
		{"^SERIES = GSE1\n^PLATFORM = GPL1\n^PLATFORM = GPL1\n", DuplicateError{In: "series GSE1", Kind: "platform", ID: "GPL1"}},
		{"^SERIES = GSE1\n^PLATFORM = GPL1\n^SAMPLE = GSM1\n^SAMPLE = GSM1\n", DuplicateError{In: "series GSE1", Kind: "sample", ID: "GSM1"}},
		{"^SERIES = GSE1\n^PLATFORM = GPL1\n!platform_table_begin\nID\na\na\n!platform_table_end\n", DuplicateError{In: "platform GPL1", Kind: "probe", ID: "a"}},
	} {
		input, expected := v.Input, v.Expected
		records, err := soft.Parse(strings.NewReader(input))
		if err != nil {
			t.Fatal(err)
		}
		_, err = Build(records)
		var dup *DuplicateError
		if !errors.As(err, &dup) {
			t.Errorf("%q: expected *DuplicateError, got %v", input, err)
			continue
		}
		if diff := cmp.Diff(expected, *dup); diff != "" {
			t.Errorf("%q (-want +got):\n%s", input, diff)
		}
	}
}

func TestAttributesAreCopies(t *testing.T) {
	records := mustParse(t, "testdata/GSE9001_family.soft")
	s, err := Build(records)
	if err != nil {
		t.Fatal(err)
	}
	title, summary := s.Title(), s.Summary()

	s.Attributes().Get("title")[0] = "changed"
	a := s.Attributes()
	a.Add("summary", "extra")
	records[1].Attributes.Add("summary", "extra")

	if s.Title() != title || s.Summary() != summary {
		t.Errorf("Series changed through its attributes: %q %q", s.Title(), s.Summary())
	}

	smp, _ := s.Sample("GSM9101")
	smp.Attributes().Get("title")[0] = "changed"
	sa := smp.Attributes()
	sa.Add("platform_id", "GPL0")
	if got := smp.Attributes().Get("platform_id"); len(got) != 1 {
		t.Errorf("Sample attributes changed: %v", got)
	}

	p := s.Platform()
	pa := p.Attributes()
	pa.Add("title", "other")
	if got := p.Attributes().Get("title"); len(got) != 1 || p.Title() != got[0] {
		t.Errorf("Platform attributes changed: %v", got)
	}
}

func TestSuperSeries(t *testing.T) {
	records, err := soft.Parse(strings.NewReader(strings.Join([]string{
		"^SERIES = GSE15745",
		"!Series_type = Expression profiling by array",
		"!Series_relation = SuperSeries of: GSE15707",
		"!Series_relation = SuperSeries of: GSE15708",
		"!Series_relation = BioProject: https://www.ncbi.nlm.nih.gov/bioproject/PRJNA1",
	}, "\n")))
	if err != nil {
		t.Fatal(err)
	}

	s, err := Build(records)
	if err != nil {
		t.Fatal(err)
	}
	if s.Type() != StudySuper {
		t.Errorf("Type %s", s.Type())
	}
	if diff := cmp.Diff([]string{"GSE15707", "GSE15708"}, s.SubSeries()); diff != "" {
		t.Errorf("SubSeries (-want +got):\n%s", diff)
	}
}

func TestSplitByPlatform(t *testing.T) {
	s, err := Build(mustParse(t, "testdata/GSE9200_family.soft"))
	if err != nil {
		t.Fatal(err)
	}

	if s.Platform() != nil {
		t.Error("Platform() should be nil for a multi-platform series")
	}
	if diff := cmp.Diff([]string{"GSM9213"}, s.MissingSamples()); diff != "" {
		t.Errorf("MissingSamples (-want +got):\n%s", diff)
	}
	if _, err := s.Matrix(""); !errors.Is(err, ErrMultiplePlatforms) {
		t.Errorf("Matrix on multi-platform series: %v", err)
	}

	parts := s.SplitByPlatform()
	if len(parts) != 2 {
		t.Fatalf("Got %d parts", len(parts))
	}

	for i, expected := range []struct {
		ID      string
		Samples []string
	}{
		{"GSE9200-GPL9201", []string{"GSM9211"}},
		{"GSE9200-GPL9202", []string{"GSM9212"}},
	} {
		part := parts[i]
		var ids []string
		for _, smp := range part.Samples() {
			ids = append(ids, smp.ID())
			if smp.Platform() != part.Platform() {
				t.Errorf("%s: sample %s on foreign platform", part.ID(), smp.ID())
			}
		}
		if part.ID() != expected.ID || part.Parent() != "GSE9200" {
			t.Errorf("Part %d is %s (parent %s)", i, part.ID(), part.Parent())
		}
		if diff := cmp.Diff(expected.Samples, ids); diff != "" {
			t.Errorf("%s samples (-want +got):\n%s", part.ID(), diff)
		}
		if diff := cmp.Diff([]string{"GSM9213"}, part.MissingSamples()); diff != "" {
			t.Errorf("%s MissingSamples (-want +got):\n%s", part.ID(), diff)
		}
	}

	single, err := Build(mustParse(t, "testdata/GSE9001_family.soft"))
	if err != nil {
		t.Fatal(err)
	}
	if parts := single.SplitByPlatform(); len(parts) != 1 || parts[0] != single {
		t.Error("Single-platform series should split into itself")
	}
}

func TestTitlePattern(t *testing.T) {
	records := mustParse(t, "testdata/GSE9001_family.soft")

	s, err := BuildWith(records, Parameters{TitlePattern: `([^_]+)(?:_rep(\d+))?`})
	if err != nil {
		t.Fatal(err)
	}

	smp, _ := s.Sample("GSM9102")
	if smp.Subject() != "donorA" || smp.Replicate() != "2" {
		t.Errorf("Subject %q replicate %q", smp.Subject(), smp.Replicate())
	}

	if diff := cmp.Diff(map[string][]string{
		"donorA": {"GSM9101", "GSM9102"},
		"donorB": {"GSM9103"},
	}, s.Subjects()); diff != "" {
		t.Errorf("Subjects (-want +got):\n%s", diff)
	}

	plain, err := Build(records)
	if err != nil {
		t.Fatal(err)
	}
	if smp, _ := plain.Sample("GSM9102"); smp.Subject() != "donorA_rep2" || smp.Replicate() != "" {
		t.Errorf("Default pattern split the title: %q %q", smp.Subject(), smp.Replicate())
	}

	if _, err := BuildWith(records, Parameters{TitlePattern: `(`}); err == nil {
		t.Error("Expected an error for an invalid title pattern")
	}
}

func TestBuildSampleAndPlatform(t *testing.T) {
	records, err := soft.Parse(strings.NewReader("^SAMPLE = GSM5\n!Sample_title = lone\n!Sample_platform_id = GPL5\n!sample_table_begin\nID_REF\tVALUE\na\t1\n!sample_table_end\n"))
	if err != nil {
		t.Fatal(err)
	}

	smp, err := BuildSample(records)
	if err != nil {
		t.Fatal(err)
	}
	if smp.ID() != "GSM5" || smp.PlatformID() != "GPL5" || smp.Platform() != nil {
		t.Errorf("Unexpected sample %s %s %v", smp.ID(), smp.PlatformID(), smp.Platform())
	}

	var count *SectionCountError
	if _, err := BuildPlatform(records); !errors.As(err, &count) || count.Count != 0 {
		t.Errorf("Expected *SectionCountError, got %v", err)
	}

	p, err := BuildPlatform(mustParse(t, "testdata/GSE9200_family.soft")[1:2])
	if err != nil {
		t.Fatal(err)
	}
	if p.ID() != "GPL9201" || p.Len() != 2 {
		t.Errorf("Unexpected platform %s with %d probes", p.ID(), p.Len())
	}
}
