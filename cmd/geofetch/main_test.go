package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carbocation/geofetch/config"
	"github.com/carbocation/geofetch/download"
	"github.com/carbocation/geofetch/geo"
	"github.com/google/go-cmp/cmp"
)

// fixtureServer serves geo/testdata family files as plain text at their GEO
// paths.
func fixtureServer(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSuffix(path.Base(r.URL.Path), ".gz")
		data, err := os.ReadFile(filepath.Join("..", "..", "geo", "testdata", name))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testRun(t *testing.T, opts options) (string, error) {
	t.Helper()
	srv := fixtureServer(t)
	opts.FTPBase = srv.URL
	opts.QueryBase = srv.URL + "/acc.cgi"
	if opts.Column == "" {
		opts.Column = geo.DefaultValueColumn
	}

	cfg := config.Config{Env: config.EnvLocal, CacheDir: t.TempDir()}
	var stdout bytes.Buffer
	err := run(context.Background(), cfg, opts, log.New(io.Discard, "", 0), &stdout)
	return stdout.String(), err
}

func readTSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	recs, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return recs
}

func TestRunSeries(t *testing.T) {
	dir := t.TempDir()
	settingsPath := filepath.Join(dir, "settings.tsv")
	if err := os.WriteFile(settingsPath, []byte("accession\ttitle_pattern\nGSE9001\t([^_]+)(?:_rep(\\d+))?\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := testRun(t, options{
		Accession:    "GSE9001",
		SettingsPath: settingsPath,
		SamplesPath:  filepath.Join(dir, "samples.tsv"),
		MatrixPath:   filepath.Join(dir, "matrix.tsv"),
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"GSE9001", "Liver expression across two donors", "GPL9002", "donorB"} {
		if !strings.Contains(out, want) {
			t.Errorf("Summary lacks %q:\n%s", want, out)
		}
	}

	expectedMatrix := [][]string{
		{"ID_REF", "GENE", "GSM9101", "GSM9102", "GSM9103"},
		{"ILMN_1", "ALB", "10.5", "11", "9.75"},
		{"ILMN_2", "APOA1", "3.25", "3.5", "4"},
		{"ILMN_3", "", "null", "", "1.5"},
	}
	if diff := cmp.Diff(expectedMatrix, readTSV(t, filepath.Join(dir, "matrix.tsv"))); diff != "" {
		t.Errorf("Matrix (-want +got):\n%s", diff)
	}

	manifest := readTSV(t, filepath.Join(dir, "samples.tsv"))
	if diff := cmp.Diff([]string{"accession", "title", "subject", "replicate", "platform", "rows", "characteristics"}, manifest[0]); diff != "" {
		t.Errorf("Manifest header (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"GSM9102", "donorA_rep2", "donorA", "2", "GPL9002", "2", "age=54; sex=female"}, manifest[2]); diff != "" {
		t.Errorf("Manifest row (-want +got):\n%s", diff)
	}
}

func TestRunSplitSeries(t *testing.T) {
	dir := t.TempDir()

	_, err := testRun(t, options{Accession: "GSE9200", MatrixPath: filepath.Join(dir, "m.tsv")})
	if !errors.Is(err, geo.ErrMultiplePlatforms) {
		t.Errorf("Expected ErrMultiplePlatforms without -split, got %v", err)
	}

	out, err := testRun(t, options{Accession: "GSE9200", MatrixPath: filepath.Join(dir, "m.tsv"), Split: true})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "GSE9200-GPL9201") || !strings.Contains(out, "GSE9200-GPL9202") {
		t.Errorf("Split summary:\n%s", out)
	}

	expected := map[string][][]string{
		"m.GSE9200-GPL9201.tsv": {{"ID_REF", "GENE", "GSM9211"}, {"p1", "TP53", "1"}, {"p2", "EGFR", "2"}},
		"m.GSE9200-GPL9202.tsv": {{"ID_REF", "GSM9212"}, {"q1", "7"}},
	}
	for name, want := range expected {
		if diff := cmp.Diff(want, readTSV(t, filepath.Join(dir, name))); diff != "" {
			t.Errorf("%s (-want +got):\n%s", name, diff)
		}
	}
}

func TestRunNotFound(t *testing.T) {
	_, err := testRun(t, options{Accession: "GSE404"})
	if !download.IsNotFound(err) {
		t.Errorf("Expected a NotFoundError, got %v", err)
	}
}

func TestRunRejectsFlagsForKind(t *testing.T) {
	for _, opts := range []options{
		{Accession: "GPL9002", MatrixPath: "x.tsv"},
		{Accession: "GSM9101", MatrixPath: "x.tsv"},
		{Accession: "GPL9002", SamplesPath: "x.tsv"},
	} {
		_, err := testRun(t, opts)
		if err == nil || !strings.Contains(err.Error(), "needs a series") {
			t.Errorf("%+v: unexpected error %v", opts, err)
		}
	}
}

func TestRunInvalidAccession(t *testing.T) {
	if _, err := testRun(t, options{Accession: "GDS507"}); err == nil {
		t.Error("Expected an error for an unsupported accession")
	}
}
