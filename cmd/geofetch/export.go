package main

import (
	"encoding/csv"
	"os"
	"strings"

	"github.com/carbocation/geofetch/geo"
	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
)

type manifestRow struct {
	Accession       string `csv:"accession"`
	Title           string `csv:"title"`
	Subject         string `csv:"subject"`
	Replicate       string `csv:"replicate"`
	Platform        string `csv:"platform"`
	Rows            int    `csv:"rows"`
	Characteristics string `csv:"characteristics"`
}

func newManifestRow(s *geo.Sample) manifestRow {
	var chars []string
	for _, name := range s.CharacteristicNames() {
		v, _ := s.Characteristic(name)
		chars = append(chars, name+"="+v)
	}

	return manifestRow{
		Accession:       s.ID(),
		Title:           s.Title(),
		Subject:         s.Subject(),
		Replicate:       s.Replicate(),
		Platform:        s.PlatformID(),
		Rows:            s.Len(),
		Characteristics: strings.Join(chars, "; "),
	}
}

func writeSampleManifest(path string, samples []*geo.Sample) error {
	rows := make([]manifestRow, 0, len(samples))
	for _, s := range samples {
		rows = append(rows, newManifestRow(s))
	}

	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'

	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(w)); err != nil {
		return pfx.Err(err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return pfx.Err(err)
	}

	return f.Close()
}

// writeMatrix writes one row per probe: the probe ID, the gene name when the
// platform has one, then one cell per sample.
func writeMatrix(path string, m *geo.Matrix) error {
	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'

	header := []string{"ID_REF"}
	if m.GeneNames != nil {
		header = append(header, "GENE")
	}
	if err := w.Write(append(header, m.SampleIDs...)); err != nil {
		return pfx.Err(err)
	}

	for i, probe := range m.ProbeIDs {
		row := []string{probe}
		if m.GeneNames != nil {
			row = append(row, m.GeneNames[i])
		}
		if err := w.Write(append(row, m.Values[i]...)); err != nil {
			return pfx.Err(err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return pfx.Err(err)
	}

	return f.Close()
}
