package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/carbocation/geofetch/geo"
	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	return t
}

func specialColumns(p *geo.Platform) string {
	var out []string
	for _, kv := range p.SpecialColumns() {
		out = append(out, kv[0]+"="+kv[1])
	}
	return strings.Join(out, ", ")
}

func printSeries(w io.Writer, s *geo.Series) {
	t := newTable(w, s.ID())
	t.AppendRow(table.Row{"Title", s.Title()})
	t.AppendRow(table.Row{"Type", s.Type()})
	if s.Parent() != "" {
		t.AppendRow(table.Row{"Split from", s.Parent()})
	}
	if sub := s.SubSeries(); len(sub) > 0 {
		t.AppendRow(table.Row{"SuperSeries of", strings.Join(sub, ", ")})
	}
	t.AppendRow(table.Row{"Samples", s.Len()})
	if missing := s.MissingSamples(); len(missing) > 0 {
		t.AppendRow(table.Row{"Missing samples", len(missing)})
	}
	for _, p := range s.Platforms() {
		t.AppendRow(table.Row{"Platform", fmt.Sprintf("%s (%d probes) %s", p.ID(), p.Len(), specialColumns(p))})
	}
	t.Render()

	if s.Len() == 0 {
		return
	}

	st := newTable(w, "")
	st.AppendHeader(table.Row{"Sample", "Title", "Subject", "Replicate", "Platform", "Rows"})
	for _, smp := range s.Samples() {
		st.AppendRow(table.Row{smp.ID(), smp.Title(), smp.Subject(), smp.Replicate(), smp.PlatformID(), smp.Len()})
	}
	st.Render()
}

func printPlatform(w io.Writer, p *geo.Platform) {
	t := newTable(w, p.ID())
	t.AppendRow(table.Row{"Title", p.Title()})
	t.AppendRow(table.Row{"Organism", p.Organism()})
	t.AppendRow(table.Row{"Technology", p.Technology()})
	t.AppendRow(table.Row{"Guessed type", p.GuessedType()})
	t.AppendRow(table.Row{"Probes", p.Len()})
	t.AppendRow(table.Row{"Columns", strings.Join(p.ColumnTitles(), ", ")})
	t.AppendRow(table.Row{"Special columns", specialColumns(p)})
	t.Render()
}

func printSample(w io.Writer, s *geo.Sample) {
	t := newTable(w, s.ID())
	t.AppendRow(table.Row{"Title", s.Title()})
	t.AppendRow(table.Row{"Platform", s.PlatformID()})
	t.AppendRow(table.Row{"Rows", s.Len()})
	t.AppendRow(table.Row{"Columns", strings.Join(s.Header(), ", ")})
	for _, name := range s.CharacteristicNames() {
		v, _ := s.Characteristic(name)
		t.AppendRow(table.Row{name, v})
	}
	t.Render()
}
