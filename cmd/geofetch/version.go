package main

import (
	"fmt"
	"io"
	"runtime/debug"

	"github.com/jedib0t/go-pretty/v6/table"
)

// buildInfo is what the Go linker embedded about this binary: its module,
// the VCS state it was built from and the resolved dependency versions.
type buildInfo struct {
	Module    debug.Module
	GoVersion string
	Settings  map[string]string
	Deps      []debug.Module
}

func readBuildInfo() (buildInfo, bool) {
	z, ok := debug.ReadBuildInfo()
	if !ok {
		return buildInfo{}, false
	}

	out := buildInfo{Module: z.Main, GoVersion: z.GoVersion, Settings: make(map[string]string)}
	for _, s := range z.Settings {
		out.Settings[s.Key] = s.Value
	}
	for _, d := range z.Deps {
		m := *d
		if d.Replace != nil {
			m = *d.Replace
		}
		out.Deps = append(out.Deps, m)
	}

	return out, true
}

// stamp is the one-line form logged at startup.
func (b buildInfo) stamp() string {
	rev := b.Settings["vcs.revision"]
	if rev == "" {
		rev = "unknown revision"
	}
	if b.Settings["vcs.modified"] == "true" {
		rev += "+dirty"
	}

	return fmt.Sprintf("geofetch %s (%s, %s)", b.Module.Version, rev, b.GoVersion)
}

func printBuildInfo(w io.Writer, b buildInfo) {
	t := newTable(w, "geofetch "+b.Module.Version)
	t.AppendRow(table.Row{"Module", b.Module.Path})
	t.AppendRow(table.Row{"Go", b.GoVersion})
	for _, key := range []string{"vcs.revision", "vcs.time", "vcs.modified", "GOOS", "GOARCH"} {
		if v, ok := b.Settings[key]; ok {
			t.AppendRow(table.Row{key, v})
		}
	}
	t.AppendSeparator()
	for _, d := range b.Deps {
		t.AppendRow(table.Row{d.Path, d.Version})
	}
	t.Render()
}
