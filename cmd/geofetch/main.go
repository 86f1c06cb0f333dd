// geofetch downloads a GEO accession into the local cache, parses it and
// prints a summary. It can also write a sample manifest and a probe x sample
// value matrix.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/carbocation/geofetch/accession"
	"github.com/carbocation/geofetch/config"
	"github.com/carbocation/geofetch/download"
	"github.com/carbocation/geofetch/geo"
	"github.com/carbocation/geofetch/settings"
	"github.com/carbocation/geofetch/soft"
	"github.com/carbocation/pfx"
)

type options struct {
	Accession    string
	SettingsPath string
	SamplesPath  string
	MatrixPath   string
	Column       string
	Split        bool

	// FTPBase and QueryBase override the NCBI endpoints.
	FTPBase   string
	QueryBase string
}

func main() {
	var opts options
	var version bool

	flag.StringVar(&opts.SettingsPath, "settings", "", "Tab or comma delimited file of per-accession parameters. Defaults to $GEO_SETTINGS.")
	flag.StringVar(&opts.SamplesPath, "samples", "", "(Optional) Path to write a tab delimited sample manifest.")
	flag.StringVar(&opts.MatrixPath, "matrix", "", "(Optional) Path to write a tab delimited probe x sample matrix. Series only.")
	flag.StringVar(&opts.Column, "column", geo.DefaultValueColumn, "Sample table column to put in the matrix.")
	flag.BoolVar(&opts.Split, "split", false, "Treat each platform of a multi-platform series as its own series.")
	flag.BoolVar(&version, "version", false, "Print build information and exit.")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] ACCESSION\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	info, ok := readBuildInfo()

	if version {
		if !ok {
			log.Fatalln("No build information embedded in this binary")
		}
		printBuildInfo(os.Stdout, info)
		return
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	opts.Accession = flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalln(err)
	}

	logger, closer, err := cfg.NewLogger()
	if err != nil {
		log.Fatalln(err)
	}

	if ok {
		logger.Println(info.stamp())
	}

	if err := run(context.Background(), cfg, opts, logger, os.Stdout); err != nil {
		logger.Println(err)
		closer.Close()
		os.Exit(1)
	}
	closer.Close()
}

func run(ctx context.Context, cfg config.Config, opts options, logger *log.Logger, stdout io.Writer) error {
	if cfg.Implicit {
		logger.Println("None of ENV, CACHE_DIR or TMP_DIR is set; caching in the working directory", cfg.CacheDir)
	}

	id, err := accession.Parse(opts.Accession)
	if err != nil {
		return err
	}

	if id.Kind() != accession.Series && opts.MatrixPath != "" {
		return fmt.Errorf("%s: -matrix needs a series accession", id)
	}
	if id.Kind() == accession.Platform && opts.SamplesPath != "" {
		return fmt.Errorf("%s: -samples needs a series or sample accession", id)
	}

	params, err := loadParameters(cfg, opts, id)
	if err != nil {
		return err
	}

	fetcher := download.NewFetcher(cfg.CacheDir)
	fetcher.TmpDir = cfg.TmpDir
	fetcher.FTPBase = opts.FTPBase
	fetcher.QueryBase = opts.QueryBase
	fetcher.Log = logger

	if cfg.Mirror != "" {
		mirror, err := download.NewGSMirror(ctx, cfg.Mirror)
		if err != nil {
			return err
		}
		defer mirror.Close()
		fetcher.Mirror = mirror
	}

	path, err := fetcher.Fetch(ctx, id.String())
	if err != nil {
		return err
	}

	records, err := soft.ParseFile(path)
	if err != nil {
		return err
	}
	logger.Printf("Parsed %d sections from %s\n", len(records), path)

	switch id.Kind() {
	case accession.Series:
		return runSeries(records, params, opts, logger, stdout)
	case accession.Platform:
		return runPlatform(records, params, stdout)
	case accession.Sample:
		return runSample(records, params, opts, stdout)
	}

	return fmt.Errorf("%s: unhandled accession kind %s", id, id.Kind())
}

func loadParameters(cfg config.Config, opts options, id accession.ID) (geo.Parameters, error) {
	path := opts.SettingsPath
	if path == "" {
		path = cfg.Settings
	}
	if path == "" {
		return settings.Builtin().For(id.String()), nil
	}

	s, err := settings.Load(path)
	if err != nil {
		return geo.Parameters{}, pfx.Err(err)
	}

	return s.For(id.String()), nil
}

func runSeries(records []soft.Record, params geo.Parameters, opts options, logger *log.Logger, stdout io.Writer) error {
	series, err := geo.BuildWith(records, params)
	if err != nil {
		return err
	}
	if missing := series.MissingSamples(); len(missing) > 0 {
		logger.Printf("%s declares %d samples with no ^SAMPLE section: %s\n", series.ID(), len(missing), strings.Join(missing, ", "))
	}

	parts := []*geo.Series{series}
	if opts.Split {
		parts = series.SplitByPlatform()
	}

	for _, part := range parts {
		printSeries(stdout, part)

		if opts.SamplesPath != "" {
			out := partPath(opts.SamplesPath, part, len(parts))
			if err := writeSampleManifest(out, part.Samples()); err != nil {
				return err
			}
			logger.Println("Wrote sample manifest to", out)
		}

		if opts.MatrixPath != "" {
			m, err := part.Matrix(opts.Column)
			if err != nil {
				return fmt.Errorf("%s: %w", part.ID(), err)
			}
			out := partPath(opts.MatrixPath, part, len(parts))
			if err := writeMatrix(out, m); err != nil {
				return err
			}
			logger.Printf("Wrote %d x %d matrix to %s\n", len(m.ProbeIDs), len(m.SampleIDs), out)
		}
	}

	return nil
}

func runPlatform(records []soft.Record, params geo.Parameters, stdout io.Writer) error {
	platform, err := geo.BuildPlatformWith(records, params)
	if err != nil {
		return err
	}
	printPlatform(stdout, platform)

	return nil
}

func runSample(records []soft.Record, params geo.Parameters, opts options, stdout io.Writer) error {
	sample, err := geo.BuildSampleWith(records, params)
	if err != nil {
		return err
	}
	printSample(stdout, sample)

	if opts.SamplesPath != "" {
		return writeSampleManifest(opts.SamplesPath, []*geo.Sample{sample})
	}

	return nil
}

// partPath inserts the derived series ID before the extension when a series
// was split into several parts.
func partPath(path string, part *geo.Series, nParts int) string {
	if nParts < 2 {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "." + part.ID() + ext
}
