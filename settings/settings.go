// Package settings holds per-accession parsing parameters: the sample title
// pattern and manual special column assignments.
package settings

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/carbocation/geofetch"
	"github.com/carbocation/geofetch/geo"
	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
)

// Row is one line of a settings file. The header names the columns; any
// column may be omitted.
type Row struct {
	Accession    string `csv:"accession"`
	TitlePattern string `csv:"title_pattern"`

	GeneSymbol   string `csv:"gene_symbol_column"`
	EntrezGeneID string `csv:"entrez_gene_id_column"`
	EnsemblID    string `csv:"ensembl_id_column"`
	RefSeqAcc    string `csv:"refseq_acc_column"`
	GenBankAcc   string `csv:"genbank_acc_column"`
	SNPID        string `csv:"snp_id_column"`
	Chromosome   string `csv:"chromosome_column"`
	Location     string `csv:"location_column"`
}

func (r Row) parameters() geo.Parameters {
	p := geo.Parameters{TitlePattern: r.TitlePattern}

	for name, col := range map[string]string{
		geo.GeneSymbol:   r.GeneSymbol,
		geo.EntrezGeneID: r.EntrezGeneID,
		geo.EnsemblID:    r.EnsemblID,
		geo.RefSeqAcc:    r.RefSeqAcc,
		geo.GenBankAcc:   r.GenBankAcc,
		geo.SNPID:        r.SNPID,
		geo.Chromosome:   r.Chromosome,
		geo.Location:     r.Location,
	} {
		if col == "" {
			continue
		}
		if p.ColumnOverrides == nil {
			p.ColumnOverrides = make(map[string]string)
		}
		p.ColumnOverrides[name] = col
	}

	return p
}

// Settings maps accession IDs to their parameters.
type Settings map[string]geo.Parameters

// Builtin carries parameters for studies known to need them.
func Builtin() Settings {
	return Settings{
		// Titles look like "<donor>_rep<N>".
		"GSE25935": {TitlePattern: `([^_]+)(?:_rep(\d+))?`},
	}
}

// For returns the parameters for id, or the defaults.
func (s Settings) For(id string) geo.Parameters {
	if p, ok := s[strings.ToUpper(id)]; ok {
		if p.TitlePattern == "" {
			p.TitlePattern = geo.DefaultTitlePattern
		}
		return p
	}
	return geo.DefaultParameters()
}

// Load reads a tab or comma delimited settings file and layers it over
// Builtin. Rows in the file replace built-in rows for the same accession.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	rows, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	out := Builtin()
	for _, row := range rows {
		out[strings.ToUpper(row.Accession)] = row.parameters()
	}

	return out, nil
}

// Parse decodes settings rows, detecting the delimiter from the data.
func Parse(data []byte) ([]Row, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = geofetch.DetermineDelimiter(data)
	r.Comment = '#'
	r.LazyQuotes = true

	var rows []Row
	if err := gocsv.UnmarshalCSV(r, &rows); err != nil {
		return nil, err
	}

	for i, row := range rows {
		row.Accession = strings.TrimSpace(row.Accession)
		if row.Accession == "" {
			return nil, fmt.Errorf("row %d: no accession", i+1)
		}
		rows[i] = row
	}

	return rows, nil
}
