// Package accession validates GEO accession IDs and maps them onto the remote
// and on-disk locations of their SOFT files.
package accession

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

type Kind string

const (
	Series   Kind = "GSE"
	Sample   Kind = "GSM"
	Platform Kind = "GPL"
)

const (
	// DefaultFTPBase serves the family SOFT files for series and platforms.
	DefaultFTPBase = "https://ftp.ncbi.nlm.nih.gov/geo"

	// DefaultQueryBase serves single-record SOFT text, used for samples.
	DefaultQueryBase = "https://www.ncbi.nlm.nih.gov/geo/query/acc.cgi"

	// CacheSuffix is appended to every cache file. Cache files are always
	// gzip compressed.
	CacheSuffix = ".soft.gz"
)

var rxAccession = regexp.MustCompile(`^([A-Z]+)([0-9]+)$`)

// InvalidError reports an accession ID that was rejected before any I/O.
type InvalidError struct {
	Input  string
	Reason string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid accession %q: %s", e.Input, e.Reason)
}

// ID is a validated accession, always upper case.
type ID struct {
	kind   Kind
	number string
}

// Parse validates s as a GSE, GSM or GPL accession. Surrounding whitespace and
// letter case are ignored.
func Parse(s string) (ID, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))

	m := rxAccession.FindStringSubmatch(norm)
	if m == nil {
		return ID{}, &InvalidError{Input: s, Reason: "expected letters followed by digits, e.g. GSE25935"}
	}

	switch k := Kind(m[1]); k {
	case Series, Sample, Platform:
		return ID{kind: k, number: m[2]}, nil
	default:
		return ID{}, &InvalidError{Input: s, Reason: fmt.Sprintf("unsupported prefix %s (want GSE, GSM or GPL)", m[1])}
	}
}

// MustParse is Parse for constants in tests and examples.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ID) Kind() Kind { return id.kind }

func (id ID) String() string { return string(id.kind) + id.number }

func (id ID) IsZero() bool { return id.kind == "" }

// Stem is the GEO directory bucket holding this accession: the last three
// digits are replaced by "nnn", e.g. GSE25935 -> GSE25nnn and GSE1 -> GSEnnn.
func (id ID) Stem() string {
	digits := strings.TrimLeft(id.number, "0")
	if len(digits) <= 3 {
		return string(id.kind) + "nnn"
	}

	return string(id.kind) + digits[:len(digits)-3] + "nnn"
}

// URL computes the remote location of the accession's SOFT file. Empty bases
// fall back to the public NCBI endpoints.
func (id ID) URL(ftpBase, queryBase string) string {
	if ftpBase == "" {
		ftpBase = DefaultFTPBase
	}
	if queryBase == "" {
		queryBase = DefaultQueryBase
	}

	switch id.kind {
	case Series:
		return fmt.Sprintf("%s/series/%s/%s/soft/%s_family.soft.gz", strings.TrimRight(ftpBase, "/"), id.Stem(), id, id)
	case Platform:
		return fmt.Sprintf("%s/platforms/%s/%s/soft/%s_family.soft.gz", strings.TrimRight(ftpBase, "/"), id.Stem(), id, id)
	}

	q := url.Values{}
	q.Set("acc", id.String())
	q.Set("targ", "self")
	q.Set("form", "text")
	q.Set("view", "full")

	return queryBase + "?" + q.Encode()
}

// CacheName is the file name used for this accession inside a cache dir.
func (id ID) CacheName() string {
	return id.String() + CacheSuffix
}

// CachePath is the deterministic location of the accession within cacheDir.
func (id ID) CachePath(cacheDir string) string {
	return filepath.Join(cacheDir, id.CacheName())
}
