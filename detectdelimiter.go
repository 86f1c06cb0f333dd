package geofetch

import (
	"bytes"

	"github.com/csimplestring/go-csv/detector"
)

// DetermineDelimiter returns the single most likely rune that would delimit the
// values in data, assuming a CSV-like layout. Tab wins ties with comma because
// GEO side files are overwhelmingly tab-delimited.
func DetermineDelimiter(data []byte) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(bytes.NewReader(data), '"')

	for _, candidate := range delimiters {
		if candidate == "\t" {
			return '\t'
		}
	}

	if len(delimiters) > 0 && len(delimiters[0]) > 0 {
		return rune(delimiters[0][0])
	}

	if bytes.IndexByte(data, '\t') >= 0 {
		return '\t'
	}

	return ','
}
