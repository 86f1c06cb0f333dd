package soft

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/carbocation/geofetch"
	"github.com/carbocation/pfx"
)

const (
	tableBeginSuffix = "_table_begin"
	tableEndSuffix   = "_table_end"
)

// ParseFile parses the SOFT file at path, which may be compressed.
func ParseFile(path string) ([]Record, error) {
	rc, err := geofetch.OpenMaybeCompressed(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer rc.Close()

	records, err := Parse(rc)
	if malformed, ok := err.(*MalformedInputError); ok {
		malformed.Path = path
	}

	return records, err
}

// Parse reads SOFT text from r and returns its sections in declaration order.
func Parse(r io.Reader) ([]Record, error) {
	p := parser{r: bufio.NewReaderSize(r, 1<<16)}
	return p.run()
}

type parser struct {
	r       *bufio.Reader
	lineNum int
	records []Record
	cur     *Record

	inTable   bool
	tableLine int
}

func (p *parser) run() ([]Record, error) {
	for {
		line, err := p.r.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, pfx.Err(err)
		}
		if line == "" && err == io.EOF {
			break
		}
		p.lineNum++

		if perr := p.handle(strings.TrimRight(line, "\r\n")); perr != nil {
			return nil, perr
		}

		if err == io.EOF {
			break
		}
	}

	if p.inTable {
		return nil, p.malformedAt(0, fmt.Sprintf("%s %s: table opened on line %d is missing its %s terminator", p.cur.Kind, p.cur.ID, p.tableLine, p.tableEnd()))
	}
	p.flush()

	return p.records, nil
}

func (p *parser) handle(line string) error {
	if p.inTable {
		return p.handleTableLine(line)
	}

	if strings.TrimSpace(line) == "" {
		return nil
	}

	switch line[0] {
	case '^':
		return p.startSection(line)
	case '!':
		if p.cur == nil {
			return p.malformed("attribute before the first ^SECTION header")
		}
		return p.handleBang(line)
	case '#':
		if p.cur == nil {
			return p.malformed("column description before the first ^SECTION header")
		}
		name, desc, _ := strings.Cut(line[1:], "=")
		p.cur.Columns = append(p.cur.Columns, Column{Name: strings.TrimSpace(name), Description: strings.TrimSpace(desc)})
		return nil
	}

	return p.malformed(fmt.Sprintf("unrecognized line %q", truncate(line)))
}

func (p *parser) startSection(line string) error {
	kind, id, found := strings.Cut(line[1:], "=")
	kind, id = strings.ToUpper(strings.TrimSpace(kind)), strings.TrimSpace(id)
	if !found || kind == "" || id == "" {
		return p.malformed(fmt.Sprintf("section header %q is not of the form ^KIND = ID", truncate(line)))
	}

	p.flush()
	p.cur = &Record{Kind: kind, ID: id, Line: p.lineNum}

	return nil
}

func (p *parser) handleBang(line string) error {
	key, value, found := strings.Cut(line[1:], "=")
	if !found {
		return p.handleMarker(line)
	}
	key = strings.TrimSpace(key)

	// !Series_title -> title when inside a SERIES section.
	prefix := p.cur.Kind + "_"
	if len(key) > len(prefix) && strings.EqualFold(key[:len(prefix)], prefix) {
		key = key[len(prefix):]
	}

	p.cur.Attributes.Add(key, strings.TrimSpace(value))

	return nil
}

// handleMarker handles a ! line with no "=", which can only open or close a
// data table.
func (p *parser) handleMarker(line string) error {
	lower := strings.ToLower(strings.TrimSpace(line))

	if lower == "!"+strings.ToLower(p.cur.Kind)+tableBeginSuffix {
		if p.cur.Table != nil {
			return p.malformed(fmt.Sprintf("%s %s declares a second data table", p.cur.Kind, p.cur.ID))
		}
		p.cur.Table = &Table{}
		p.inTable = true
		p.tableLine = p.lineNum
		return nil
	}

	switch {
	case strings.HasSuffix(lower, tableEndSuffix):
		return p.malformed(fmt.Sprintf("%s without a matching table begin", truncate(line)))
	case strings.HasSuffix(lower, tableBeginSuffix):
		return p.malformed(fmt.Sprintf("%s inside %s %s", truncate(line), p.cur.Kind, p.cur.ID))
	}

	return p.malformed(fmt.Sprintf("attribute %q is not of the form !key = value", truncate(line)))
}

func (p *parser) handleTableLine(line string) error {
	if strings.HasPrefix(line, "^") {
		return p.malformed(fmt.Sprintf("%s %s: new section began before the table opened on line %d reached its %s terminator", p.cur.Kind, p.cur.ID, p.tableLine, p.tableEnd()))
	}

	if strings.EqualFold(line, p.tableEnd()) {
		p.inTable = false
		return nil
	}

	if strings.TrimSpace(line) == "" {
		return nil
	}

	t := p.cur.Table
	cells := strings.Split(line, "\t")

	if t.Header == nil {
		t.Header = cells
		return nil
	}

	if len(cells) != len(t.Header) {
		return p.malformed(fmt.Sprintf("%s %s: data row has %d columns, header declares %d", p.cur.Kind, p.cur.ID, len(cells), len(t.Header)))
	}

	t.Rows = append(t.Rows, cells)

	return nil
}

func (p *parser) flush() {
	if p.cur != nil {
		p.records = append(p.records, *p.cur)
		p.cur = nil
	}
}

func (p *parser) tableEnd() string {
	return "!" + strings.ToLower(p.cur.Kind) + tableEndSuffix
}

func (p *parser) malformed(reason string) error {
	return p.malformedAt(p.lineNum, reason)
}

func (p *parser) malformedAt(line int, reason string) error {
	return &MalformedInputError{Line: line, Reason: reason}
}

func truncate(s string) string {
	if len(s) > 80 {
		return s[:77] + "..."
	}
	return s
}
