package download

import (
	"io"
	"log"
)

// ProgressInterval is how many bytes pass between progress log lines.
const ProgressInterval = 128 << 10

// Logger is the subset of *log.Logger the fetcher writes to.
type Logger interface {
	Printf(format string, v ...interface{})
	Println(v ...interface{})
}

var discard Logger = log.New(io.Discard, "", 0)

// progressReader logs every ProgressInterval bytes read. total is the
// expected size, or <= 0 when the server did not say.
type progressReader struct {
	r     io.Reader
	log   Logger
	id    string
	total int64

	read     int64
	reported int64
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	p.read += int64(n)

	if p.read-p.reported >= ProgressInterval {
		p.reported = p.read - p.read%ProgressInterval
		p.report()
	}

	return n, err
}

func (p *progressReader) report() {
	if p.total > 0 {
		p.log.Printf("%s: %d of %d bytes (%.1f%%)\n", p.id, p.read, p.total, 100*float64(p.read)/float64(p.total))
		return
	}
	p.log.Printf("%s: %d bytes\n", p.id, p.read)
}
