package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

// Mirror is a shared copy of the cache, keyed by cache file name.
type Mirror interface {
	// Get copies the named object into w. It reports false, with nothing
	// written, when the object does not exist.
	Get(ctx context.Context, name string, w io.Writer) (bool, error)
	Put(ctx context.Context, name string, r io.Reader) error
}

// GSMirror keeps cache files in a Google Storage bucket under Prefix.
type GSMirror struct {
	Client *storage.Client
	Bucket string
	Prefix string
}

// ParseMirrorURL splits gs://bucket/prefix into its bucket and prefix. The
// prefix may be empty.
func ParseMirrorURL(url string) (bucket, prefix string, err error) {
	if !strings.HasPrefix(url, "gs://") {
		return "", "", fmt.Errorf("mirror %q: only gs:// URLs are supported", url)
	}

	parts := strings.SplitN(strings.TrimPrefix(url, "gs://"), "/", 2)
	if parts[0] == "" {
		return "", "", fmt.Errorf("mirror %q: no bucket name", url)
	}
	if len(parts) == 2 {
		prefix = strings.Trim(parts[1], "/")
	}

	return parts[0], prefix, nil
}

// NewGSMirror connects to the bucket named by a gs:// URL with the default
// credentials.
func NewGSMirror(ctx context.Context, url string) (*GSMirror, error) {
	bucket, prefix, err := ParseMirrorURL(url)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, pfx.Err(err)
	}

	return &GSMirror{Client: client, Bucket: bucket, Prefix: prefix}, nil
}

func (m *GSMirror) objectName(name string) string {
	if m.Prefix == "" {
		return name
	}
	return m.Prefix + "/" + name
}

func (m *GSMirror) Get(ctx context.Context, name string, w io.Writer) (bool, error) {
	rdr, err := m.Client.Bucket(m.Bucket).Object(m.objectName(name)).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("gs://%s/%s: %w", m.Bucket, m.objectName(name), err)
	}
	defer rdr.Close()

	if _, err := io.Copy(w, rdr); err != nil {
		return false, fmt.Errorf("gs://%s/%s: %w", m.Bucket, m.objectName(name), err)
	}

	return true, nil
}

func (m *GSMirror) Put(ctx context.Context, name string, r io.Reader) error {
	w := m.Client.Bucket(m.Bucket).Object(m.objectName(name)).NewWriter(ctx)
	w.ContentType = "application/gzip"

	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("gs://%s/%s: %w", m.Bucket, m.objectName(name), err)
	}

	// The upload is only finalized by Close.
	if err := w.Close(); err != nil {
		return fmt.Errorf("gs://%s/%s: %w", m.Bucket, m.objectName(name), err)
	}

	return nil
}

func (m *GSMirror) Close() error {
	return m.Client.Close()
}
