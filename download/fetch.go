// Package download fetches GEO SOFT files into a flat on-disk cache.
package download

import (
	"bufio"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/carbocation/geofetch"
	"github.com/carbocation/geofetch/accession"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const userAgent = "geofetch (+https://github.com/carbocation/geofetch)"

// Fetcher resolves accession IDs to local SOFT files, downloading on a cache
// miss. The zero value is not usable; see NewFetcher.
type Fetcher struct {
	CacheDir string

	// TmpDir holds in-flight downloads. Defaults to CacheDir.
	TmpDir string

	// FTPBase and QueryBase override the NCBI endpoints.
	FTPBase   string
	QueryBase string

	Client *resty.Client

	// Mirror, if set, is consulted on a local miss and receives every fresh
	// download.
	Mirror Mirror

	Log Logger
}

func NewFetcher(cacheDir string) *Fetcher {
	client := resty.New()
	client.SetHeader("User-Agent", userAgent)

	return &Fetcher{
		CacheDir: cacheDir,
		Client:   client,
		Log:      discard,
	}
}

func (f *Fetcher) logger() Logger {
	if f.Log == nil {
		return discard
	}
	return f.Log
}

func (f *Fetcher) tmpDir() string {
	if f.TmpDir == "" {
		return f.CacheDir
	}
	return f.TmpDir
}

// Fetch returns the cache path holding the SOFT file for rawID. An existing
// cache file is returned without touching the network. The cache file is
// always gzip compressed.
func (f *Fetcher) Fetch(ctx context.Context, rawID string) (string, error) {
	id, err := accession.Parse(rawID)
	if err != nil {
		return "", err
	}

	dest := id.CachePath(f.CacheDir)
	if _, err := os.Stat(dest); err == nil {
		f.logger().Printf("%s: cached at %s\n", id, dest)
		return dest, nil
	}

	for _, dir := range []string{f.CacheDir, f.tmpDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", &CacheWriteError{Path: dir, Err: err}
		}
	}

	tmpPath := filepath.Join(f.tmpDir(), tmpName(id))
	tmp, err := os.OpenFile(tmpPath, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", &CacheWriteError{Path: tmpPath, Err: err}
	}
	defer os.Remove(tmpPath)

	w := &errWriter{w: tmp}
	fromMirror, err := f.fill(ctx, id, w)
	if err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", &CacheWriteError{Path: tmpPath, Err: err}
	}

	if err := commit(id, tmpPath, dest); err != nil {
		return "", err
	}
	f.logger().Printf("%s: saved to %s\n", id, dest)

	if f.Mirror != nil && !fromMirror {
		f.upload(ctx, id, dest)
	}

	return dest, nil
}

// fill writes the gzip payload for id into w, from the mirror when it has a
// copy and from the network otherwise.
func (f *Fetcher) fill(ctx context.Context, id accession.ID, w *errWriter) (bool, error) {
	if f.Mirror != nil {
		found, err := f.Mirror.Get(ctx, id.CacheName(), w)
		if w.err != nil {
			return false, &CacheWriteError{Path: w.name(), Err: w.err}
		} else if err != nil {
			return false, &NetworkError{ID: id.String(), URL: "mirror", Err: err}
		}
		if found {
			f.logger().Printf("%s: restored from mirror\n", id)
			return true, nil
		}
	}

	return false, f.download(ctx, id, w)
}

func (f *Fetcher) download(ctx context.Context, id accession.ID, w *errWriter) error {
	url := id.URL(f.FTPBase, f.QueryBase)
	f.logger().Printf("%s: downloading %s\n", id, url)

	client := f.Client
	if client == nil {
		client = resty.New()
	}

	resp, err := client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return &NetworkError{ID: id.String(), URL: url, Err: err}
	}
	body := resp.RawBody()
	defer body.Close()

	switch code := resp.StatusCode(); {
	case code == http.StatusNotFound || code == http.StatusGone:
		return &NotFoundError{ID: id.String(), URL: url, StatusCode: code}
	case code < 200 || code > 299:
		return &NetworkError{ID: id.String(), URL: url, StatusCode: code}
	}

	var total int64 = -1
	if resp.RawResponse != nil {
		total = resp.RawResponse.ContentLength
	}
	br := bufio.NewReader(&progressReader{r: body, log: f.logger(), id: id.String(), total: total})

	dt, err := geofetch.PeekDataType(br)
	if err != nil {
		return &NetworkError{ID: id.String(), URL: url, Err: err}
	}

	// Other encodings are unpacked and recompressed so that every cache file
	// is gzip.
	if dt == geofetch.DataTypeGzip {
		_, err = io.Copy(w, br)
	} else {
		err = regzip(w, br)
	}

	if w.err != nil {
		return &CacheWriteError{Path: w.name(), Err: w.err}
	} else if err != nil {
		return &NetworkError{ID: id.String(), URL: url, Err: err}
	}

	return nil
}

func regzip(w io.Writer, r io.Reader) error {
	rc, err := geofetch.MaybeDecompress(r)
	if err != nil {
		return err
	}
	defer rc.Close()

	gz := gzip.NewWriter(w)
	if _, err := io.Copy(gz, rc); err != nil {
		return err
	}

	return gz.Close()
}

func (f *Fetcher) upload(ctx context.Context, id accession.ID, path string) {
	file, err := os.Open(path)
	if err != nil {
		f.logger().Printf("%s: not mirrored: %v\n", id, err)
		return
	}
	defer file.Close()

	if err := f.Mirror.Put(ctx, id.CacheName(), file); err != nil {
		f.logger().Printf("%s: not mirrored: %v\n", id, err)
		return
	}
	f.logger().Printf("%s: mirrored\n", id)
}

// commit moves the finished temp file into place. When a plain rename fails,
// such as across filesystems, the data is first copied next to dest so that
// the final step is still a rename.
func commit(id accession.ID, tmpPath, dest string) error {
	if err := os.Rename(tmpPath, dest); err == nil {
		return nil
	}

	local := filepath.Join(filepath.Dir(dest), tmpName(id))
	if err := copyFile(tmpPath, local); err != nil {
		os.Remove(local)
		return &CacheWriteError{Path: local, Err: err}
	}
	if err := os.Rename(local, dest); err != nil {
		os.Remove(local)
		return &CacheWriteError{Path: dest, Err: err}
	}

	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}

func tmpName(id accession.ID) string {
	return "tmp." + id.String() + "." + uuid.NewString()
}

// errWriter remembers the first write error so that a failed copy can be
// blamed on the disk rather than the network.
type errWriter struct {
	w   *os.File
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}

func (e *errWriter) name() string { return e.w.Name() }

// IsNotFound reports whether err, anywhere in its chain, is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
