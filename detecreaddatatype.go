package geofetch

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
	"os"

	"github.com/carbocation/pfx"
	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

type DataType byte

const (
	DataTypeInvalid DataType = iota
	DataTypeNoCompression
	DataTypeGzip
	DataTypeZip
	DataTypeXZ
	DataTypeZlib
	DataTypeBZip2
	DataTypeCompress
)

func (dt DataType) String() string {
	switch dt {
	case DataTypeNoCompression:
		return "uncompressed"
	case DataTypeGzip:
		return "gzip"
	case DataTypeZip:
		return "zip"
	case DataTypeXZ:
		return "xz"
	case DataTypeZlib:
		return "zlib"
	case DataTypeBZip2:
		return "bzip2"
	case DataTypeCompress:
		return "compress"
	}

	return "invalid"
}

var sigOrder = []DataType{DataTypeXZ, DataTypeZip, DataTypeGzip, DataTypeBZip2, DataTypeCompress}

// DataTypeCompress is Unix compress(1) (.Z). It is recognized only so that it
// can be rejected instead of being passed through as text.
var byteCodeSigs = map[DataType][]byte{
	DataTypeGzip:     {0x1f, 0x8b, 0x08},
	DataTypeZip:      {0x50, 0x4b, 0x03, 0x04},
	DataTypeXZ:       {0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00},
	DataTypeCompress: {0x1f, 0x9d},
	DataTypeBZip2:    {0x42, 0x5a, 0x68},
}

// isZlibHeader checks the RFC 1950 header: deflate method, a window of at most
// 32K, no preset dictionary, and a check value making the pair a multiple of 31.
func isZlibHeader(head []byte) bool {
	if len(head) < 2 {
		return false
	}
	cmf, flg := head[0], head[1]

	return cmf&0x0f == 8 && cmf>>4 <= 7 && flg&0x20 == 0 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}

// SniffLen is the number of leading bytes needed to recognize every supported
// signature.
const SniffLen = 6

// DetectDataTypeBytes matches the leading bytes of a stream against the known
// signatures. Byte code signatures from
// https://stackoverflow.com/a/19127748/199475
func DetectDataTypeBytes(head []byte) DataType {
	for _, dt := range sigOrder {
		if bytes.HasPrefix(head, byteCodeSigs[dt]) {
			return dt
		}
	}

	if isZlibHeader(head) {
		return DataTypeZlib
	}

	return DataTypeNoCompression
}

// DetectDataType consumes up to SniffLen bytes from r. Callers that need the
// bytes afterwards should use PeekDataType instead.
func DetectDataType(r io.Reader) (DataType, error) {
	buff := make([]byte, SniffLen)
	n, err := io.ReadFull(r, buff)
	if err != nil && err != io.ErrUnexpectedEOF {
		return DataTypeInvalid, err
	}

	return DetectDataTypeBytes(buff[:n]), nil
}

// PeekDataType detects the data type without consuming anything from br.
// Streams shorter than SniffLen are reported as uncompressed.
func PeekDataType(br *bufio.Reader) (DataType, error) {
	head, err := br.Peek(SniffLen)
	if err != nil && err != io.EOF {
		return DataTypeInvalid, err
	}

	return DetectDataTypeBytes(head), nil
}

// MaybeDecompress wraps r in the decompressor matching its leading bytes.
// Uncompressed streams are returned as-is (behind a buffer).
func MaybeDecompress(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	dt, err := PeekDataType(br)
	if err != nil {
		return nil, pfx.Err(err)
	}

	switch dt {
	case DataTypeGzip:
		return gzip.NewReader(br)
	case DataTypeZip:
		return &readCloserFaker{zipstream.NewReader(br)}, nil
	case DataTypeBZip2:
		return &readCloserFaker{bzip2.NewReader(br)}, nil
	case DataTypeXZ:
		reader, err := xz.NewReader(br, 0)
		if err != nil {
			return nil, err
		}
		return &readCloserFaker{reader}, nil
	case DataTypeZlib:
		return zlib.NewReader(br)
	case DataTypeCompress:
		return nil, fmt.Errorf("%s streams are not supported", dt)
	}

	return &readCloserFaker{br}, nil
}

// OpenMaybeCompressed opens path and returns a reader over its decompressed
// contents. Closing the returned reader closes the file.
func OpenMaybeCompressed(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	rc, err := MaybeDecompress(f)
	if err != nil {
		f.Close()
		return nil, pfx.Err(err)
	}

	return &fileReadCloser{ReadCloser: rc, f: f}, nil
}

// readCloserFaker "upgrades" readers that don't need to be closed
type readCloserFaker struct {
	io.Reader
}

func (c *readCloserFaker) Close() error {
	return nil
}

type fileReadCloser struct {
	io.ReadCloser
	f *os.File
}

func (c *fileReadCloser) Close() error {
	err := c.ReadCloser.Close()
	if ferr := c.f.Close(); err == nil {
		err = ferr
	}

	return err
}
