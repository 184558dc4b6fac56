package httpx

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

var ErrBodyTooLarge = errors.New("decoded body exceeds limit")

// DecodeBody undoes a Content-Encoding chain such as "gzip, br".
// Encodings are removed in reverse order of application. No stage may
// produce more than limit bytes; ErrBodyTooLarge is returned instead.
func DecodeBody(contentEncoding string, body []byte, limit int64) ([]byte, error) {
	if contentEncoding == "" || len(body) == 0 {
		return body, nil
	}
	encodings := strings.Split(contentEncoding, ",")
	for i := len(encodings) - 1; i >= 0; i-- {
		var err error
		switch enc := strings.TrimSpace(strings.ToLower(encodings[i])); enc {
		case "br":
			body, err = readLimited(brotli.NewReader(bytes.NewReader(body)), limit)
		case "gzip", "x-gzip":
			body, err = decodeGzip(body, limit)
		case "zstd":
			body, err = decodeZstd(body, limit)
		case "deflate":
			body, err = decodeDeflate(body, limit)
		case "identity", "":
		default:
			return nil, fmt.Errorf("unsupported content-encoding: %q", enc)
		}
		if err != nil {
			return nil, err
		}
	}
	return body, nil
}

// readLimited reads r to the end unless it yields more than limit bytes.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(out)) > limit {
		return nil, ErrBodyTooLarge
	}
	return out, nil
}

func readLimitedClose(r io.ReadCloser, limit int64) ([]byte, error) {
	out, err := readLimited(r, limit)
	if cerr := r.Close(); err == nil {
		err = cerr
	}
	return out, err
}

func decodeGzip(body []byte, limit int64) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return readLimitedClose(r, limit)
}

func decodeZstd(body []byte, limit int64) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return readLimited(dec, limit)
}

// decodeDeflate accepts zlib wrapped streams and falls back to raw deflate.
func decodeDeflate(body []byte, limit int64) ([]byte, error) {
	if r, err := zlib.NewReader(bytes.NewReader(body)); err == nil {
		out, err := readLimitedClose(r, limit)
		if err == nil || errors.Is(err, ErrBodyTooLarge) {
			return out, err
		}
	}
	return readLimitedClose(flate.NewReader(bytes.NewReader(body)), limit)
}
