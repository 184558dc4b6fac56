package httpx

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipCompress(data []byte) []byte {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, _ = gz.Write(data)
	_ = gz.Close()
	return buf.Bytes()
}

func brCompress(data []byte) []byte {
	var buf bytes.Buffer
	br := brotli.NewWriter(&buf)
	_, _ = br.Write(data)
	_ = br.Close()
	return buf.Bytes()
}

func zstdCompress(data []byte) []byte {
	var buf bytes.Buffer
	zw, _ := zstd.NewWriter(&buf)
	_, _ = zw.Write(data)
	_ = zw.Close()
	return buf.Bytes()
}

func zlibCompress(data []byte) []byte {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, _ = zw.Write(data)
	_ = zw.Close()
	return buf.Bytes()
}

func rawDeflateCompress(data []byte) []byte {
	var buf bytes.Buffer
	dw, _ := flate.NewWriter(&buf, flate.DefaultCompression)
	_, _ = dw.Write(data)
	_ = dw.Close()
	return buf.Bytes()
}

func TestDecodeBody(t *testing.T) {
	payload := []byte(`{"directory":"'; ls ~"}`)

	tests := []struct {
		name     string
		encoding string
		body     []byte
	}{
		{"identity", "", payload},
		{"gzip", "gzip", gzipCompress(payload)},
		{"brotli", "br", brCompress(payload)},
		{"zstd", "zstd", zstdCompress(payload)},
		{"zlib deflate", "deflate", zlibCompress(payload)},
		{"raw deflate", "deflate", rawDeflateCompress(payload)},
		{"chained", "gzip, br", brCompress(gzipCompress(payload))},
		{"upper case", "GZIP", gzipCompress(payload)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := DecodeBody(tt.encoding, tt.body, 1024)
			require.NoError(t, err)
			assert.Equal(t, payload, out)
		})
	}
}

func TestDecodeBody_Errors(t *testing.T) {
	_, err := DecodeBody("compress-x", []byte("abc"), 1024)
	assert.ErrorContains(t, err, "unsupported content-encoding")

	_, err = DecodeBody("gzip", []byte("not gzip"), 1024)
	assert.Error(t, err)
}

func TestDecodeBody_StopsAtLimit(t *testing.T) {
	bomb := bytes.Repeat([]byte{0}, 4*1024*1024)
	const limit = 64 * 1024

	tests := []struct {
		name     string
		encoding string
		body     []byte
	}{
		{"gzip", "gzip", gzipCompress(bomb)},
		{"brotli", "br", brCompress(bomb)},
		{"zstd", "zstd", zstdCompress(bomb)},
		{"zlib deflate", "deflate", zlibCompress(bomb)},
		{"raw deflate", "deflate", rawDeflateCompress(bomb)},
		{"chained", "gzip, br", brCompress(gzipCompress(bomb))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Less(t, len(tt.body), limit)
			out, err := DecodeBody(tt.encoding, tt.body, limit)
			assert.ErrorIs(t, err, ErrBodyTooLarge)
			assert.Nil(t, out)
		})
	}

	out, err := DecodeBody("gzip", gzipCompress(bomb[:limit]), limit)
	require.NoError(t, err)
	assert.Len(t, out, limit)
}
