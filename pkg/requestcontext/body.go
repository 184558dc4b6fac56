package requestcontext

import (
	"mime"
	"net/url"
	"strings"

	"github.com/NeuralTrust/TrustShield/pkg/infra/httpx"
	"github.com/valyala/fastjson"
)

var parserPool fastjson.ParserPool

// ParseBody decodes a raw request body into plain Go values. Bodies that
// cannot be decoded, or that decompress past maxCapturedBody, are dropped
// rather than reported as errors.
func ParseBody(contentType, contentEncoding string, raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	decoded, err := httpx.DecodeBody(contentEncoding, raw, maxCapturedBody)
	if err != nil {
		return nil
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		return parseJSON(decoded)
	case mediaType == "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(decoded))
		if err != nil {
			return nil
		}
		return Values(values)
	default:
		return string(decoded)
	}
}

func parseJSON(raw []byte) any {
	p := parserPool.Get()
	defer parserPool.Put(p)

	v, err := p.ParseBytes(raw)
	if err != nil {
		return nil
	}
	return toPlain(v)
}

// toPlain copies a fastjson value; the parser owns v once it is returned.
func toPlain(v *fastjson.Value) any {
	switch v.Type() {
	case fastjson.TypeObject:
		obj, _ := v.Object()
		out := make(map[string]any, obj.Len())
		obj.Visit(func(key []byte, value *fastjson.Value) {
			out[string(key)] = toPlain(value)
		})
		return out
	case fastjson.TypeArray:
		items, _ := v.Array()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = toPlain(item)
		}
		return out
	case fastjson.TypeString:
		s, _ := v.StringBytes()
		return string(s)
	case fastjson.TypeNumber:
		return v.GetFloat64()
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	default:
		return nil
	}
}

// Values converts multi-valued parameters into a bucket. Single values stay
// strings.
func Values(values map[string][]string) map[string]any {
	out := make(map[string]any, len(values))
	for key, vs := range values {
		Add(out, key, vs...)
	}
	return out
}

// Add appends values under key, promoting the entry to a list on repeat.
func Add(bucket map[string]any, key string, values ...string) {
	for _, value := range values {
		switch existing := bucket[key].(type) {
		case nil:
			bucket[key] = value
		case string:
			bucket[key] = []any{existing, value}
		case []any:
			bucket[key] = append(existing, value)
		}
	}
}
