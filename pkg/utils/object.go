package utils

// AsPlainObject returns v as a string keyed map when it is one.
func AsPlainObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, m != nil
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	case map[string][]string:
		out := make(map[string]any, len(m))
		for k, values := range m {
			out[k] = stringsToAny(values)
		}
		return out, true
	default:
		return nil, false
	}
}

// AsArray returns v as a slice of untyped values when it is one.
func AsArray(v any) ([]any, bool) {
	switch a := v.(type) {
	case []any:
		return a, true
	case []string:
		return stringsToAny(a), true
	case []map[string]any:
		out := make([]any, len(a))
		for i := range a {
			out[i] = a[i]
		}
		return out, true
	default:
		return nil, false
	}
}

func stringsToAny(values []string) []any {
	out := make([]any, len(values))
	for i := range values {
		out[i] = values[i]
	}
	return out
}
