package utils

import (
	"strconv"
	"strings"
)

// ExtractStringsFromUserInput walks a user input tree and returns every
// string found, keys included, mapped to the path where it was first seen.
// Arrays also contribute their comma joined form and string values that
// decode as JWTs contribute their payload.
func ExtractStringsFromUserInput(input any) map[string]string {
	results := make(map[string]string)
	extract(input, nil, results, true)
	return results
}

// ExtractStringValuesFromUserInput is ExtractStringsFromUserInput without
// object keys. Field names such as "limit" or "order" are chosen by the
// application, not the user, and must not be matched against statements.
func ExtractStringValuesFromUserInput(input any) map[string]string {
	results := make(map[string]string)
	extract(input, nil, results, false)
	return results
}

func extract(input any, path []string, results map[string]string, withKeys bool) {
	if obj, ok := AsPlainObject(input); ok {
		for key, value := range obj {
			if withKeys {
				add(results, key, path)
			}
			extract(value, append(path[:len(path):len(path)], "."+key), results, withKeys)
		}
		return
	}

	if arr, ok := AsArray(input); ok {
		parts := make([]string, 0, len(arr))
		for i, value := range arr {
			extract(value, append(path[:len(path):len(path)], ".["+strconv.Itoa(i)+"]"), results, withKeys)
			if s, isString := value.(string); isString {
				parts = append(parts, s)
			}
		}
		if len(parts) == len(arr) && len(parts) > 1 {
			add(results, strings.Join(parts, ","), path)
		}
		return
	}

	if s, ok := input.(string); ok {
		add(results, s, path)
		if decoded := TryDecodeAsJWT(s); decoded.JWT {
			extract(decoded.Object, append(path[:len(path):len(path)], "<jwt>"), results, withKeys)
		}
	}
}

func add(results map[string]string, value string, path []string) {
	if _, seen := results[value]; seen {
		return
	}
	results[value] = BuildPathToPayload(path)
}

func BuildPathToPayload(path []string) string {
	if len(path) == 0 {
		return "."
	}
	return strings.Join(path, "")
}
