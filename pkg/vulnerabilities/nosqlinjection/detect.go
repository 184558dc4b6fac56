// Package nosqlinjection flags document store filters that embed an
// operator object taken verbatim from user input.
package nosqlinjection

import (
	"github.com/NeuralTrust/TrustShield/pkg/types"
	"github.com/NeuralTrust/TrustShield/pkg/utils"
	"github.com/google/go-cmp/cmp"
)

var comparisonOperators = map[string]struct{}{
	"$eq":  {},
	"$gt":  {},
	"$gte": {},
	"$in":  {},
	"$lt":  {},
	"$lte": {},
	"$ne":  {},
	"$nin": {},
}

// sources are checked in priority order; the first match wins.
var sources = []types.Source{types.SourceBody, types.SourceQuery, types.SourceHeaders}

type Result struct {
	Injection bool
	Source    types.Source
}

func noInjection() Result {
	return Result{}
}

func injectionIn(source types.Source) Result {
	return Result{Injection: true, Source: source}
}

// DetectNoSQLInjection reports the first request bucket holding an operator
// object that also appears in filter.
func DetectNoSQLInjection(request *types.Context, filter any) Result {
	if request == nil {
		return noInjection()
	}
	if _, ok := utils.AsPlainObject(filter); !ok {
		return noInjection()
	}
	for _, source := range sources {
		bucket := request.Bucket(source)
		if bucket == nil {
			continue
		}
		if findInjectionInFilter(bucket, filter) {
			return injectionIn(source)
		}
	}
	return noInjection()
}

func findInjectionInFilter(userInput any, filter any) bool {
	obj, ok := utils.AsPlainObject(filter)
	if !ok {
		return false
	}
	for field, value := range obj {
		switch field {
		case "$and", "$or", "$nor":
			nested, isArray := utils.AsArray(value)
			if !isArray {
				continue
			}
			for _, sub := range nested {
				if findInjectionInFilter(userInput, sub) {
					return true
				}
			}
		case "$not":
			if findInjectionInFilter(userInput, value) {
				return true
			}
		default:
			if isOperatorObject(value) && matchInUserInput(userInput, value) {
				return true
			}
		}
	}
	return false
}

// isOperatorObject matches objects such as {"$ne": null}.
func isOperatorObject(v any) bool {
	obj, ok := utils.AsPlainObject(v)
	if !ok || len(obj) != 1 {
		return false
	}
	for key := range obj {
		_, known := comparisonOperators[key]
		return known
	}
	return false
}

// matchInUserInput walks the user input looking for a value deep equal to
// filterPart. Tokens are decoded and searched as well.
func matchInUserInput(userInput any, filterPart any) bool {
	if deepEqual(userInput, filterPart) {
		return true
	}
	if obj, ok := utils.AsPlainObject(userInput); ok {
		for _, value := range obj {
			if matchInUserInput(value, filterPart) {
				return true
			}
		}
		return false
	}
	if arr, ok := utils.AsArray(userInput); ok {
		for _, value := range arr {
			if matchInUserInput(value, filterPart) {
				return true
			}
		}
		return false
	}
	if s, ok := userInput.(string); ok {
		if decoded := utils.TryDecodeAsJWT(s); decoded.JWT {
			return matchInUserInput(decoded.Object, filterPart)
		}
	}
	return false
}

func deepEqual(a, b any) (equal bool) {
	if _, ok := utils.AsPlainObject(a); !ok {
		return false
	}
	defer func() {
		if recover() != nil {
			equal = false
		}
	}()
	return cmp.Equal(a, b)
}
