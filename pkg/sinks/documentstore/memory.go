package documentstore

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/NeuralTrust/TrustShield/pkg/utils"
	"github.com/google/go-cmp/cmp"
)

var ErrNotFound = errors.New("document not found")

// MemoryCollection is an in-process Collection supporting the common
// comparison and logical query operators.
type MemoryCollection struct {
	mu   sync.RWMutex
	docs []Document
}

func NewMemoryCollection(docs ...Document) *MemoryCollection {
	c := &MemoryCollection{}
	for _, d := range docs {
		c.docs = append(c.docs, copyDocument(d))
	}
	return c
}

func (c *MemoryCollection) Insert(_ context.Context, doc Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs = append(c.docs, copyDocument(doc))
}

func (c *MemoryCollection) Find(_ context.Context, filter Filter) ([]Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Document
	for _, d := range c.docs {
		if matches(d, filter) {
			out = append(out, copyDocument(d))
		}
	}
	return out, nil
}

func (c *MemoryCollection) FindOne(ctx context.Context, filter Filter) (Document, error) {
	docs, err := c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return docs[0], nil
}

func (c *MemoryCollection) UpdateOne(_ context.Context, filter Filter, update Document) (int64, error) {
	return c.update(filter, update, 1), nil
}

func (c *MemoryCollection) UpdateMany(_ context.Context, filter Filter, update Document) (int64, error) {
	return c.update(filter, update, -1), nil
}

func (c *MemoryCollection) update(filter Filter, update Document, limit int) int64 {
	set, ok := utils.AsPlainObject(update["$set"])
	if !ok {
		set = update
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for _, d := range c.docs {
		if limit >= 0 && n >= int64(limit) {
			break
		}
		if !matches(d, filter) {
			continue
		}
		for k, v := range set {
			d[k] = v
		}
		n++
	}
	return n
}

func (c *MemoryCollection) DeleteOne(_ context.Context, filter Filter) (int64, error) {
	return c.delete(filter, 1), nil
}

func (c *MemoryCollection) DeleteMany(_ context.Context, filter Filter) (int64, error) {
	return c.delete(filter, -1), nil
}

func (c *MemoryCollection) delete(filter Filter, limit int) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	kept := c.docs[:0]
	for _, d := range c.docs {
		if (limit < 0 || n < int64(limit)) && matches(d, filter) {
			n++
			continue
		}
		kept = append(kept, d)
	}
	c.docs = kept
	return n
}

func (c *MemoryCollection) CountDocuments(ctx context.Context, filter Filter) (int64, error) {
	docs, err := c.Find(ctx, filter)
	return int64(len(docs)), err
}

func matches(doc Document, filter Filter) bool {
	for key, cond := range filter {
		switch key {
		case "$and", "$or", "$nor":
			if !matchLogical(doc, key, cond) {
				return false
			}
			continue
		}
		value, present := doc[key]
		if ops, ok := operators(cond); ok {
			for op, arg := range ops {
				if !matchOperator(value, present, op, arg) {
					return false
				}
			}
			continue
		}
		if !equal(value, cond) {
			return false
		}
	}
	return true
}

func matchLogical(doc Document, op string, cond any) bool {
	clauses, ok := utils.AsArray(cond)
	if !ok {
		return false
	}
	matched := false
	for _, clause := range clauses {
		sub, ok := utils.AsPlainObject(clause)
		if !ok {
			return false
		}
		m := matches(doc, sub)
		switch op {
		case "$and":
			if !m {
				return false
			}
		case "$or", "$nor":
			matched = matched || m
		}
	}
	switch op {
	case "$or":
		return matched
	case "$nor":
		return !matched
	}
	return true
}

func operators(v any) (map[string]any, bool) {
	obj, ok := utils.AsPlainObject(v)
	if !ok || len(obj) == 0 {
		return nil, false
	}
	for k := range obj {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return obj, true
}

func matchOperator(value any, present bool, op string, arg any) bool {
	switch op {
	case "$eq":
		return equal(value, arg)
	case "$ne":
		return !equal(value, arg)
	case "$gt", "$gte", "$lt", "$lte":
		c, ok := compare(value, arg)
		if !ok {
			return false
		}
		switch op {
		case "$gt":
			return c > 0
		case "$gte":
			return c >= 0
		case "$lt":
			return c < 0
		default:
			return c <= 0
		}
	case "$in", "$nin":
		list, ok := utils.AsArray(arg)
		if !ok {
			return false
		}
		found := false
		for _, candidate := range list {
			if equal(value, candidate) {
				found = true
				break
			}
		}
		return found == (op == "$in")
	case "$exists":
		want, _ := arg.(bool)
		return present == want
	case "$not":
		ops, ok := operators(arg)
		if !ok {
			return false
		}
		for inner, innerArg := range ops {
			if !matchOperator(value, present, inner, innerArg) {
				return true
			}
		}
		return false
	}
	return false
}

func equal(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	return cmp.Equal(a, b)
}

func compare(a, b any) (int, bool) {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1, true
			case fa > fb:
				return 1, true
			}
			return 0, true
		}
	}
	sa, okA := a.(string)
	sb, okB := b.(string)
	if okA && okB {
		return strings.Compare(sa, sb), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}

func copyDocument(d Document) Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
