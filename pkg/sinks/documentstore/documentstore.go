// Package documentstore guards document database filters against NoSQL
// injection.
package documentstore

import (
	"context"

	"github.com/NeuralTrust/TrustShield/pkg/hooks"
	"github.com/NeuralTrust/TrustShield/pkg/requestcontext"
	"github.com/NeuralTrust/TrustShield/pkg/vulnerabilities/nosqlinjection"
)

const (
	Module = "mongodb"

	MethodFind           = "find"
	MethodFindOne        = "findOne"
	MethodUpdateOne      = "updateOne"
	MethodUpdateMany     = "updateMany"
	MethodDeleteOne      = "deleteOne"
	MethodDeleteMany     = "deleteMany"
	MethodCountDocuments = "countDocuments"
)

var filterMethods = []string{
	MethodFind,
	MethodFindOne,
	MethodUpdateOne,
	MethodUpdateMany,
	MethodDeleteOne,
	MethodDeleteMany,
	MethodCountDocuments,
}

type Document = map[string]any

type Filter = map[string]any

// Collection is the subset of a document collection API whose filters come
// from callers.
type Collection interface {
	Find(ctx context.Context, filter Filter) ([]Document, error)
	FindOne(ctx context.Context, filter Filter) (Document, error)
	UpdateOne(ctx context.Context, filter Filter, update Document) (int64, error)
	UpdateMany(ctx context.Context, filter Filter, update Document) (int64, error)
	DeleteOne(ctx context.Context, filter Filter) (int64, error)
	DeleteMany(ctx context.Context, filter Filter) (int64, error)
	CountDocuments(ctx context.Context, filter Filter) (int64, error)
}

type Wrapper struct {
	Package string
}

func (w Wrapper) Wrap(h *hooks.Hooks) {
	module := h.AddModule(Module)
	if w.Package != "" {
		module.ForPackage(w.Package)
	}
	subject := module.AddSubject(func(exports any) any {
		if c, ok := exports.(Collection); ok {
			return c
		}
		return nil
	})
	for _, method := range filterMethods {
		subject.Inspect(method, inspect(method))
	}
}

func inspect(method string) hooks.InspectFunc {
	return func(ctx context.Context, args []any, _ any, agent hooks.Agent) error {
		request, ok := requestcontext.Current(ctx)
		if !ok || len(args) == 0 {
			return nil
		}
		return nosqlinjection.CheckContextForNoSQLInjection(ctx, args[0], request, agent, Module, method)
	}
}

// Guard returns a Collection whose filters are inspected before they reach
// inner.
func Guard(inner Collection, interceptor *hooks.Interceptor) Collection {
	return &guarded{inner: inner, interceptor: interceptor}
}

type guarded struct {
	inner       Collection
	interceptor *hooks.Interceptor
}

func (g *guarded) check(ctx context.Context, method string, filter Filter) error {
	return g.interceptor.Do(ctx, Module, method, g.inner, filter)
}

func (g *guarded) Find(ctx context.Context, filter Filter) ([]Document, error) {
	if err := g.check(ctx, MethodFind, filter); err != nil {
		return nil, err
	}
	return g.inner.Find(ctx, filter)
}

func (g *guarded) FindOne(ctx context.Context, filter Filter) (Document, error) {
	if err := g.check(ctx, MethodFindOne, filter); err != nil {
		return nil, err
	}
	return g.inner.FindOne(ctx, filter)
}

func (g *guarded) UpdateOne(ctx context.Context, filter Filter, update Document) (int64, error) {
	if err := g.check(ctx, MethodUpdateOne, filter); err != nil {
		return 0, err
	}
	return g.inner.UpdateOne(ctx, filter, update)
}

func (g *guarded) UpdateMany(ctx context.Context, filter Filter, update Document) (int64, error) {
	if err := g.check(ctx, MethodUpdateMany, filter); err != nil {
		return 0, err
	}
	return g.inner.UpdateMany(ctx, filter, update)
}

func (g *guarded) DeleteOne(ctx context.Context, filter Filter) (int64, error) {
	if err := g.check(ctx, MethodDeleteOne, filter); err != nil {
		return 0, err
	}
	return g.inner.DeleteOne(ctx, filter)
}

func (g *guarded) DeleteMany(ctx context.Context, filter Filter) (int64, error) {
	if err := g.check(ctx, MethodDeleteMany, filter); err != nil {
		return 0, err
	}
	return g.inner.DeleteMany(ctx, filter)
}

func (g *guarded) CountDocuments(ctx context.Context, filter Filter) (int64, error) {
	if err := g.check(ctx, MethodCountDocuments, filter); err != nil {
		return 0, err
	}
	return g.inner.CountDocuments(ctx, filter)
}
