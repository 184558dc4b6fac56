package documentstore_test

import (
	"context"
	"testing"

	"github.com/NeuralTrust/TrustShield/pkg/hooks"
	"github.com/NeuralTrust/TrustShield/pkg/hooks/mocks"
	"github.com/NeuralTrust/TrustShield/pkg/requestcontext"
	"github.com/NeuralTrust/TrustShield/pkg/sinks/documentstore"
	"github.com/NeuralTrust/TrustShield/pkg/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func users() *documentstore.MemoryCollection {
	return documentstore.NewMemoryCollection(
		documentstore.Document{"username": "admin", "password": "s3cret", "age": 41},
		documentstore.Document{"username": "guest", "password": "guest", "age": 19},
	)
}

func setup(block bool) (documentstore.Collection, *documentstore.MemoryCollection, *mocks.Agent) {
	h := hooks.New()
	documentstore.Wrapper{}.Wrap(h)
	agent := mocks.NewPermissive(block)
	inner := users()
	return documentstore.Guard(inner, hooks.NewInterceptor(h, agent, logrus.New())), inner, agent
}

func login(body map[string]any) (context.Context, documentstore.Filter) {
	ctx := requestcontext.With(context.Background(), &types.Context{
		Method: "POST",
		URL:    "/users/search",
		Body:   body,
	})
	return ctx, documentstore.Filter{"username": body["username"], "password": body["password"]}
}

func TestGuard_BlocksOperatorInjection(t *testing.T) {
	coll, _, agent := setup(true)
	ctx, filter := login(map[string]any{
		"username": map[string]any{"$ne": nil},
		"password": map[string]any{"$ne": nil},
	})

	_, err := coll.FindOne(ctx, filter)

	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrBlocked)
	attacks := agent.Attacks()
	require.Len(t, attacks, 1)
	assert.Equal(t, types.KindNoSQLInjection, attacks[0].Kind)
	assert.Equal(t, documentstore.MethodFindOne, attacks[0].Operation)
	assert.Equal(t, types.SourceBody, attacks[0].Source)
}

func TestGuard_DryRunLeaksDocument(t *testing.T) {
	coll, _, agent := setup(false)
	ctx, filter := login(map[string]any{
		"username": map[string]any{"$ne": nil},
		"password": map[string]any{"$ne": nil},
	})

	doc, err := coll.FindOne(ctx, filter)

	require.NoError(t, err)
	assert.Equal(t, "admin", doc["username"])
	require.Len(t, agent.Attacks(), 1)
	assert.False(t, agent.Attacks()[0].Blocked)
}

func TestGuard_LiteralFilter(t *testing.T) {
	coll, _, agent := setup(true)
	ctx, filter := login(map[string]any{"username": "guest", "password": "guest"})

	doc, err := coll.FindOne(ctx, filter)

	require.NoError(t, err)
	assert.Equal(t, "guest", doc["username"])
	assert.Empty(t, agent.Attacks())
}

func TestGuard_EveryFilterMethodIsInspected(t *testing.T) {
	coll, inner, _ := setup(true)
	ctx, filter := login(map[string]any{"username": map[string]any{"$gt": ""}, "password": "x"})

	_, err := coll.Find(ctx, filter)
	assert.ErrorIs(t, err, types.ErrBlocked)
	_, err = coll.UpdateOne(ctx, filter, documentstore.Document{"$set": map[string]any{"admin": true}})
	assert.ErrorIs(t, err, types.ErrBlocked)
	_, err = coll.UpdateMany(ctx, filter, documentstore.Document{"admin": true})
	assert.ErrorIs(t, err, types.ErrBlocked)
	_, err = coll.DeleteOne(ctx, filter)
	assert.ErrorIs(t, err, types.ErrBlocked)
	_, err = coll.DeleteMany(ctx, filter)
	assert.ErrorIs(t, err, types.ErrBlocked)
	_, err = coll.CountDocuments(ctx, filter)
	assert.ErrorIs(t, err, types.ErrBlocked)

	n, _ := inner.CountDocuments(context.Background(), documentstore.Filter{})
	assert.Equal(t, int64(2), n)
}

func TestMemoryCollection_Operators(t *testing.T) {
	ctx := context.Background()
	coll := users()

	tests := []struct {
		name   string
		filter documentstore.Filter
		want   int64
	}{
		{name: "empty", filter: documentstore.Filter{}, want: 2},
		{name: "literal", filter: documentstore.Filter{"username": "admin"}, want: 1},
		{name: "ne null", filter: documentstore.Filter{"username": map[string]any{"$ne": nil}}, want: 2},
		{name: "gt", filter: documentstore.Filter{"age": map[string]any{"$gt": float64(20)}}, want: 1},
		{name: "lte", filter: documentstore.Filter{"age": map[string]any{"$lte": 41}}, want: 2},
		{name: "in", filter: documentstore.Filter{"username": map[string]any{"$in": []any{"guest", "root"}}}, want: 1},
		{name: "nin", filter: documentstore.Filter{"username": map[string]any{"$nin": []any{"guest"}}}, want: 1},
		{name: "exists", filter: documentstore.Filter{"email": map[string]any{"$exists": false}}, want: 2},
		{name: "or", filter: documentstore.Filter{"$or": []any{
			map[string]any{"username": "admin"},
			map[string]any{"username": "guest"},
		}}, want: 2},
		{name: "nor", filter: documentstore.Filter{"$nor": []any{map[string]any{"username": "admin"}}}, want: 1},
		{name: "not", filter: documentstore.Filter{"age": map[string]any{"$not": map[string]any{"$gt": 30}}}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := coll.CountDocuments(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestMemoryCollection_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	coll := users()

	n, err := coll.UpdateOne(ctx, documentstore.Filter{"username": "guest"}, documentstore.Document{"$set": map[string]any{"age": 20}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	doc, err := coll.FindOne(ctx, documentstore.Filter{"username": "guest"})
	require.NoError(t, err)
	assert.Equal(t, 20, doc["age"])

	n, err = coll.DeleteMany(ctx, documentstore.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = coll.FindOne(ctx, documentstore.Filter{"username": "guest"})
	assert.ErrorIs(t, err, documentstore.ErrNotFound)
}
