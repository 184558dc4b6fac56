package nosqlinjection_test

import (
	"context"
	"testing"

	"github.com/NeuralTrust/TrustShield/pkg/hooks/mocks"
	"github.com/NeuralTrust/TrustShield/pkg/types"
	"github.com/NeuralTrust/TrustShield/pkg/vulnerabilities/nosqlinjection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tokenWithOperator = "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9." +
	"eyJzdWIiOiIxMjM0NTY3ODkwIiwidXNlcm5hbWUiOnsiJG5lIjpudWxsfSwiaWF0IjoxNTE2MjM5MDIyfQ." +
	"K7B8lI8RXGx3UzmReqKJ0gtA25TDg0FHL3IQf5srf2E"

func ne() map[string]any {
	return map[string]any{"$ne": nil}
}

func TestDetectNoSQLInjection(t *testing.T) {
	tests := []struct {
		name     string
		request  *types.Context
		filter   any
		expected nosqlinjection.Result
	}{
		{
			name:     "operator from body",
			request:  &types.Context{Body: map[string]any{"username": ne()}},
			filter:   map[string]any{"username": ne(), "password": "x"},
			expected: nosqlinjection.Result{Injection: true, Source: types.SourceBody},
		},
		{
			name:     "literal filter",
			request:  &types.Context{Body: map[string]any{"username": "admin"}},
			filter:   map[string]any{"username": "admin", "password": "x"},
			expected: nosqlinjection.Result{},
		},
		{
			name:     "operator written by the application",
			request:  &types.Context{Body: map[string]any{"username": "admin"}},
			filter:   map[string]any{"username": "admin", "deletedAt": ne()},
			expected: nosqlinjection.Result{},
		},
		{
			name: "body wins over query",
			request: &types.Context{
				Body:  map[string]any{"username": ne()},
				Query: map[string]any{"username": ne()},
			},
			filter:   map[string]any{"username": ne()},
			expected: nosqlinjection.Result{Injection: true, Source: types.SourceBody},
		},
		{
			name:     "operator from query",
			request:  &types.Context{Query: map[string]any{"age": map[string]any{"$gt": "0"}}},
			filter:   map[string]any{"age": map[string]any{"$gt": "0"}},
			expected: nosqlinjection.Result{Injection: true, Source: types.SourceQuery},
		},
		{
			name:     "operator from headers",
			request:  &types.Context{Headers: map[string]any{"x-user": map[string]any{"$in": []any{"a"}}}},
			filter:   map[string]any{"user": map[string]any{"$in": []any{"a"}}},
			expected: nosqlinjection.Result{Injection: true, Source: types.SourceHeaders},
		},
		{
			name:    "nested in $and and $or",
			request: &types.Context{Body: map[string]any{"title": ne()}},
			filter: map[string]any{"$and": []any{
				map[string]any{"published": true},
				map[string]any{"$or": []any{map[string]any{"title": ne()}}},
			}},
			expected: nosqlinjection.Result{Injection: true, Source: types.SourceBody},
		},
		{
			name:     "nested in $nor",
			request:  &types.Context{Body: map[string]any{"title": ne()}},
			filter:   map[string]any{"$nor": []any{map[string]any{"title": ne()}}},
			expected: nosqlinjection.Result{Injection: true, Source: types.SourceBody},
		},
		{
			name:     "nested in $not",
			request:  &types.Context{Body: map[string]any{"title": ne()}},
			filter:   map[string]any{"$not": map[string]any{"title": ne()}},
			expected: nosqlinjection.Result{Injection: true, Source: types.SourceBody},
		},
		{
			name:     "$and is not an array",
			request:  &types.Context{Body: map[string]any{"title": ne()}},
			filter:   map[string]any{"$and": map[string]any{"title": ne()}},
			expected: nosqlinjection.Result{},
		},
		{
			name:     "multiple operators are not a single operator object",
			request:  &types.Context{Body: map[string]any{"age": map[string]any{"$gt": 1.0, "$lt": 9.0}}},
			filter:   map[string]any{"age": map[string]any{"$gt": 1.0, "$lt": 9.0}},
			expected: nosqlinjection.Result{},
		},
		{
			name:     "unknown operator",
			request:  &types.Context{Body: map[string]any{"name": map[string]any{"$regex": ".*"}}},
			filter:   map[string]any{"name": map[string]any{"$regex": ".*"}},
			expected: nosqlinjection.Result{},
		},
		{
			name:     "operator smuggled in a token",
			request:  &types.Context{Headers: map[string]any{"authorization": "Bearer " + tokenWithOperator}},
			filter:   map[string]any{"username": ne()},
			expected: nosqlinjection.Result{Injection: true, Source: types.SourceHeaders},
		},
		{
			name:     "filter is not an object",
			request:  &types.Context{Body: map[string]any{"username": ne()}},
			filter:   "username",
			expected: nosqlinjection.Result{},
		},
		{
			name:     "no request",
			request:  nil,
			filter:   map[string]any{"username": ne()},
			expected: nosqlinjection.Result{},
		},
		{
			name:     "body is a string",
			request:  &types.Context{Body: "username"},
			filter:   map[string]any{"username": ne()},
			expected: nosqlinjection.Result{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, nosqlinjection.DetectNoSQLInjection(tt.request, tt.filter))
		})
	}
}

func TestCheckContextForNoSQLInjection(t *testing.T) {
	request := &types.Context{Body: map[string]any{"username": ne(), "password": "x"}}
	filter := map[string]any{"username": ne(), "password": "x"}

	t.Run("blocking", func(t *testing.T) {
		agent := mocks.NewPermissive(true)
		err := nosqlinjection.CheckContextForNoSQLInjection(context.Background(), filter, request, agent, "mongodb", "findOne")

		var blocked *types.BlockedError
		require.ErrorAs(t, err, &blocked)
		assert.Equal(t, types.KindNoSQLInjection, blocked.Kind)
		assert.Contains(t, err.Error(), "TrustShield has blocked a NoSQL injection")
		assert.Contains(t, err.Error(), "originating from body")

		attacks := agent.Attacks()
		require.Len(t, attacks, 1)
		assert.Equal(t, "findOne", attacks[0].Operation)
		assert.True(t, attacks[0].Blocked)
	})

	t.Run("dry run", func(t *testing.T) {
		agent := mocks.NewPermissive(false)
		err := nosqlinjection.CheckContextForNoSQLInjection(context.Background(), filter, request, agent, "mongodb", "findOne")

		require.NoError(t, err)
		require.Len(t, agent.Attacks(), 1)
		assert.False(t, agent.Attacks()[0].Blocked)
	})

	t.Run("no agent", func(t *testing.T) {
		assert.NoError(t, nosqlinjection.CheckContextForNoSQLInjection(context.Background(), filter, request, nil, "mongodb", "findOne"))
	})
}
