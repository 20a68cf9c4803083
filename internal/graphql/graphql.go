// Package graphql bridges GraphQL queries onto live host state.
//
// The schema is embedded SDL parsed with gqlparser. Execution is a small
// interpreter over the validated document: every field is resolved by a
// function from a "Type.field" table, and each of those functions is
// wrapped in a gate that consults the endpoint registry. A disabled
// capability is therefore unreachable through any query shape, and its
// fields come back null with an entry in "errors" while sibling fields
// still resolve.
//
// A whole operation runs as one host.Executor call, so every field sees
// the same tick.
package graphql

import (
	"github.com/nerrad567/local-api-gateway/internal/endpoint"
	"github.com/nerrad567/local-api-gateway/internal/host"
)

// New loads the schema and builds an Executor with the gated resolvers.
func New(reg *endpoint.Registry, hosts host.Executor) (*Executor, error) {
	schema, err := LoadSchema()
	if err != nil {
		return nil, err
	}
	return NewExecutor(schema, Resolvers(reg), hosts), nil
}
