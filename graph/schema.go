package graph

import (
	_ "embed"
	"net/http"

	"github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
)

//go:embed schema.graphqls
var schemaSDL string

// DefaultMaxParallelism bounds how many field resolvers one request may run at once
const DefaultMaxParallelism = 10

// NewSchema parses the SDL and binds it to r.
func NewSchema(r *Resolver, maxParallelism int) (*graphql.Schema, error) {
	if maxParallelism <= 0 {
		maxParallelism = DefaultMaxParallelism
	}
	return graphql.ParseSchema(schemaSDL, r,
		graphql.UseFieldResolvers(),
		graphql.MaxParallelism(maxParallelism),
	)
}

// NewHandler serves GraphQL-over-HTTP POST requests for schema.
func NewHandler(schema *graphql.Schema) http.Handler {
	return &relay.Handler{Schema: schema}
}
