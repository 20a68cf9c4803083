package graphql

import (
	_ "embed"
	"fmt"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

//go:embed schema.graphqls
var schemaSDL string

// SchemaSDL returns the schema in SDL form.
func SchemaSDL() string {
	return schemaSDL
}

// LoadSchema parses and validates the embedded schema.
func LoadSchema() (*ast.Schema, error) {
	schema, gerr := gqlparser.LoadSchema(&ast.Source{
		Name:  "schema.graphqls",
		Input: schemaSDL,
	})
	if gerr != nil {
		return nil, fmt.Errorf("graphql: loading schema: %w", gerr)
	}
	return schema, nil
}
