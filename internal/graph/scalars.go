package graph

import (
	"time"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

// dateTimeType carries timestamps as RFC 3339 strings on the wire.
var dateTimeType = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "DateTime",
	Description: "An RFC 3339 timestamp, e.g. 2026-01-02T15:04:05Z.",
	Serialize: func(value interface{}) interface{} {
		switch t := value.(type) {
		case time.Time:
			return t.UTC().Format(time.RFC3339)
		case *time.Time:
			if t == nil {
				return nil
			}
			return t.UTC().Format(time.RFC3339)
		}
		return nil
	},
	ParseValue: func(value interface{}) interface{} {
		switch v := value.(type) {
		case string:
			return parseDateTime(v)
		case time.Time:
			return v
		case *time.Time:
			if v == nil {
				return nil
			}
			return *v
		}
		return nil
	},
	ParseLiteral: func(valueAST ast.Value) interface{} {
		if sv, ok := valueAST.(*ast.StringValue); ok {
			return parseDateTime(sv.Value)
		}
		return nil
	},
})

func parseDateTime(raw string) interface{} {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return t
}
