package catalog

import (
	"github.com/zoravur/typedsqlgen/internal/diagnostic"
	"github.com/zoravur/typedsqlgen/internal/schema"
)

// typeFromUDTName maps a PostgreSQL udt_name (from information_schema.columns
// or pg_catalog.pg_type.typname) to the closed Type set. Any name outside
// this table is a fatal type-mapping error naming the offender, per §4.1.
func typeFromUDTName(udtName string) (schema.Type, *diagnostic.Diagnostic) {
	switch udtName {
	case "bool":
		return schema.TypeBoolean, nil
	case "text", "_name", "name":
		return schema.TypeText, nil
	case "bytea":
		return schema.TypeBytes, nil
	case "int4":
		return schema.TypeInteger, nil
	case "float4":
		return schema.TypeFloat, nil
	default:
		return 0, diagnostic.New(diagnostic.KindTypeMapping, "unsupported column type %q", udtName)
	}
}
