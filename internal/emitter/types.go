package emitter

import (
	"fmt"

	"github.com/zoravur/typedsqlgen/internal/diagnostic"
	"github.com/zoravur/typedsqlgen/internal/schema"
)

// scalarType maps a closed schema.Type to its target-language scalar, per
// §4.4's Type → scalar mapping. TypeNull has no scalar representation: it
// may only appear in anonymous projection positions, which the distiller's
// projection-shape check (§4.2 step 5) already rejects whenever the
// anonymous entry would otherwise reach a named struct field — reaching
// here with TypeNull means a literal NULL was given a name, e.g.
// `SELECT NULL AS x`, which the emitter rejects explicitly rather than
// emitting an uninhabited field type.
func scalarType(t schema.Type) (string, error) {
	switch t {
	case schema.TypeInteger:
		return "i32", nil
	case schema.TypeText:
		return "String", nil
	case schema.TypeBytes:
		return "Vec<u8>", nil
	case schema.TypeBoolean:
		return "bool", nil
	case schema.TypeFloat:
		return "f32", nil
	case schema.TypeNull:
		return "", diagnostic.New(diagnostic.KindUnsupported, "NULL has no scalar type for a named field")
	default:
		return "", fmt.Errorf("emitter: unknown type %v", t)
	}
}

// optional wraps a scalar type as Optional<T>, per §6's rows/params field
// typing: params are always Optional, rows fields are Optional only when
// nullable.
func optional(scalar string) string {
	return fmt.Sprintf("Option<%s>", scalar)
}
