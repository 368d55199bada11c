package emitter

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// snakeCase lowercases s and splits camel humps with underscores. Prepared
// statement names are already typically snake_case SQL identifiers; this
// only normalizes names that came through camelCase or PascalCase.
func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// pascalCase turns a snake_case (or already-mixed-case) identifier into
// PascalCase, the struct-name prefix convention of §6.
func pascalCase(s string) string {
	parts := strings.Split(snakeCase(s), "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(p)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(p[size:])
	}
	return b.String()
}
