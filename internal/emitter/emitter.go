// Package emitter implements the Code Emitter (spec §4.4): it formats a
// distilled PreparedFn into target-language source text — a params struct,
// a rows struct, and an async execute function.
package emitter

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/zoravur/typedsqlgen/internal/distiller"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var templateFuncs = template.FuncMap{
	"pascalCase": pascalCase,
	"snakeCase":  snakeCase,
}

// Generator renders PreparedFn records into source fragments. It is
// deterministic and idempotent (§4.4): the same PreparedFn always produces
// byte-identical output.
type Generator struct {
	tmpl *template.Template
}

// NewGenerator parses the embedded fragment template once; the returned
// Generator is safe for concurrent use across file goroutines (§5), since
// *template.Template.Execute does not mutate the parsed tree.
func NewGenerator() (*Generator, error) {
	tmpl, err := template.New("emitter").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse emitter templates: %w", err)
	}
	return &Generator{tmpl: tmpl}, nil
}

type paramField struct {
	Name string
	Type string
}

type rowField struct {
	Name string
	Type string
}

type fragmentView struct {
	StructPrefix string
	FnName       string
	HasParams    bool
	HasRows      bool
	Params       []paramField
	Rows         []rowField
	SQL          string
}

// Emit formats fn as described in §4.4 / §6: a params record named
// param_0..param_{n-1} (each Optional<T>, omitted entirely if fn has no
// parameters), a rows record named by each CtxEntry's column (Optional<T>
// only when nullable), and an async function named after fn.Name in
// snake_case. For a fn with no row shape (the affected-row-count case, see
// distiller.PreparedFn and §3's invariant), no rows struct is emitted and
// the function returns the affected row count directly instead of
// Vec<Rows> — the distiller already reduces Rows to an empty slice for
// that case, so emission only needs to branch on HasRows.
func (g *Generator) Emit(fn distiller.PreparedFn) (string, error) {
	view, err := buildView(fn)
	if err != nil {
		return "", fmt.Errorf("emit %s: %w", fn.Name, err)
	}
	var buf bytes.Buffer
	if err := g.tmpl.ExecuteTemplate(&buf, "fragment.tmpl", view); err != nil {
		return "", fmt.Errorf("render %s: %w", fn.Name, err)
	}
	return buf.String(), nil
}

func buildView(fn distiller.PreparedFn) (fragmentView, error) {
	params := make([]paramField, len(fn.Params))
	for i, p := range fn.Params {
		t, err := scalarType(p.Type)
		if err != nil {
			return fragmentView{}, fmt.Errorf("param %d: %w", i, err)
		}
		params[i] = paramField{Name: fmt.Sprintf("param_%d", i), Type: optional(t)}
	}

	rows := make([]rowField, len(fn.Rows))
	for i, r := range fn.Rows {
		col, ok := r.ColumnName()
		if !ok {
			return fragmentView{}, fmt.Errorf("row field %d has no column name", i)
		}
		t, err := scalarType(r.Data.Type)
		if err != nil {
			return fragmentView{}, fmt.Errorf("row %q: %w", col, err)
		}
		if r.Data.Nullable {
			t = optional(t)
		}
		rows[i] = rowField{Name: col, Type: t}
	}

	return fragmentView{
		StructPrefix: pascalCase(fn.Name),
		FnName:       snakeCase(fn.Name),
		HasParams:    len(params) > 0,
		HasRows:      len(rows) > 0,
		Params:       params,
		Rows:         rows,
		SQL:          fn.DeparsedSQL,
	}, nil
}
