package solver

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"testing"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/zoravur/typedsqlgen/internal/schema"
	"github.com/zoravur/typedsqlgen/pkg/prng"
)

// genState draws deterministic pseudo-random values from a prng.New
// reader, the same seedable source the teacher's faker-backed tooling used
// for reproducible fixtures. Reusing it here gives the property test a
// fixed seed → fixed case sequence without pulling in a fuzzing library the
// rest of the corpus never imports.
type genState struct {
	r io.Reader
}

func newGenState(seed int64) *genState {
	return &genState{r: prng.New(seed)}
}

func (g *genState) uint32() uint32 {
	var buf [8]byte
	if _, err := io.ReadFull(g.r, buf[:]); err != nil {
		panic(err)
	}
	return uint32(binary.LittleEndian.Uint64(buf[:]))
}

// intn returns a value in [0, n).
func (g *genState) intn(n int) int {
	if n <= 0 {
		panic("intn: n must be positive")
	}
	return int(g.uint32() % uint32(n))
}

func (g *genState) bool() bool {
	return g.intn(2) == 0
}

var genTypes = []schema.Type{schema.TypeInteger, schema.TypeText, schema.TypeBytes, schema.TypeBoolean, schema.TypeFloat}

// genCatalog builds a random catalog of 1-3 tables, each with 1-4 columns
// of random type and nullability, per §8's "small grammar".
func genCatalog(g *genState) *schema.Catalog {
	cat := schema.NewCatalog()
	numTables := 1 + g.intn(3)
	for ti := 0; ti < numTables; ti++ {
		tableName := fmt.Sprintf("t%d", ti)
		numCols := 1 + g.intn(4)
		cols := make([]schema.Column, numCols)
		for ci := 0; ci < numCols; ci++ {
			cols[ci] = schema.Column{
				Name: fmt.Sprintf("c%d", ci),
				Data: schema.ColumnData{
					Type:     genTypes[g.intn(len(genTypes))],
					Nullable: g.bool(),
				},
			}
		}
		cat.AddTable(&schema.Table{Name: tableName, Columns: cols})
	}
	return cat
}

// genSelect builds a SELECT of one or more qualified-column targets drawn
// from cat's own tables, over a FROM list naming every table in cat (so
// every generated target is guaranteed resolvable).
func genSelect(g *genState, cat *schema.Catalog) (sql string, want []schema.ColumnData) {
	tables := cat.Tables()

	var from []string
	for _, t := range tables {
		from = append(from, t.Name)
	}

	numTargets := 1 + g.intn(4)
	var targets []string
	for i := 0; i < numTargets; i++ {
		t := tables[g.intn(len(tables))]
		c := t.Columns[g.intn(len(t.Columns))]
		targets = append(targets, fmt.Sprintf("%s.%s", t.Name, c.Name))
		want = append(want, c.Data)
	}

	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(targets, ", "), strings.Join(from, ", ")), want
}

// TestSolve_PropertyInvariants generates ~50 random (catalog, SELECT)
// pairs and checks the two §8 invariants that hold for any catalog and any
// SELECT built purely from qualified ColumnRef targets: the result has
// exactly one entry per target, in order, with the declared type, and
// nullability is preserved unchanged (no join is present to force it).
func TestSolve_PropertyInvariants(t *testing.T) {
	g := newGenState(42)
	for i := 0; i < 50; i++ {
		cat := genCatalog(g)
		sqlText, want := genSelect(g, cat)

		tree, err := pg_query.Parse(sqlText)
		if err != nil {
			t.Fatalf("case %d: parse %q: %v", i, sqlText, err)
		}
		node := tree.GetStmts()[0].GetStmt()

		got, err := Solve(SystemCtx(cat), node)
		if err != nil {
			t.Fatalf("case %d: solve %q: %v", i, sqlText, err)
		}

		if len(got) != len(want) {
			t.Fatalf("case %d (%q): expected %d entries, got %d", i, sqlText, len(want), len(got))
		}
		for j, w := range want {
			if got[j].Data != w {
				t.Errorf("case %d (%q): entry %d: expected %+v, got %+v", i, sqlText, j, w, got[j].Data)
			}
		}
	}
}
