// Package pipeline wires the Catalog Loader, Distiller, and Emitter into
// the cooperatively concurrent, file-granular process described in spec
// §5: one read-only catalog shared across all input files, one goroutine
// per *.sql file, first-error-cancels-the-rest semantics.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zoravur/typedsqlgen/internal/catalog"
	"github.com/zoravur/typedsqlgen/internal/diagnostic"
	"github.com/zoravur/typedsqlgen/internal/distiller"
	"github.com/zoravur/typedsqlgen/internal/emitter"
	"github.com/zoravur/typedsqlgen/internal/logutil"
	"github.com/zoravur/typedsqlgen/internal/schema"
)

// Pool is the subset of pgxpool.Pool behavior the pipeline needs: queries
// for catalog/OID loading, and per-file transactions for PREPARE
// introspection. Accepting an interface instead of *pgxpool.Pool keeps the
// whole pipeline testable against an in-memory fake.
type Pool interface {
	catalog.Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OutputExt is the sibling file extension written for each *.sql input,
// per §6 ("a sibling *.rs (or target-language extension) file").
const OutputExt = ".rs"

// Run discovers every *.sql file under dir, loads the catalog and OID
// table once, then fans out one goroutine per file: each parses,
// type-solves, introspects parameters against its own transaction on the
// shared pool, emits source text, and writes a sibling output file. The
// first file to fail cancels the rest (errgroup.WithContext), matching
// §7's "report first fatal error, no recovery" policy at the pipeline
// level; files that already finished writing before the failure are left
// in place (§7: "no guarantee of cross-file atomicity").
func Run(ctx context.Context, pool Pool, log *zap.Logger, dir string) error {
	cat, err := catalog.Load(ctx, pool, log)
	if err != nil {
		return err
	}

	oidNames, err := catalog.OIDTypeNames(ctx, pool)
	if err != nil {
		return err
	}

	gen, err := emitter.NewGenerator()
	if err != nil {
		return fmt.Errorf("init emitter: %w", err)
	}

	files, err := findSQLFiles(dir)
	if err != nil {
		return diagnostic.Wrap(diagnostic.KindIO, err, "walking %s", dir)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, path := range files {
		path := path
		g.Go(func() error {
			return processFile(gctx, pool, gen, oidNames, cat, log, path)
		})
	}
	return g.Wait()
}

func findSQLFiles(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".sql") {
			out = append(out, path)
		}
		return nil
	})
	return out, err
}

func processFile(ctx context.Context, pool Pool, gen *emitter.Generator, oidNames map[uint32]string, cat *schema.Catalog, log *zap.Logger, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return diagnostic.Wrap(diagnostic.KindIO, err, "reading %s", path).WithPath(path)
	}

	intro := &distiller.TxIntrospector{Conn: pool}
	fns, err := distiller.Distill(ctx, intro, oidNames, cat, path, string(raw))
	if err != nil {
		return err
	}

	var fragments []string
	for _, fn := range fns {
		frag, err := gen.Emit(fn)
		if err != nil {
			kind := diagnostic.KindIO
			var d *diagnostic.Diagnostic
			if errors.As(err, &d) {
				kind = d.Kind
			}
			return diagnostic.Wrap(kind, err, "emitting %s", fn.Name).WithPath(path).WithStatement(fn.Name)
		}
		fragments = append(fragments, frag)
	}

	outPath := strings.TrimSuffix(path, filepath.Ext(path)) + OutputExt
	content := strings.Join(fragments, "\n")
	if err := os.WriteFile(outPath, []byte(content), 0o644); err != nil {
		return diagnostic.Wrap(diagnostic.KindIO, err, "writing %s", outPath).WithPath(path)
	}

	if log != nil {
		log.Info("generated",
			zap.String("input", path),
			zap.String("output", outPath),
			logutil.Values(zap.Int("statements", len(fns))),
		)
	}
	return nil
}
