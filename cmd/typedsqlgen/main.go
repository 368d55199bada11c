// Command typedsqlgen walks a directory of *.sql files containing PREPARE
// statements and, for each one, writes a sibling source file with a typed
// params struct, a typed rows struct, and an async execute function (spec
// §6).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/zoravur/typedsqlgen/internal/diagnostic"
	"github.com/zoravur/typedsqlgen/internal/pipeline"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:]))
}

// run implements the CLI contract of §6 as a testable, exit-code-returning
// function, the same "args in, exit code out" split other generators in
// this family use (see DESIGN.md) rather than calling os.Exit directly from
// main.
func run(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("typedsqlgen", flag.ContinueOnError)
	postgresURL := fs.String("postgres-url", os.Getenv("POSTGRES_URL"), "PostgreSQL connection URL (env POSTGRES_URL)")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	dirs := fs.Args()
	if len(dirs) != 1 {
		fmt.Fprintln(os.Stderr, "usage: typedsqlgen --postgres-url <URL> <directory>")
		return 1
	}
	dir := dirs[0]

	if *postgresURL == "" {
		fmt.Fprintln(os.Stderr, "typedsqlgen: --postgres-url (or POSTGRES_URL) is required")
		return 1
	}

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "typedsqlgen: logger init: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	pool, err := pgxpool.New(ctx, *postgresURL)
	if err != nil {
		log.Error("connecting to postgres", zap.Error(err))
		return 1
	}
	defer pool.Close()

	if err := pipeline.Run(ctx, pool, log, dir); err != nil {
		log.Error("generation failed", zap.Error(err))
		if d, ok := err.(*diagnostic.Diagnostic); ok && d.Kind == diagnostic.KindIO {
			return 2
		}
		return 1
	}
	return 0
}
