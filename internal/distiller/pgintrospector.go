package distiller

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// TxIntrospector runs PREPARE against a live pgx transaction and reads the
// resulting types back from pg_prepared_statements, then always rolls the
// transaction back — the Go equivalent of the original's drop-scoped
// rollback (§5). One TxIntrospector is used per input file so concurrent
// file goroutines each own their own transaction against the shared pool.
type TxIntrospector struct {
	Conn interface {
		Begin(ctx context.Context) (pgx.Tx, error)
	}
}

func (i *TxIntrospector) Introspect(ctx context.Context, name, deparsedSQL string) (paramOIDs, resultOIDs []uint32, err error) {
	tx, err := i.Conn.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin introspection tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// name is always a distill_<uuid-without-hyphens> token we generated
	// ourselves (see introspectParams), never user input, so a bare
	// Sprintf is safe here.
	if _, err := tx.Exec(ctx, fmt.Sprintf("PREPARE %s AS %s", name, deparsedSQL)); err != nil {
		return nil, nil, fmt.Errorf("PREPARE %s: %w", name, err)
	}

	row := tx.QueryRow(ctx,
		`SELECT parameter_types::oid[], result_types::oid[]
		 FROM pg_prepared_statements WHERE name = $1 AND from_sql = 't'`, name)
	if err := row.Scan(&paramOIDs, &resultOIDs); err != nil {
		return nil, nil, fmt.Errorf("reading pg_prepared_statements for %s: %w", name, err)
	}
	return paramOIDs, resultOIDs, nil
}
