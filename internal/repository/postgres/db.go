package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"

	"ridematch/internal/repository"
)

// Querier is an interface satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Ensure interfaces are satisfied.
var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// wrapErr maps connectivity failures to repository.ErrUnavailable so callers
// can distinguish transient storage trouble from business outcomes. Other
// driver errors pass through unchanged.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	return err
}
