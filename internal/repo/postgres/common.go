package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tessera-ml/tessera-go/internal/repo"
)

type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// emptyConfig is what a run with no config stores; the config column is
// always valid JSON.
var emptyConfig = []byte("{}")

func configOrEmpty(raw []byte) []byte {
	if len(raw) == 0 {
		return emptyConfig
	}
	return raw
}

func handleNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repo.ErrNotFound
	}
	return err
}
