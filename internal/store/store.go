package store

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgxpool.Pool and pgx.Tx that repository
// helpers run against, so the same statement helpers serve both plain
// calls and multi-statement transactions.
type Querier interface {
	pgxscan.Querier
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}
