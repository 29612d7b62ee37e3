package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

// DBConnKey is the context key under which a request-scoped database
// connection is stored.
const DBConnKey contextKey = "db_conn"

// WithConn returns a context carrying a pinned database connection. Repos
// prefer this connection over the shared pool, which lets callers run a
// sequence of repo calls on one connection (e.g. inside a transaction or a
// test harness).
func WithConn(ctx context.Context, conn *pgxpool.Conn) context.Context {
	return context.WithValue(ctx, DBConnKey, conn)
}

// ConnFromContext retrieves the request-scoped database connection from
// context, or nil when none is pinned.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	conn, _ := ctx.Value(DBConnKey).(*pgxpool.Conn)
	return conn
}
