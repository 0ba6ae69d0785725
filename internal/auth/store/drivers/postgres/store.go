// Package postgres is the PostgreSQL driver for the auth store.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sendhello/auth-service/internal/auth/store/drivers/sqlstore"
)

const uniqueViolation = "23505"

// NewStore connects to dsn (a postgres:// URL or key=value string) through
// the pgx database/sql driver.
func NewStore(ctx context.Context, dsn string) (*sqlstore.Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return sqlstore.New(db, dialect{}), nil
}

type dialect struct{}

func (dialect) Rebind(query string) string { return sqlstore.Dollar(query) }

func (dialect) IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (dialect) Migrate(db *sql.DB) error { return applyMigrations(db) }
