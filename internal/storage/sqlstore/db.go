// Package sqlstore implements the repositories on top of database/sql.
// Queries are built with goqu and executed through sqlx; sqlite3, pgx and
// postgres (lib/pq) drivers are supported.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"catalog-server/internal/config"
	"catalog-server/internal/domain"
	"catalog-server/internal/logger"
)

const (
	tableBooks      = "books"
	tableUsers      = "users"
	tableUsersBooks = "users_books"
)

// sqliteDriver is go-sqlite3 with LOWER replaced by a Unicode-aware fold,
// since the built-in one only folds ASCII.
const sqliteDriver = "sqlite3_catalog"

func init() {
	sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("lower", strings.ToLower, true)
		},
	})
	sqlx.BindDriver(sqliteDriver, sqlx.QUESTION)
}

type DB struct {
	db      *sqlx.DB
	dialect goqu.DialectWrapper
	log     logger.Logger

	postgres  bool
	collation string
}

// SqliteDSN turns a file path into a DSN with foreign keys enabled and
// writers serialised through immediate transactions.
func SqliteDSN(path string) string {
	return fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on&_synchronous=NORMAL&_txlock=immediate", path)
}

// Open connects with the given driver, checks the connection and runs the
// migrations.
func Open(ctx context.Context, driver, dsn string, log logger.Logger) (*DB, error) {
	var dialect string
	driverName := driver
	switch driver {
	case config.DriverSqlite:
		dialect = "sqlite3"
		driverName = sqliteDriver
	case config.DriverPgx, config.DriverPostgres:
		dialect = "postgres"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database not responding: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	d := &DB{
		db:       db,
		dialect:  goqu.Dialect(dialect),
		log:      log,
		postgres: dialect == "postgres",
	}
	if d.postgres {
		d.collation = "C"
	}

	log.Info("database connection established", "driver", driver)

	if err := d.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return d, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Books() *BookRepository {
	return &BookRepository{d: d}
}

func (d *DB) Users() *UserRepository {
	return &UserRepository{d: d}
}

func (d *DB) migrate(ctx context.Context) error {
	stmts := sqliteSchema
	if d.postgres {
		stmts = postgresSchema
	}

	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}

	return nil
}

func (d *DB) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return d.inTx(ctx, nil, fn)
}

// withReadTx runs fn against one snapshot, so a count and the page it
// describes agree. Postgres needs repeatable read for that; sqlite
// transactions already read a single snapshot.
func (d *DB) withReadTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	var opts *sql.TxOptions
	if d.postgres {
		opts = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	return d.inTx(ctx, opts, fn)
}

func (d *DB) inTx(ctx context.Context, opts *sql.TxOptions, fn func(tx *sqlx.Tx) error) error {
	tx, err := d.db.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			d.log.Warn("failed to rollback transaction", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// insert adds one row and returns its generated id. lib/pq has no
// LastInsertId, so postgres goes through RETURNING.
func (d *DB) insert(ctx context.Context, q sqlx.ExtContext, table string, rec goqu.Record) (int64, error) {
	ds := d.dialect.Insert(table).Rows(rec).Prepared(true)

	if d.postgres {
		query, args, err := ds.Returning(goqu.C("id")).ToSQL()
		if err != nil {
			return 0, fmt.Errorf("failed to build insert: %w", err)
		}

		var id int64
		if err := q.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return 0, fmt.Errorf("failed to build insert: %w", err)
	}

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

type sqlBuilder interface {
	ToSQL() (string, []any, error)
}

func (d *DB) exec(ctx context.Context, q sqlx.ExecerContext, b sqlBuilder) (int64, error) {
	query, args, err := b.ToSQL()
	if err != nil {
		return 0, fmt.Errorf("failed to build statement: %w", err)
	}

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func (d *DB) get(ctx context.Context, q sqlx.QueryerContext, dest any, b sqlBuilder) error {
	query, args, err := b.ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	return sqlx.GetContext(ctx, q, dest, query, args...)
}

func (d *DB) selectAll(ctx context.Context, q sqlx.QueryerContext, dest any, b sqlBuilder) error {
	query, args, err := b.ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	return sqlx.SelectContext(ctx, q, dest, query, args...)
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	return false
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}

	return false
}

// ensure the repositories satisfy the domain contracts
var (
	_ domain.BookRepository = (*BookRepository)(nil)
	_ domain.UserRepository = (*UserRepository)(nil)
)
