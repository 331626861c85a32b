// Package postgres 远端 PostgreSQL 数据库驱动
//
// 原始系统的远端存储（Supabase）本质是一个 PostgreSQL 实例，
// 这里通过 DATABASE_URL 直连，列名使用 snake_case 约定。
package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"victoria-bet/internal/shared/storage/dbutil"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Dialect PostgreSQL 方言实现
type Dialect struct{}

var _ dbutil.Dialect = (*Dialect)(nil)

func (d *Dialect) DriverType() dbutil.DriverType {
	return dbutil.DriverPostgres
}

func (d *Dialect) Rebind(query string) string {
	return dbutil.RebindToPositional(query)
}

func (d *Dialect) CurrentTimestamp() string {
	return "NOW()"
}

// IsDuplicateErr 23505 = unique_violation
func (d *Dialect) IsDuplicateErr(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (d *Dialect) AutoMigrate(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

// Open 创建 PostgreSQL 数据库连接
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return db, nil
}

// schema 建表语句（与 SQLite 回退库等价）
const schema = `
-- accounts
CREATE TABLE IF NOT EXISTS accounts (
    id VARCHAR(64) PRIMARY KEY,
    full_name VARCHAR(200) NOT NULL DEFAULT '',
    email VARCHAR(255) NOT NULL UNIQUE,
    phone VARCHAR(32) NOT NULL DEFAULT '',
    role VARCHAR(16) NOT NULL DEFAULT 'user',
    is_active BOOLEAN NOT NULL DEFAULT FALSE,
    is_pending_approval BOOLEAN NOT NULL DEFAULT FALSE,
    expiration_date TIMESTAMPTZ,
    payment_proof TEXT NOT NULL DEFAULT '',
    ai_validated BOOLEAN NOT NULL DEFAULT FALSE,
    password_hash VARCHAR(128) NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_accounts_created_at ON accounts (created_at DESC);

-- forecasts
CREATE TABLE IF NOT EXISTS forecasts (
    id VARCHAR(64) PRIMARY KEY,
    league VARCHAR(200) NOT NULL DEFAULT '',
    "match" VARCHAR(200) NOT NULL DEFAULT '',
    prediction TEXT NOT NULL DEFAULT '',
    probability INTEGER NOT NULL DEFAULT 0,
    risk_level VARCHAR(16) NOT NULL DEFAULT 'Médio',
    analysis TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    result VARCHAR(16) NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_forecasts_created_at ON forecasts (created_at DESC);
`
