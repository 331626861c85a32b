// Package sqlite 本地回退数据库驱动
//
// 远端存储未配置或不可达时的回退持久化（对应原始系统的浏览器
// localStorage 回退库）。单文件存储，无外部依赖，进程内自动建表。
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"victoria-bet/internal/shared/storage/dbutil"

	_ "modernc.org/sqlite"
)

// Dialect SQLite 方言实现
type Dialect struct{}

var _ dbutil.Dialect = (*Dialect)(nil)

func (d *Dialect) DriverType() dbutil.DriverType {
	return dbutil.DriverSQLite
}

func (d *Dialect) Rebind(query string) string {
	return dbutil.RebindToQuestion(query)
}

func (d *Dialect) CurrentTimestamp() string {
	return "datetime('now')"
}

func (d *Dialect) IsDuplicateErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (d *Dialect) AutoMigrate(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

// Open 创建 SQLite 数据库连接
// dsn 示例: "file:victoria.db?cache=shared&mode=rwc" 或 ":memory:"
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// SQLite 优化设置
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("failed to set pragma %s: %w", p, err)
		}
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}
	return db, nil
}

// schema SQLite 完整建表语句（与远端 PostgreSQL 迁移等价）
const schema = `
-- accounts
CREATE TABLE IF NOT EXISTS accounts (
    id VARCHAR(64) PRIMARY KEY,
    full_name VARCHAR(200) NOT NULL DEFAULT '',
    email VARCHAR(255) NOT NULL UNIQUE,
    phone VARCHAR(32) NOT NULL DEFAULT '',
    role VARCHAR(16) NOT NULL DEFAULT 'user',
    is_active INTEGER NOT NULL DEFAULT 0,
    is_pending_approval INTEGER NOT NULL DEFAULT 0,
    expiration_date DATETIME,
    payment_proof TEXT NOT NULL DEFAULT '',
    ai_validated INTEGER NOT NULL DEFAULT 0,
    password_hash VARCHAR(128) NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
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
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    result VARCHAR(16) NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_forecasts_created_at ON forecasts (created_at DESC);
`
