package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		platform VARCHAR(32) NOT NULL,
		platform_user_id VARCHAR(128) NOT NULL,
		username VARCHAR(255) NOT NULL DEFAULT '',
		avatar_url TEXT,
		access_token TEXT NOT NULL DEFAULT '',
		refresh_token TEXT NOT NULL DEFAULT '',
		token_expires_at TIMESTAMPTZ,
		status VARCHAR(16) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		UNIQUE (user_id, platform, platform_user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS publish_tasks (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		content_type VARCHAR(16) NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		video_url TEXT,
		image_urls TEXT,
		article_content TEXT,
		cover_url TEXT,
		visibility VARCHAR(16) NOT NULL DEFAULT '',
		topics TEXT,
		distribution_mode VARCHAR(16) NOT NULL,
		status VARCHAR(16) NOT NULL,
		scheduled_at TIMESTAMPTZ,
		share_id VARCHAR(64),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_publish_tasks_due ON publish_tasks (status, scheduled_at)`,
	`CREATE INDEX IF NOT EXISTS idx_publish_tasks_share ON publish_tasks (share_id)`,
	`CREATE TABLE IF NOT EXISTS task_accounts (
		id VARCHAR(36) PRIMARY KEY,
		task_id VARCHAR(36) NOT NULL REFERENCES publish_tasks(id) ON DELETE CASCADE,
		account_id VARCHAR(36) NOT NULL,
		status VARCHAR(16) NOT NULL,
		error_message TEXT,
		published_url TEXT,
		published_at TIMESTAMPTZ,
		override TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_task_accounts_task ON task_accounts (task_id)`,
}

var mssqlSchema = []string{
	`IF OBJECT_ID('dbo.accounts', 'U') IS NULL CREATE TABLE dbo.accounts (
		id NVARCHAR(36) NOT NULL PRIMARY KEY,
		user_id NVARCHAR(64) NOT NULL,
		platform NVARCHAR(32) NOT NULL,
		platform_user_id NVARCHAR(128) NOT NULL,
		username NVARCHAR(255) NOT NULL DEFAULT '',
		avatar_url NVARCHAR(MAX) NULL,
		access_token NVARCHAR(MAX) NOT NULL DEFAULT '',
		refresh_token NVARCHAR(MAX) NOT NULL DEFAULT '',
		token_expires_at DATETIME2 NULL,
		status NVARCHAR(16) NOT NULL,
		created_at DATETIME2 NOT NULL,
		updated_at DATETIME2 NOT NULL,
		CONSTRAINT uq_accounts_identity UNIQUE (user_id, platform, platform_user_id)
	)`,
	`IF OBJECT_ID('dbo.publish_tasks', 'U') IS NULL CREATE TABLE dbo.publish_tasks (
		id NVARCHAR(36) NOT NULL PRIMARY KEY,
		user_id NVARCHAR(64) NOT NULL,
		content_type NVARCHAR(16) NOT NULL,
		title NVARCHAR(MAX) NOT NULL,
		description NVARCHAR(MAX) NULL,
		video_url NVARCHAR(MAX) NULL,
		image_urls NVARCHAR(MAX) NULL,
		article_content NVARCHAR(MAX) NULL,
		cover_url NVARCHAR(MAX) NULL,
		visibility NVARCHAR(16) NOT NULL DEFAULT '',
		topics NVARCHAR(MAX) NULL,
		distribution_mode NVARCHAR(16) NOT NULL,
		status NVARCHAR(16) NOT NULL,
		scheduled_at DATETIME2 NULL,
		share_id NVARCHAR(64) NULL,
		created_at DATETIME2 NOT NULL,
		updated_at DATETIME2 NOT NULL
	)`,
	`IF OBJECT_ID('dbo.task_accounts', 'U') IS NULL CREATE TABLE dbo.task_accounts (
		id NVARCHAR(36) NOT NULL PRIMARY KEY,
		task_id NVARCHAR(36) NOT NULL REFERENCES dbo.publish_tasks(id) ON DELETE CASCADE,
		account_id NVARCHAR(36) NOT NULL,
		status NVARCHAR(16) NOT NULL,
		error_message NVARCHAR(MAX) NULL,
		published_url NVARCHAR(MAX) NULL,
		published_at DATETIME2 NULL,
		override NVARCHAR(MAX) NULL,
		created_at DATETIME2 NOT NULL,
		updated_at DATETIME2 NOT NULL
	)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		platform VARCHAR(32) NOT NULL,
		platform_user_id VARCHAR(128) NOT NULL,
		username VARCHAR(255) NOT NULL DEFAULT '',
		avatar_url TEXT,
		access_token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		token_expires_at DATETIME(6) NULL,
		status VARCHAR(16) NOT NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_accounts_identity (user_id, platform, platform_user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS publish_tasks (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		content_type VARCHAR(16) NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		video_url TEXT,
		image_urls TEXT,
		article_content MEDIUMTEXT,
		cover_url TEXT,
		visibility VARCHAR(16) NOT NULL DEFAULT '',
		topics TEXT,
		distribution_mode VARCHAR(16) NOT NULL,
		status VARCHAR(16) NOT NULL,
		scheduled_at DATETIME(6) NULL,
		share_id VARCHAR(64) NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		KEY idx_publish_tasks_due (status, scheduled_at),
		KEY idx_publish_tasks_share (share_id)
	)`,
	`CREATE TABLE IF NOT EXISTS task_accounts (
		id VARCHAR(36) PRIMARY KEY,
		task_id VARCHAR(36) NOT NULL,
		account_id VARCHAR(36) NOT NULL,
		status VARCHAR(16) NOT NULL,
		error_message TEXT,
		published_url TEXT,
		published_at DATETIME(6) NULL,
		override TEXT,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		KEY idx_task_accounts_task (task_id),
		CONSTRAINT fk_task_accounts_task FOREIGN KEY (task_id) REFERENCES publish_tasks(id) ON DELETE CASCADE
	)`,
}

// laterColumns are added to tables created by older deployments.
var laterColumns = []struct {
	table  string
	column string
	ddl    map[Dialect]string
}{
	{"publish_tasks", "batch_id", map[Dialect]string{
		Postgres: "ALTER TABLE publish_tasks ADD COLUMN batch_id VARCHAR(36)",
		MSSQL:    "ALTER TABLE dbo.publish_tasks ADD batch_id NVARCHAR(36) NULL",
		MySQL:    "ALTER TABLE publish_tasks ADD COLUMN batch_id VARCHAR(36) NULL",
	}},
}

// EnsureSchema creates the tables if missing and adds newer columns.
// Safe to call at startup.
func EnsureSchema(db *sql.DB, d Dialect) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var ddl []string
	switch d {
	case MSSQL:
		ddl = mssqlSchema
	case MySQL:
		ddl = mysqlSchema
	default:
		ddl = postgresSchema
	}
	for _, stmt := range ddl {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensuring schema failed: %w", err)
		}
	}

	for _, c := range laterColumns {
		exists, err := columnExists(ctx, db, d, c.table, c.column)
		if err != nil {
			return err
		}
		if !exists {
			if _, err := db.ExecContext(ctx, c.ddl[d]); err != nil {
				return fmt.Errorf("adding column %s.%s failed: %w", c.table, c.column, err)
			}
		}
	}
	return nil
}

func columnExists(ctx context.Context, db *sql.DB, d Dialect, table, column string) (bool, error) {
	q := `SELECT 1 FROM information_schema.columns WHERE table_name=? AND column_name=?`
	if d == MySQL {
		q += ` AND table_schema=DATABASE()`
	}
	row := db.QueryRowContext(ctx, d.Rebind(q), table, column)
	var one int
	if err := row.Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
