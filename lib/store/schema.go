// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// migrations[i] moves the schema from user_version i to i+1. Append
// only.
var migrations = []string{
	`
	CREATE TABLE projects (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		revision   TEXT NOT NULL,
		document   BLOB NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE users (
		id         TEXT PRIMARY KEY,
		user_name  TEXT NOT NULL UNIQUE,
		avatar_url TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);

	CREATE TABLE chat_log (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id TEXT NOT NULL,
		sender     TEXT NOT NULL,
		content    TEXT NOT NULL,
		type       TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX chat_log_by_project ON chat_log (project_id, id);
	`,
}

// connectionPragmas run on every new connection. WAL lets chat
// history reads proceed while a project save holds the write lock.
var connectionPragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=ON",
	"PRAGMA temp_store=MEMORY",
}

func openDatabase(path string, poolSize int, logger *slog.Logger) (*sqlitex.Pool, error) {
	if path == "" {
		return nil, fmt.Errorf("store: Path is required")
	}
	if poolSize <= 0 {
		poolSize = 4
	}
	pool, err := sqlitex.NewPool(path, sqlitex.PoolOptions{
		PoolSize: poolSize,
		PrepareConn: func(conn *sqlite.Conn) error {
			for _, pragma := range connectionPragmas {
				if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
					return fmt.Errorf("%s: %w", pragma, err)
				}
			}
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", path, err)
	}

	from, err := migrate(pool, migrations)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: %s: %w", path, err)
	}
	logger.Info("store opened",
		"path", path,
		"pool_size", poolSize,
		"schema_version", len(migrations),
		"migrated_from", from,
	)
	return pool, nil
}

// migrate brings the database to len(steps) inside one immediate
// transaction and returns the version it started from.
func migrate(pool *sqlitex.Pool, steps []string) (from int, err error) {
	conn, err := pool.Take(context.Background())
	if err != nil {
		return 0, err
	}
	defer pool.Put(conn)

	end, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return 0, fmt.Errorf("beginning migration: %w", err)
	}
	defer end(&err)

	from, err = schemaVersion(conn)
	if err != nil {
		return 0, err
	}
	if from > len(steps) {
		return from, fmt.Errorf("schema version %d is newer than this binary supports (%d)", from, len(steps))
	}
	for version := from; version < len(steps); version++ {
		if err := sqlitex.ExecuteScript(conn, steps[version], nil); err != nil {
			return from, fmt.Errorf("migration to version %d: %w", version+1, err)
		}
	}
	if from == len(steps) {
		return from, nil
	}
	return from, sqlitex.ExecuteTransient(conn, fmt.Sprintf("PRAGMA user_version=%d", len(steps)), nil)
}

func schemaVersion(conn *sqlite.Conn) (int, error) {
	var version int
	err := sqlitex.ExecuteTransient(conn, "PRAGMA user_version", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			version = stmt.ColumnInt(0)
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}
