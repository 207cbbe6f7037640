// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zeebo/blake3"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/kanban/lib/clock"
	"github.com/bureau-foundation/kanban/lib/codec"
	"github.com/bureau-foundation/kanban/lib/kanban"
)

var (
	// ErrProjectNotFound is returned when no project has the given ID.
	ErrProjectNotFound = errors.New("store: project not found")

	// ErrProjectExists is returned by CreateProject for a taken ID.
	ErrProjectExists = errors.New("store: project already exists")

	// ErrUserNotFound is returned by user lookups that match nothing.
	ErrUserNotFound = errors.New("store: user not found")
)

// Store is the SQLite-backed document store. Safe for concurrent use.
type Store struct {
	pool        *sqlitex.Pool
	compression codec.Compression
	clock       clock.Clock
	logger      *slog.Logger
}

// Config holds the parameters for opening a store.
type Config struct {
	// Path is the SQLite database file. The parent directory must
	// exist.
	Path string

	// PoolSize is the number of SQLite connections. Defaults to 4.
	PoolSize int

	// Compression selects the envelope for newly written project
	// documents. Documents written with another setting stay
	// readable.
	Compression codec.Compression

	// Clock stamps UpdatedAt and chat entries. Required.
	Clock clock.Clock

	// Logger receives operational messages. Required.
	Logger *slog.Logger
}

// ProjectSummary is the listing form of a project.
type ProjectSummary struct {
	ID        string
	Name      string
	UpdatedAt time.Time
}

// Open opens (creating if needed) the database and applies the schema.
func Open(cfg Config) (*Store, error) {
	if cfg.Clock == nil {
		return nil, errors.New("store: Clock is required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("store: Logger is required")
	}

	pool, err := openDatabase(cfg.Path, cfg.PoolSize, cfg.Logger)
	if err != nil {
		return nil, err
	}

	return &Store{
		pool:        pool,
		compression: cfg.Compression,
		clock:       cfg.Clock,
		logger:      cfg.Logger,
	}, nil
}

// Close closes the connection pool. It blocks until borrowed
// connections are returned.
func (s *Store) Close() error {
	if err := s.pool.Close(); err != nil {
		return fmt.Errorf("store: closing: %w", err)
	}
	return nil
}

// Revision returns the content digest SaveProject compares against.
// UpdatedAt is excluded so that stamping it does not make every write
// look like a change.
func Revision(project *kanban.Project) (string, error) {
	shallow := *project
	shallow.UpdatedAt = time.Time{}
	encoded, err := codec.Marshal(&shallow)
	if err != nil {
		return "", fmt.Errorf("store: encoding project %s: %w", project.ID, err)
	}
	digest := blake3.Sum256(encoded)
	return hex.EncodeToString(digest[:]), nil
}

// CreateProject inserts a new project document.
func (s *Store) CreateProject(ctx context.Context, project *kanban.Project) (err error) {
	revision, err := Revision(project)
	if err != nil {
		return err
	}
	now := s.clock.Now().UTC()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.UpdatedAt = now
	document, err := codec.MarshalCompressed(project, s.compression)
	if err != nil {
		return fmt.Errorf("store: encoding project %s: %w", project.ID, err)
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("store: create project: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	_, found, err := projectRevision(conn, project.ID)
	if err != nil {
		return err
	}
	if found {
		return fmt.Errorf("%w: %s", ErrProjectExists, project.ID)
	}

	err = sqlitex.Execute(conn,
		`INSERT INTO projects (id, name, revision, document, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{
			project.ID, project.Name, revision, document,
			project.CreatedAt.UnixNano(), project.UpdatedAt.UnixNano(),
		}})
	if err != nil {
		return fmt.Errorf("store: inserting project %s: %w", project.ID, err)
	}
	s.logger.Info("project created", "project_id", project.ID, "name", project.Name)
	return nil
}

// LoadProject reads and decodes a project document.
func (s *Store) LoadProject(ctx context.Context, projectID string) (*kanban.Project, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: load project: %w", err)
	}
	defer s.pool.Put(conn)

	var document []byte
	err = sqlitex.Execute(conn, `SELECT document FROM projects WHERE id = ?`, &sqlitex.ExecOptions{
		Args: []any{projectID},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			document = make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, document)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: loading project %s: %w", projectID, err)
	}
	if document == nil {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
	}

	var project kanban.Project
	if err := codec.UnmarshalCompressed(document, &project); err != nil {
		return nil, fmt.Errorf("store: decoding project %s: %w", projectID, err)
	}
	return &project, nil
}

// ProjectExists reports whether a project with the ID is stored.
func (s *Store) ProjectExists(ctx context.Context, projectID string) (bool, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return false, fmt.Errorf("store: project exists: %w", err)
	}
	defer s.pool.Put(conn)

	_, found, err := projectRevision(conn, projectID)
	return found, err
}

// SaveProject writes the project back if its content changed since it
// was stored, stamping UpdatedAt. Returns whether a write happened.
func (s *Store) SaveProject(ctx context.Context, project *kanban.Project) (changed bool, err error) {
	revision, err := Revision(project)
	if err != nil {
		return false, err
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return false, fmt.Errorf("store: save project: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return false, fmt.Errorf("store: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	stored, found, err := projectRevision(conn, project.ID)
	if err != nil {
		return false, err
	}
	if !found {
		return false, fmt.Errorf("%w: %s", ErrProjectNotFound, project.ID)
	}
	if stored == revision {
		return false, nil
	}

	previousUpdatedAt := project.UpdatedAt
	project.UpdatedAt = s.clock.Now().UTC()
	document, err := codec.MarshalCompressed(project, s.compression)
	if err != nil {
		project.UpdatedAt = previousUpdatedAt
		return false, fmt.Errorf("store: encoding project %s: %w", project.ID, err)
	}

	err = sqlitex.Execute(conn,
		`UPDATE projects SET name = ?, revision = ?, document = ?, updated_at = ? WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []any{
			project.Name, revision, document, project.UpdatedAt.UnixNano(), project.ID,
		}})
	if err != nil {
		project.UpdatedAt = previousUpdatedAt
		return false, fmt.Errorf("store: updating project %s: %w", project.ID, err)
	}
	return true, nil
}

// ListProjects returns every project, most recently updated first.
func (s *Store) ListProjects(ctx context.Context) ([]ProjectSummary, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list projects: %w", err)
	}
	defer s.pool.Put(conn)

	var projects []ProjectSummary
	err = sqlitex.Execute(conn,
		`SELECT id, name, updated_at FROM projects ORDER BY updated_at DESC, id`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				projects = append(projects, ProjectSummary{
					ID:        stmt.ColumnText(0),
					Name:      stmt.ColumnText(1),
					UpdatedAt: time.Unix(0, stmt.ColumnInt64(2)).UTC(),
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("store: listing projects: %w", err)
	}
	return projects, nil
}

func projectRevision(conn *sqlite.Conn, projectID string) (revision string, found bool, err error) {
	err = sqlitex.Execute(conn, `SELECT revision FROM projects WHERE id = ?`, &sqlitex.ExecOptions{
		Args: []any{projectID},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			revision = stmt.ColumnText(0)
			found = true
			return nil
		},
	})
	if err != nil {
		return "", false, fmt.Errorf("store: reading revision of %s: %w", projectID, err)
	}
	return revision, found, nil
}
