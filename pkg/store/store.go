// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store is the persistence and query layer: a single-file SQLite
// database holding entities, changes, and free-form metadata, plus the
// blame/history read-only layers built on top of it.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/ataraxy-labs/sem/pkg/entity"
)

// DefaultSnapshot is the snapshot name used when a caller does not ask for
// history.
const DefaultSnapshot = "current"

// DBFileName is the SQL file's name inside the per-repository state
// directory (spec.md §6 "On-disk state").
const DBFileName = "sem.db"

// SemDatabase is the store's single entry point. The underlying connection
// is single-writer: mutating methods serialise through mu, matching
// spec.md §5's "storage component serialises mutations via a transaction
// lock".
type SemDatabase struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// Open opens (creating if necessary) the SQLite file at
// filepath.Join(dataDir, DBFileName) and ensures its schema exists.
func Open(dataDir string) (*SemDatabase, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	path := filepath.Join(dataDir, DBFileName)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sem db: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	sdb := &SemDatabase{db: db, path: path}
	if err := sdb.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return sdb, nil
}

// Path returns the on-disk path of the SQLite file.
func (s *SemDatabase) Path() string { return s.path }

// Close closes the underlying connection.
func (s *SemDatabase) Close() error {
	return s.db.Close()
}

// ensureSchema creates every table and index if absent. Idempotent and
// safe to call on every Open, mirroring the teacher's EnsureSchema.
func (s *SemDatabase) ensureSchema() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS entities (
			id TEXT NOT NULL,
			file_path TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			name TEXT NOT NULL,
			parent_id TEXT,
			content TEXT NOT NULL,
			content_hash TEXT NOT NULL,
			start_line INTEGER NOT NULL,
			end_line INTEGER NOT NULL,
			commit_sha TEXT,
			snapshot TEXT NOT NULL DEFAULT 'current',
			PRIMARY KEY (id, snapshot)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entities_file_path ON entities(file_path)`,
		`CREATE INDEX IF NOT EXISTS idx_entities_entity_type ON entities(entity_type)`,
		`CREATE INDEX IF NOT EXISTS idx_entities_snapshot ON entities(snapshot)`,
		`CREATE INDEX IF NOT EXISTS idx_entities_content_hash ON entities(content_hash)`,

		`CREATE TABLE IF NOT EXISTS changes (
			id TEXT PRIMARY KEY,
			entity_id TEXT NOT NULL,
			change_type TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			entity_name TEXT NOT NULL,
			file_path TEXT NOT NULL,
			old_file_path TEXT,
			before_content TEXT,
			after_content TEXT,
			commit_sha TEXT,
			author TEXT,
			timestamp INTEGER NOT NULL DEFAULT (strftime('%s','now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_changes_file_path ON changes(file_path)`,
		`CREATE INDEX IF NOT EXISTS idx_changes_change_type ON changes(change_type)`,
		`CREATE INDEX IF NOT EXISTS idx_changes_entity_type ON changes(entity_type)`,
		`CREATE INDEX IF NOT EXISTS idx_changes_commit_sha ON changes(commit_sha)`,

		`CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS labels (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			entity_id TEXT NOT NULL,
			label TEXT NOT NULL,
			UNIQUE(entity_id, label)
		)`,

		`CREATE TABLE IF NOT EXISTS comments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			entity_id TEXT NOT NULL,
			author TEXT,
			body TEXT NOT NULL,
			timestamp INTEGER NOT NULL DEFAULT (strftime('%s','now'))
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	return nil
}

// GetMeta returns metadata[key], or "" if unset.
func (s *SemDatabase) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get meta %q: %w", key, err)
	}
	return value, nil
}

// SetMeta upserts metadata[key] = value.
func (s *SemDatabase) SetMeta(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set meta %q: %w", key, err)
	}
	return nil
}

// UpsertEntities batch-writes ents under snapshot inside one transaction
// (all-or-nothing, spec.md §4.5 "batch upserts are transactional").
func (s *SemDatabase) UpsertEntities(ctx context.Context, snapshot string, ents []entity.Entity) error {
	if snapshot == "" {
		snapshot = DefaultSnapshot
	}
	if len(ents) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op once committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entities (id, file_path, entity_type, name, parent_id, content, content_hash, start_line, end_line, commit_sha, snapshot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, snapshot) DO UPDATE SET
			file_path = excluded.file_path,
			entity_type = excluded.entity_type,
			name = excluded.name,
			parent_id = excluded.parent_id,
			content = excluded.content,
			content_hash = excluded.content_hash,
			start_line = excluded.start_line,
			end_line = excluded.end_line,
			commit_sha = excluded.commit_sha`)
	if err != nil {
		return fmt.Errorf("prepare upsert entities: %w", err)
	}
	defer stmt.Close()

	for _, e := range ents {
		if _, err := stmt.ExecContext(ctx, e.ID, e.FilePath, string(e.EntityType), e.Name,
			nullIfEmpty(e.ParentID), e.Content, e.ContentHash, e.StartLine, e.EndLine,
			nil, snapshot); err != nil {
			return fmt.Errorf("upsert entity %q: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// UpsertChanges batch-writes changes inside one transaction.
func (s *SemDatabase) UpsertChanges(ctx context.Context, changes []entity.SemanticChange) error {
	if len(changes) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op once committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO changes (id, entity_id, change_type, entity_type, entity_name, file_path, old_file_path, before_content, after_content, commit_sha, author)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			change_type = excluded.change_type,
			entity_type = excluded.entity_type,
			entity_name = excluded.entity_name,
			file_path = excluded.file_path,
			old_file_path = excluded.old_file_path,
			before_content = excluded.before_content,
			after_content = excluded.after_content,
			commit_sha = excluded.commit_sha,
			author = excluded.author`)
	if err != nil {
		return fmt.Errorf("prepare upsert changes: %w", err)
	}
	defer stmt.Close()

	for _, c := range changes {
		if _, err := stmt.ExecContext(ctx, c.ID, c.EntityID, string(c.ChangeType), string(c.EntityType),
			c.EntityName, c.FilePath, nullIfEmpty(c.OldFilePath), nullIfEmpty(c.BeforeContent),
			nullIfEmpty(c.AfterContent), nullIfEmpty(c.CommitSha), nullIfEmpty(c.Author)); err != nil {
			return fmt.Errorf("upsert change %q: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// GetEntities returns every entity in snapshot, optionally narrowed to one
// file_path.
func (s *SemDatabase) GetEntities(ctx context.Context, snapshot, filePath string) ([]entity.Entity, error) {
	if snapshot == "" {
		snapshot = DefaultSnapshot
	}

	query := `SELECT id, file_path, entity_type, name, parent_id, content, content_hash, start_line, end_line FROM entities WHERE snapshot = ?`
	args := []any{snapshot}
	if filePath != "" {
		query += ` AND file_path = ?`
		args = append(args, filePath)
	}
	query += ` ORDER BY file_path, start_line`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get entities: %w", err)
	}
	defer rows.Close()

	var out []entity.Entity
	for rows.Next() {
		var e entity.Entity
		var parentID sql.NullString
		if err := rows.Scan(&e.ID, &e.FilePath, &e.EntityType, &e.Name, &parentID,
			&e.Content, &e.ContentHash, &e.StartLine, &e.EndLine); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		e.ParentID = parentID.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// ChangeFilter narrows GetChanges. Zero-value fields are unconstrained.
type ChangeFilter struct {
	FilePath   string
	ChangeType entity.ChangeType
	EntityType entity.Type
	CommitSha  string
	Limit      int
}

// GetChanges returns changes matching filter, newest first.
func (s *SemDatabase) GetChanges(ctx context.Context, filter ChangeFilter) ([]entity.SemanticChange, error) {
	query := `SELECT id, entity_id, change_type, entity_type, entity_name, file_path, old_file_path, before_content, after_content, commit_sha, author, timestamp FROM changes WHERE 1=1`
	var args []any

	if filter.FilePath != "" {
		query += ` AND file_path = ?`
		args = append(args, filter.FilePath)
	}
	if filter.ChangeType != "" {
		query += ` AND change_type = ?`
		args = append(args, string(filter.ChangeType))
	}
	if filter.EntityType != "" {
		query += ` AND entity_type = ?`
		args = append(args, string(filter.EntityType))
	}
	if filter.CommitSha != "" {
		query += ` AND commit_sha = ?`
		args = append(args, filter.CommitSha)
	}
	query += ` ORDER BY timestamp DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get changes: %w", err)
	}
	defer rows.Close()

	var out []entity.SemanticChange
	for rows.Next() {
		var c entity.SemanticChange
		var oldPath, before, after, commitSha, author sql.NullString
		var ts int64
		if err := rows.Scan(&c.ID, &c.EntityID, &c.ChangeType, &c.EntityType, &c.EntityName,
			&c.FilePath, &oldPath, &before, &after, &commitSha, &author, &ts); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		c.OldFilePath = oldPath.String
		c.BeforeContent = before.String
		c.AfterContent = after.String
		c.CommitSha = commitSha.String
		c.Author = author.String
		c.TimestampUnix = ts
		out = append(out, c)
	}
	return out, rows.Err()
}

// Query runs an arbitrary read-only SELECT and returns each row as a
// column-name-keyed map (spec.md §4.5 "write statements through this path
// are not required to be supported").
func (s *SemDatabase) Query(ctx context.Context, sqlText string) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
