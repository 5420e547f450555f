package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dennisdiepolder/dropboard/internal/types"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

const createRolesTableSQL = `CREATE TABLE IF NOT EXISTS role_assignments (
	role TEXT NOT NULL,
	email TEXT NOT NULL,
	PRIMARY KEY (role, email)
);`

// SQLiteStore implements Store on a local SQLite file
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewSQLiteStore opens (and creates if needed) the database at path. Use
// ":memory:" for a throwaway database.
func NewSQLiteStore(ctx context.Context, path string, logger zerolog.Logger) (*SQLiteStore, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// one connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, createRolesTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create role_assignments table: %w", err)
	}

	logger.Info().Str("path", path).Msg("SQLite store initialized")
	return &SQLiteStore{
		db:     db,
		logger: logger.With().Str("component", "sqlite_store").Logger(),
	}, nil
}

func (s *SQLiteStore) ListRoleAssignments(ctx context.Context) ([]types.RoleAssignment, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT role, email FROM role_assignments ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to query role assignments: %w", err)
	}
	defer rows.Close()

	var out []types.RoleAssignment
	for rows.Next() {
		var a types.RoleAssignment
		var role string
		if err := rows.Scan(&role, &a.Email); err != nil {
			return nil, fmt.Errorf("failed to scan role assignment: %w", err)
		}
		a.Role = types.Role(role)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) PutRoleAssignment(ctx context.Context, a types.RoleAssignment) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO role_assignments(role, email) VALUES(?, ?)", string(a.Role), a.Email)
	if err != nil {
		return fmt.Errorf("failed to save role assignment: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteRoleAssignment(ctx context.Context, a types.RoleAssignment) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM role_assignments WHERE role = ? AND email = ?", string(a.Role), a.Email)
	if err != nil {
		return fmt.Errorf("failed to delete role assignment: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ReplaceRoleAssignments(ctx context.Context, all []types.RoleAssignment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM role_assignments"); err != nil {
		return fmt.Errorf("failed to clear role assignments: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO role_assignments(role, email) VALUES(?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range all {
		if _, err := stmt.ExecContext(ctx, string(a.Role), a.Email); err != nil {
			return fmt.Errorf("failed to save role assignment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit role assignments: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
