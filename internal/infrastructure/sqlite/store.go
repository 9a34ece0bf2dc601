// Package sqlite persiste el token en una tabla clave-valor de SQLite (driver modernc, sin cgo).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/jhoicas/catalogo-admin/internal/domain/repository"
)

var _ repository.TokenRepository = (*Store)(nil)

const schema = `CREATE TABLE IF NOT EXISTS client_storage (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);`

// Store tabla client_storage(key, value) en un archivo SQLite.
type Store struct {
	db *sql.DB
}

// Open abre (o crea) la base en dbPath y aplica el esquema.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("crear directorio: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("abrir sqlite: %w", err)
	}
	// Un solo escritor: evita SQLITE_BUSY entre conexiones del propio pool.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("aplicar esquema: %w", err)
	}
	return &Store{db: db}, nil
}

// Load lee la clave.
func (s *Store) Load(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM client_storage WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("leer %s: %w", key, err)
	}
	return value, true, nil
}

// Save inserta o reemplaza la clave.
func (s *Store) Save(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO client_storage (key, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value)
	if err != nil {
		return fmt.Errorf("guardar %s: %w", key, err)
	}
	return nil
}

// Delete elimina la clave.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM client_storage WHERE key = ?`, key); err != nil {
		return fmt.Errorf("borrar %s: %w", key, err)
	}
	return nil
}

// Close cierra la base.
func (s *Store) Close() error {
	return s.db.Close()
}
