package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/catalogo-admin/internal/domain/repository"
)

var _ repository.TokenRepository = (*TokenRepo)(nil)

const createClientStorage = `
	CREATE TABLE IF NOT EXISTS client_storage (
		namespace  TEXT        NOT NULL,
		key        TEXT        NOT NULL,
		value      TEXT        NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (namespace, key)
	)`

// TokenRepo implementación de TokenRepository sobre PostgreSQL, para despliegues en
// contenedores sin disco persistente. Cada consola usa su propio namespace.
type TokenRepo struct {
	pool      *pgxpool.Pool
	namespace string
}

// NewTokenRepository construye el adaptador y asegura la tabla.
func NewTokenRepository(ctx context.Context, pool *pgxpool.Pool, namespace string) (*TokenRepo, error) {
	if _, err := pool.Exec(ctx, createClientStorage); err != nil {
		return nil, fmt.Errorf("crear client_storage: %w", err)
	}
	return &TokenRepo{pool: pool, namespace: namespace}, nil
}

// Load obtiene el valor de la clave.
func (r *TokenRepo) Load(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.pool.QueryRow(ctx,
		`SELECT value FROM client_storage WHERE namespace = $1 AND key = $2`,
		r.namespace, key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select client_storage: %w", err)
	}
	return value, true, nil
}

// Save hace upsert de la clave.
func (r *TokenRepo) Save(ctx context.Context, key, value string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO client_storage (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		r.namespace, key, value,
	)
	if err != nil {
		return fmt.Errorf("upsert client_storage: %w", err)
	}
	return nil
}

// Delete elimina la clave.
func (r *TokenRepo) Delete(ctx context.Context, key string) error {
	if _, err := r.pool.Exec(ctx,
		`DELETE FROM client_storage WHERE namespace = $1 AND key = $2`, r.namespace, key,
	); err != nil {
		return fmt.Errorf("delete client_storage: %w", err)
	}
	return nil
}

// Close cierra el pool.
func (r *TokenRepo) Close() error {
	r.pool.Close()
	return nil
}
