// Package memory implementaciones en memoria de los puertos de salida.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/catalogo-admin/internal/domain/repository"
)

var _ repository.TokenRepository = (*TokenRepository)(nil)

// TokenRepository mapa protegido por mutex. No sobrevive al proceso; para tests y
// para SESSION_BACKEND=memory.
type TokenRepository struct {
	mu     sync.RWMutex
	values map[string]string
	// Fallo opcional que devuelven Save/Delete (tests de errores de persistencia).
	FailWrites error
}

// NewTokenRepository construye el repositorio, opcionalmente con valores iniciales.
func NewTokenRepository(initial map[string]string) *TokenRepository {
	values := make(map[string]string, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &TokenRepository{values: values}
}

func (r *TokenRepository) Load(_ context.Context, key string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	return v, ok, nil
}

func (r *TokenRepository) Save(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWrites != nil {
		return r.FailWrites
	}
	r.values[key] = value
	return nil
}

func (r *TokenRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWrites != nil {
		return r.FailWrites
	}
	delete(r.values, key)
	return nil
}

func (r *TokenRepository) Close() error { return nil }

// Value lectura directa para aserciones.
func (r *TokenRepository) Value(key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	return v, ok
}
