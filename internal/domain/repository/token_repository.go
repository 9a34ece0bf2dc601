package repository

import "context"

// TokenRepository almacenamiento clave-valor duradero del lado cliente.
// Sobrevive a reinicios del proceso; no sincroniza entre instancias.
type TokenRepository interface {
	// Load devuelve el valor y si existía. La ausencia no es un error.
	Load(ctx context.Context, key string) (string, bool, error)
	Save(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
