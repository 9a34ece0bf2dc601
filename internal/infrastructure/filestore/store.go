// Package filestore persiste el token en un archivo JSON clave-valor con permisos 0600.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jhoicas/catalogo-admin/internal/domain/repository"
	"github.com/jhoicas/catalogo-admin/pkg/logger"
)

var _ repository.TokenRepository = (*Store)(nil)

// Store archivo JSON {"token": "..."} con escritura atómica (tmp, fsync, rename),
// flock entre procesos (la CLI y el servidor comparten archivo) y mutex en proceso.
type Store struct {
	path string
	mu   sync.Mutex
	log  *logger.Logger
}

// New construye el store; el directorio se crea en la primera escritura.
func New(path string, log *logger.Logger) *Store {
	return &Store{path: path, log: log.Component("filestore")}
}

// Path devuelve la ruta del archivo.
func (s *Store) Path() string { return s.path }

// Load lee la clave. Archivo inexistente equivale a clave ausente.
func (s *Store) Load(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// Save escribe la clave preservando el resto del archivo.
func (s *Store) Save(_ context.Context, key, value string) error {
	return s.update(func(values map[string]string) {
		values[key] = value
	})
}

// Delete elimina la clave; no falla si no existía.
func (s *Store) Delete(_ context.Context, key string) error {
	return s.update(func(values map[string]string) {
		delete(values, key)
	})
}

// Close no retiene recursos entre llamadas.
func (s *Store) Close() error { return nil }

func (s *Store) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("leer %s: %w", s.path, err)
	}
	if info, statErr := os.Stat(s.path); statErr == nil && info.Mode().Perm()&0o077 != 0 {
		s.log.Warn().Str("path", s.path).Str("mode", fmt.Sprintf("%04o", info.Mode().Perm())).
			Msg("el archivo de sesión tiene permisos demasiado abiertos, debería ser 0600")
	}
	values := map[string]string{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parsear %s: %w", s.path, err)
	}
	return values, nil
}

func (s *Store) update(mutate func(map[string]string)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("crear directorio de sesión: %w", err)
	}

	lockFile, err := os.OpenFile(s.path+".lock", os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("abrir lock: %w", err)
	}
	defer func() { _ = lockFile.Close() }()
	if err := flockLock(lockFile.Fd()); err != nil {
		return fmt.Errorf("adquirir lock: %w", err)
	}
	defer flockUnlock(lockFile.Fd()) //nolint:errcheck

	values, err := s.read()
	if err != nil {
		return err
	}
	mutate(values)

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("serializar sesión: %w", err)
	}
	data = append(data, '\n')
	if err := s.writeAtomic(data); err != nil {
		return err
	}
	s.log.Debug().Str("path", s.path).Msg("sesión guardada")
	return nil
}

// writeAtomic escribe a un temporal, hace fsync y lo renombra sobre el destino.
func (s *Store) writeAtomic(data []byte) error {
	tmpPath := s.path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("crear temporal: %w", err)
	}
	cleanup := func() {
		_ = f.Close()
		_ = os.Remove(tmpPath)
	}
	if _, err := f.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("escribir temporal: %w", err)
	}
	if err := f.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("fsync temporal: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("cerrar temporal: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renombrar temporal: %w", err)
	}
	return os.Chmod(s.path, 0o600)
}
