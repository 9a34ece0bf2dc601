// Package session es la única fuente de verdad del bearer token de la consola.
//
// Hay un Store por proceso. El token vive en memoria y en un TokenRepository
// duradero bajo una clave fija, de modo que reiniciar la consola no obliga a
// volver a iniciar sesión. Los cambios se notifican a los suscriptores (el shell
// HTTP) en lugar de sondear.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jhoicas/catalogo-admin/internal/domain"
	"github.com/jhoicas/catalogo-admin/internal/domain/repository"
	"github.com/jhoicas/catalogo-admin/pkg/logger"
)

// Motivos de transición registrados en logs y métricas.
const (
	ReasonRestored     = "restored"
	ReasonLogin        = "login"
	ReasonLogout       = "logout"
	ReasonUnauthorized = "unauthorized"
	ReasonExpired      = "expired"
)

// Change notificación de cambio de sesión.
type Change struct {
	Authenticated bool
	Reason        string
}

// Store guarda el token actual. Seguro para uso concurrente.
type Store struct {
	repo repository.TokenRepository
	key  string
	log  *logger.Logger

	mu      sync.RWMutex
	token   string
	present bool

	subMu  sync.Mutex
	subs   map[int]func(Change)
	nextID int
}

// NewStore construye el store; hay que llamar Initialize antes de usarlo.
func NewStore(repo repository.TokenRepository, key string, log *logger.Logger) *Store {
	return &Store{
		repo: repo,
		key:  key,
		log:  log.Component("session"),
		subs: make(map[int]func(Change)),
	}
}

// Initialize carga el token persistido. La ausencia de valor no es un error; un fallo
// del almacenamiento deja la sesión vacía y se devuelve para que el caller lo registre.
func (s *Store) Initialize(ctx context.Context) error {
	token, ok, err := s.repo.Load(ctx, s.key)
	if err != nil {
		return fmt.Errorf("session: leer token persistido: %w", err)
	}
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		s.log.Debug().Msg("sin token persistido")
		return nil
	}

	s.mu.Lock()
	s.token, s.present = token, true
	s.mu.Unlock()

	s.log.Info().Str("reason", ReasonRestored).Msg("sesión restaurada")
	s.notify(Change{Authenticated: true, Reason: ReasonRestored})
	return nil
}

// SetToken persiste el token y actualiza el estado en memoria. No valida su forma;
// solo rechaza el string vacío.
func (s *Store) SetToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("session: token vacío: %w", domain.ErrValidation)
	}
	if err := s.repo.Save(ctx, s.key, token); err != nil {
		return fmt.Errorf("session: persistir token: %w", err)
	}

	s.mu.Lock()
	s.token, s.present = token, true
	s.mu.Unlock()

	s.log.Info().Str("reason", ReasonLogin).Msg("sesión iniciada")
	s.notify(Change{Authenticated: true, Reason: ReasonLogin})
	return nil
}

// Token lectura sincrónica del estado en memoria; nunca bloquea en I/O.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.present
}

// Authenticated indica si hay token.
func (s *Store) Authenticated() bool {
	_, ok := s.Token()
	return ok
}

// Clear pasa a no autenticado (logout, 401 del catálogo o token expirado).
// La memoria se limpia aunque falle el borrado persistido; ese error se devuelve.
func (s *Store) Clear(ctx context.Context, reason string) error {
	s.mu.Lock()
	was := s.present
	s.token, s.present = "", false
	s.mu.Unlock()

	err := s.repo.Delete(ctx, s.key)
	if err != nil {
		err = fmt.Errorf("session: borrar token persistido: %w", err)
	}
	if !was {
		return err
	}

	s.log.Info().Str("reason", reason).Msg("sesión cerrada")
	s.notify(Change{Authenticated: false, Reason: reason})
	return err
}

// ClearIf cierra la sesión solo si el token vigente es token. Un rechazo que llega
// tarde, después de un nuevo login, no toca la sesión nueva. Devuelve si limpió.
func (s *Store) ClearIf(ctx context.Context, token, reason string) (bool, error) {
	s.mu.Lock()
	if !s.present || s.token != token {
		s.mu.Unlock()
		s.log.Debug().Str("reason", reason).Msg("rechazo de un token ya reemplazado; sesión intacta")
		return false, nil
	}
	s.token, s.present = "", false
	s.mu.Unlock()

	err := s.repo.Delete(ctx, s.key)
	if err != nil {
		err = fmt.Errorf("session: borrar token persistido: %w", err)
	}
	s.log.Info().Str("reason", reason).Msg("sesión cerrada")
	s.notify(Change{Authenticated: false, Reason: reason})
	return true, err
}

// Subscribe registra fn para cada cambio de sesión y devuelve la función para cancelar.
// fn se llama de forma sincrónica, fuera de los locks del store.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) notify(c Change) {
	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}
