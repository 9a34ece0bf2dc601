package http

import (
	"context"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jhoicas/catalogo-admin/internal/application/auth"
	"github.com/jhoicas/catalogo-admin/internal/application/guard"
	"github.com/jhoicas/catalogo-admin/internal/application/session"
	"github.com/jhoicas/catalogo-admin/internal/infrastructure/metrics"
	"github.com/jhoicas/catalogo-admin/pkg/logger"
)

// Rutas operativas, fuera del árbol de vistas y del guard.
const (
	HealthPath  = "/health"
	MetricsPath = "/metrics"
)

// Shell raíz de composición de la consola: inicializa la sesión una sola vez, se
// suscribe a sus cambios y aplica el guard en cada navegación.
type Shell struct {
	store   *session.Store
	authUC  *auth.AuthUseCase
	metrics *metrics.Metrics
	log     *logger.Logger

	once        sync.Once
	initErr     error
	unsubscribe func()

	mu            sync.RWMutex
	authenticated bool
}

// NewShell construye el shell; Start debe llamarse antes de servir.
func NewShell(store *session.Store, authUC *auth.AuthUseCase, m *metrics.Metrics, log *logger.Logger) *Shell {
	return &Shell{store: store, authUC: authUC, metrics: m, log: log.Component("shell")}
}

// Start carga el token persistido y se suscribe a los cambios. Idempotente.
// Un fallo de almacenamiento deja la sesión vacía; se registra y se devuelve.
func (s *Shell) Start(ctx context.Context) error {
	s.once.Do(func() {
		s.unsubscribe = s.store.Subscribe(s.onChange)
		if err := s.store.Initialize(ctx); err != nil {
			s.log.Error().Err(err).Msg("no se pudo restaurar la sesión; se arranca sin token")
			s.initErr = err
		}
		s.setAuthenticated(s.store.Authenticated())
		// la restauración ya se contó en onChange; aquí solo el estado inicial
		s.metrics.SetAuthenticated(s.Authenticated())
	})
	return s.initErr
}

// Close cancela la suscripción.
func (s *Shell) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Authenticated estado visto por el shell (se actualiza por notificación).
func (s *Shell) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

func (s *Shell) setAuthenticated(v bool) {
	s.mu.Lock()
	s.authenticated = v
	s.mu.Unlock()
}

func (s *Shell) onChange(c session.Change) {
	s.setAuthenticated(c.Authenticated)
	s.metrics.ObserveSession(c.Reason, c.Authenticated)
	s.log.Info().Bool("authenticated", c.Authenticated).Str("reason", c.Reason).Msg("transición de sesión")
}

// RequestID asigna X-Request-ID a cada petición entrante.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(LocalRequestID, id)
		c.Set("X-Request-ID", id)
		return c.Next()
	}
}

// Guard middleware de navegación: expira tokens JWT vencidos y aplica guard.Decide.
// Las rutas operativas pasan sin evaluar.
func (s *Shell) Guard() fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if path == HealthPath || path == MetricsPath {
			return c.Next()
		}

		if expired, err := s.authUC.ExpireIfNeeded(c.UserContext()); err != nil {
			s.log.Warn().Err(err).Msg("no se pudo borrar el token expirado")
		} else if expired {
			s.log.Info().Str("path", path).Msg("token expirado")
		}

		d := guard.Decide(s.Authenticated(), path)
		s.metrics.ObserveGuard(d.Route, d.Action.String())
		if d.Action == guard.Redirect {
			s.log.Debug().Str("path", path).Str("target", d.Target).Msg("redirección del guard")
			return c.Redirect(d.Target, fiber.StatusSeeOther)
		}

		c.Locals(LocalAuthenticated, s.Authenticated())
		c.Locals(LocalRoute, d.Route)
		return c.Next()
	}
}

// AccessLog registra cada petición con zerolog.
func (s *Shell) AccessLog() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		status := c.Response().StatusCode()
		ev := s.log.Debug()
		if status >= fiber.StatusInternalServerError {
			ev = s.log.Warn()
		}
		id, _ := c.Locals(LocalRequestID).(string)
		ev.Str("method", c.Method()).
			Str("path", strings.Clone(c.Path())).
			Int("status", status).
			Str("request_id", id).
			Msg("petición")
		return err
	}
}
