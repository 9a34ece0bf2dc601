// Package auth casos de uso de sesión: login contra el catálogo, logout y estado.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/catalogo-admin/internal/application/session"
	"github.com/jhoicas/catalogo-admin/pkg/jwt"
)

// Authenticator la parte del cliente de catálogo que necesita el login.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// Status estado de la sesión para la CLI y la barra de navegación.
type Status struct {
	Authenticated bool
	Username      string
	ExpiresAt     time.Time // cero si el token no es JWT o no declara exp
	Expired       bool
}

// AuthUseCase orquesta el login y el cierre de sesión.
type AuthUseCase struct {
	api   Authenticator
	store *session.Store
	now   func() time.Time
}

// NewAuthUseCase construye el caso de uso.
func NewAuthUseCase(api Authenticator, store *session.Store) *AuthUseCase {
	return &AuthUseCase{api: api, store: store, now: time.Now}
}

// Login obtiene el token y lo guarda en la sesión. Solo un login exitoso y
// persistido pasa la sesión a autenticada.
func (uc *AuthUseCase) Login(ctx context.Context, username, password string) error {
	token, err := uc.api.Login(ctx, username, password)
	if err != nil {
		return err
	}
	if err := uc.store.SetToken(ctx, token); err != nil {
		return fmt.Errorf("auth: guardar sesión: %w", err)
	}
	return nil
}

// Logout cierra la sesión local. No hay endpoint de logout en el catálogo.
func (uc *AuthUseCase) Logout(ctx context.Context) error {
	return uc.store.Clear(ctx, session.ReasonLogout)
}

// Status describe la sesión actual sin tocar la red.
func (uc *AuthUseCase) Status() Status {
	token, ok := uc.store.Token()
	if !ok {
		return Status{}
	}
	info := jwt.Inspect(token)
	st := Status{Authenticated: true, Username: info.Username, ExpiresAt: info.ExpiresAt}
	if st.Username == "" {
		st.Username = info.Subject
	}
	st.Expired = jwt.Expired(token, uc.now())
	return st
}

// ExpireIfNeeded limpia la sesión si el token es un JWT vencido. Devuelve true si la
// sesión quedó cerrada por expiración.
func (uc *AuthUseCase) ExpireIfNeeded(ctx context.Context) (bool, error) {
	token, ok := uc.store.Token()
	if !ok || !jwt.Expired(token, uc.now()) {
		return false, nil
	}
	return true, uc.store.Clear(ctx, session.ReasonExpired)
}
