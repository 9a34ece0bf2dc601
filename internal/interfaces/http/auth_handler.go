package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/catalogo-admin/internal/application/auth"
	"github.com/jhoicas/catalogo-admin/internal/application/dto"
	"github.com/jhoicas/catalogo-admin/internal/application/guard"
	"github.com/jhoicas/catalogo-admin/internal/domain"
	"github.com/jhoicas/catalogo-admin/pkg/logger"
)

// AuthHandler vistas de login y logout.
type AuthHandler struct {
	uc      *auth.AuthUseCase
	appName string
	log     *logger.Logger
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(uc *auth.AuthUseCase, appName string, log *logger.Logger) *AuthHandler {
	return &AuthHandler{uc: uc, appName: appName, log: log.Component("auth")}
}

// LoginPage GET /login.
func (h *AuthHandler) LoginPage(c *fiber.Ctx) error {
	return render(c, h.appName, "login", "Login", fiber.Map{})
}

// Login POST /login: intercambia credenciales por un token y, persistido, redirige a /.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return h.loginError(c, fiber.StatusBadRequest, in.Username, MsgInvalidCredentials)
	}
	err := h.uc.Login(c.UserContext(), in.Username, in.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrValidation):
			return h.loginError(c, fiber.StatusUnauthorized, in.Username, MsgInvalidCredentials)
		default:
			h.log.Warn().Err(err).Msg("login fallido")
			return h.loginError(c, fiber.StatusBadGateway, in.Username, MsgLoginFailed)
		}
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (h *AuthHandler) loginError(c *fiber.Ctx, status int, username, msg string) error {
	c.Status(status)
	return render(c, h.appName, "login", "Login", fiber.Map{"Error": msg, "Username": username})
}

// Logout POST /logout: limpia la sesión y vuelve al login.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.uc.Logout(c.UserContext()); err != nil {
		h.log.Error().Err(err).Msg("no se pudo borrar el token persistido")
	}
	return c.Redirect(guard.LoginPath, fiber.StatusSeeOther)
}
