package domain

import "errors"

// Errores de dominio (sin dependencias externas). Las vistas los comparan con errors.Is
// y los traducen a un mensaje local; ninguno se reintenta.
var (
	// ErrUnauthorized no hay token o el catálogo lo rechazó.
	ErrUnauthorized = errors.New("no autorizado")
	// ErrInvalidCredentials el catálogo rechazó usuario/contraseña en /auth/login.
	ErrInvalidCredentials = errors.New("credenciales inválidas")
	// ErrNotFound el recurso no existe en el catálogo.
	ErrNotFound = errors.New("recurso no encontrado")
	// ErrTransport fallo de red, timeout o error del servidor.
	ErrTransport = errors.New("error de transporte")
	// ErrValidation entrada del formulario o payload del servidor con forma inválida.
	ErrValidation = errors.New("entrada inválida")
)

// ValidationError error de validación con un mensaje apto para mostrar en la vista.
// errors.Is(err, ErrValidation) es verdadero.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError construye un ValidationError.
func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}
