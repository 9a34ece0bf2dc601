package http

import (
	"errors"

	"github.com/jhoicas/catalogo-admin/internal/domain"
)

// Mensajes locales de cada vista. Ningún error llega a un manejador global.
const (
	MsgUnauthorized       = "Unauthorized! Please login."
	MsgInvalidCredentials = "Invalid credentials. Please try again."
	MsgLoginFailed        = "Login failed. Please try again."
	MsgListFailed         = "Error fetching books. Please try again."
	MsgDetailsFailed      = "Error fetching book details. Please try again."
	MsgNotFound           = "Book not found."
	MsgCreateFailed       = "Error creating book. Please try again."
	MsgUpdateFailed       = "Error updating book. Please try again."
	MsgDeleteFailed       = "Error deleting book. Please try again."
	MsgCategoriesFailed   = "Error fetching categories. Please try again."
	MsgSearchFailed       = "Error al obtener los resultados, intente nuevamente."
	MsgExportFailed       = "Error exporting catalog. Please try again."
)

// viewMessage traduce un error de dominio al mensaje de la vista. Los errores de
// validación llevan su propio mensaje; el resto usa fallback.
func viewMessage(err error, fallback string) string {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case errors.Is(err, domain.ErrUnauthorized):
		return MsgUnauthorized
	case errors.Is(err, domain.ErrInvalidCredentials):
		return MsgInvalidCredentials
	case errors.Is(err, domain.ErrNotFound) && fallback == MsgDetailsFailed:
		return MsgNotFound
	default:
		return fallback
	}
}
