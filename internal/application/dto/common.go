package dto

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/jhoicas/catalogo-admin/internal/domain"
	"github.com/jhoicas/catalogo-admin/internal/domain/entity"
)

// ErrorResponse cuerpo de error HTTP del catálogo ({"code","message"}).
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("pubdate", func(fl validator.FieldLevel) bool {
			_, ok := entity.ParsePublicationDate(fl.Field().String())
			return ok
		})
	})
	return validate
}

// Validate aplica los tags validate de v y devuelve un domain.ValidationError legible.
func Validate(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.NewValidationError(err.Error())
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return domain.NewValidationError(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " es requerido"
	case "min":
		return fmt.Sprintf("%s debe ser >= %s", fe.Field(), fe.Param())
	case "pubdate":
		return fmt.Sprintf("%s no es una fecha válida (%v)", fe.Field(), fe.Value())
	default:
		return fmt.Sprintf("%s no cumple %s", fe.Field(), fe.Tag())
	}
}
