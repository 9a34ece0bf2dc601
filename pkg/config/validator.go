package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// registerValidators registra las reglas propias de la configuración.
func registerValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("positive_duration", validatePositiveDuration); err != nil {
		return fmt.Errorf("registrar validador positive_duration: %w", err)
	}
	return nil
}

func validatePositiveDuration(fl validator.FieldLevel) bool {
	d, ok := fl.Field().Interface().(time.Duration)
	return ok && d > 0
}

// Validate valida la configuración con los tags de struct y devuelve un error legible.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidators(v); err != nil {
		return err
	}
	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

// formatValidationErrors convierte validator.ValidationErrors en un único mensaje.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, formatSingleValidationError(e))
	}
	return errors.New("configuración inválida: " + strings.Join(messages, "; "))
}

func formatSingleValidationError(e validator.FieldError) string {
	field := strings.TrimPrefix(e.Namespace(), "Config.")
	switch e.Tag() {
	case "required", "required_if":
		return field + " es requerido"
	case "url":
		return fmt.Sprintf("%s debe ser una URL absoluta (recibido %q)", field, e.Value())
	case "oneof":
		return fmt.Sprintf("%s debe ser uno de [%s] (recibido %q)", field, e.Param(), e.Value())
	case "min", "max":
		return fmt.Sprintf("%s fuera de rango (%s=%s)", field, e.Tag(), e.Param())
	case "positive_duration":
		return field + " debe ser mayor que cero"
	default:
		return fmt.Sprintf("%s no cumple la regla %s", field, e.Tag())
	}
}
