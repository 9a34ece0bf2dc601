package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/catalogo-admin/internal/domain"
	"github.com/jhoicas/catalogo-admin/internal/domain/entity"
)

// BookResponse libro tal como lo devuelve el catálogo. Precio acepta número o string.
type BookResponse struct {
	ID               int64           `json:"id" validate:"required,min=1"`
	Titulo           string          `json:"titulo" validate:"required"`
	Autor            string          `json:"autor"`
	FechaPublicacion string          `json:"fechaPublicacion" validate:"omitempty,pubdate"`
	Precio           decimal.Decimal `json:"precio"`
	Stock            int             `json:"stock" validate:"min=0"`
	Categoria        string          `json:"categoria"`
}

// Check valida la forma del payload recibido.
func (r BookResponse) Check() error {
	if err := Validate(r); err != nil {
		return err
	}
	if r.Precio.IsNegative() {
		return domain.NewValidationError("precio no puede ser negativo")
	}
	return nil
}

// ToEntity convierte el payload en la entidad.
func (r BookResponse) ToEntity() entity.Book {
	return entity.Book{
		ID:               r.ID,
		Titulo:           r.Titulo,
		Autor:            r.Autor,
		FechaPublicacion: r.FechaPublicacion,
		Precio:           r.Precio,
		Stock:            r.Stock,
		Categoria:        r.Categoria,
	}
}

// BookWire libro serializado con el precio como número JSON (no string).
type BookWire struct {
	ID               int64       `json:"id"`
	Titulo           string      `json:"titulo"`
	Autor            string      `json:"autor"`
	FechaPublicacion string      `json:"fechaPublicacion"`
	Precio           json.Number `json:"precio"`
	Stock            int         `json:"stock"`
	Categoria        string      `json:"categoria"`
}

// NewBookWire serializa la entidad con la forma que publica el catálogo.
func NewBookWire(b entity.Book) BookWire {
	return BookWire{
		ID:               b.ID,
		Titulo:           b.Titulo,
		Autor:            b.Autor,
		FechaPublicacion: b.FechaPublicacion,
		Precio:           json.Number(b.Precio.String()),
		Stock:            b.Stock,
		Categoria:        b.Categoria,
	}
}

// CategoryResponse categoría tal como la devuelve el catálogo.
type CategoryResponse struct {
	ID     int64  `json:"id" validate:"required,min=1"`
	Nombre string `json:"nombre" validate:"required"`
}

// ToEntity convierte el payload en la entidad.
func (r CategoryResponse) ToEntity() entity.Category {
	return entity.Category{ID: r.ID, Nombre: r.Nombre}
}

// CreateBookRequest cuerpo de POST /books/ (todos los campos menos id).
type CreateBookRequest struct {
	Titulo           string      `json:"titulo" validate:"required"`
	Autor            string      `json:"autor" validate:"required"`
	FechaPublicacion string      `json:"fechaPublicacion" validate:"omitempty,pubdate"`
	Precio           json.Number `json:"precio" validate:"required"`
	Stock            int         `json:"stock" validate:"min=0"`
	Categoria        string      `json:"categoria" validate:"required"`
}

// UpdateBookRequest cuerpo de PATCH /books/:id; solo viajan los campos presentes.
type UpdateBookRequest struct {
	Titulo           *string      `json:"titulo,omitempty"`
	Autor            *string      `json:"autor,omitempty"`
	FechaPublicacion *string      `json:"fechaPublicacion,omitempty" validate:"omitempty,pubdate"`
	Precio           *json.Number `json:"precio,omitempty"`
	Stock            *int         `json:"stock,omitempty" validate:"omitempty,min=0"`
	Categoria        *string      `json:"categoria,omitempty"`
}

// Empty indica que no hay nada que actualizar.
func (r UpdateBookRequest) Empty() bool {
	return r.Titulo == nil && r.Autor == nil && r.FechaPublicacion == nil &&
		r.Precio == nil && r.Stock == nil && r.Categoria == nil
}
