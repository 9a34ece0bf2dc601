package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Book representa un libro del catálogo remoto. La categoría se referencia por
// nombre, no por id: el catálogo no garantiza integridad referencial.
type Book struct {
	ID               int64
	Titulo           string
	Autor            string
	FechaPublicacion string // fecha tal como la envía el catálogo (YYYY-MM-DD o RFC 3339)
	Precio           decimal.Decimal
	Stock            int
	Categoria        string
}

// Formatos de fecha aceptados para FechaPublicacion.
var publicationLayouts = []string{"2006-01-02", time.RFC3339, time.RFC3339Nano}

// ParsePublicationDate interpreta la fecha de publicación. Una fecha vacía es válida.
func ParsePublicationDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, true
	}
	for _, layout := range publicationLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// PublicationDay devuelve la fecha en formato YYYY-MM-DD, apto para <input type="date">.
func (b Book) PublicationDay() string {
	t, ok := ParsePublicationDate(b.FechaPublicacion)
	if !ok || t.IsZero() {
		return b.FechaPublicacion
	}
	return t.Format("2006-01-02")
}

// Equal compara todos los campos; el precio se compara por valor decimal.
func (b Book) Equal(o Book) bool {
	return b.ID == o.ID &&
		b.Titulo == o.Titulo &&
		b.Autor == o.Autor &&
		b.PublicationDay() == o.PublicationDay() &&
		b.Precio.Equal(o.Precio) &&
		b.Stock == o.Stock &&
		b.Categoria == o.Categoria
}

// RemoveBook devuelve la lista sin el libro id, preservando el orden.
func RemoveBook(books []Book, id int64) []Book {
	out := make([]Book, 0, len(books))
	for _, b := range books {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out
}
