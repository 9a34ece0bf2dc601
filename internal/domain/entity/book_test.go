package entity_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/catalogo-admin/internal/domain/entity"
)

func TestParsePublicationDate(t *testing.T) {
	cases := []struct {
		in    string
		ok    bool
		isDay string
	}{
		{"2022-01-01", true, "2022-01-01"},
		{"2022-01-01T00:00:00.000Z", true, "2022-01-01"},
		{"", true, ""},
		{"01/01/2022", false, ""},
	}
	for _, tc := range cases {
		tm, ok := entity.ParsePublicationDate(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		if tc.ok && tc.isDay != "" {
			assert.Equal(t, tc.isDay, tm.Format("2006-01-02"))
		}
	}
}

func TestBookEqual_ComparaPrecioPorValor(t *testing.T) {
	a := entity.Book{ID: 1, Titulo: "Mock Title", Precio: decimal.RequireFromString("20.0"), FechaPublicacion: "2022-01-01"}
	b := entity.Book{ID: 1, Titulo: "Mock Title", Precio: decimal.NewFromInt(20), FechaPublicacion: "2022-01-01T00:00:00Z"}

	assert.True(t, a.Equal(b))
	b.Stock = 3
	assert.False(t, a.Equal(b))
}

func TestRemoveBook_QuitaSoloElId(t *testing.T) {
	books := []entity.Book{{ID: 1, Titulo: "Book One"}, {ID: 2, Titulo: "Book Two"}, {ID: 3, Titulo: "Book Three"}}

	out := entity.RemoveBook(books, 1)

	assert.Len(t, out, 2)
	assert.Equal(t, int64(2), out[0].ID)
	assert.Equal(t, int64(3), out[1].ID)
	assert.Len(t, books, 3, "la lista original no se modifica")
}

func TestParseSearchFilter(t *testing.T) {
	cases := map[string]entity.SearchFilter{
		"":          entity.FilterNone,
		"author":    entity.FilterAuthor,
		"autor":     entity.FilterAuthor,
		"anno":      entity.FilterYear,
		"YEAR":      entity.FilterYear,
		"categoria": entity.FilterCategory,
	}
	for in, want := range cases {
		got, ok := entity.ParseSearchFilter(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := entity.ParseSearchFilter("isbn")
	assert.False(t, ok)
}

func TestSearchQueryEmpty(t *testing.T) {
	assert.True(t, entity.SearchQuery{Text: "   "}.Empty())
	assert.False(t, entity.SearchQuery{Text: "borges"}.Empty())
}
