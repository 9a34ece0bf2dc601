package entity

import "strings"

// SearchFilter dimensión opcional que acompaña al texto libre en una búsqueda.
// Solo se combina una dimensión a la vez. El valor es el nombre lógico del filtro,
// no el query param: el cliente del catálogo lo traduce según CATALOG_SEARCH_PARAMS
// (author/year/category por defecto, autor/anno/categoria para catálogos antiguos).
type SearchFilter string

const (
	FilterNone     SearchFilter = ""
	FilterAuthor   SearchFilter = "author"
	FilterYear     SearchFilter = "year"
	FilterCategory SearchFilter = "category"
)

// ParseSearchFilter acepta los nombres del formulario (también los antiguos en español).
func ParseSearchFilter(s string) (SearchFilter, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return FilterNone, true
	case "author", "autor":
		return FilterAuthor, true
	case "year", "anno", "año":
		return FilterYear, true
	case "category", "categoria", "categoría":
		return FilterCategory, true
	default:
		return FilterNone, false
	}
}

// SearchQuery texto libre más filtro opcional.
type SearchQuery struct {
	Text   string
	Filter SearchFilter
}

// Empty indica si la búsqueda no tiene texto; no debe llegar al servidor.
func (q SearchQuery) Empty() bool {
	return strings.TrimSpace(q.Text) == ""
}
