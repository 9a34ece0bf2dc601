package entity

// Category categoría del catálogo; los libros la referencian por Nombre.
type Category struct {
	ID     int64
	Nombre string
}
