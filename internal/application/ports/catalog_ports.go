package ports

import (
	"context"
	"time"

	"github.com/jhoicas/catalogo-admin/internal/application/dto"
	"github.com/jhoicas/catalogo-admin/internal/domain/entity"
)

// CatalogAPI puerto de salida hacia el servicio de catálogo. Lo implementa
// infrastructure/catalog.Client; los casos de uso y las vistas solo conocen este contrato.
type CatalogAPI interface {
	Login(ctx context.Context, username, password string) (string, error)
	ListBooks(ctx context.Context) ([]entity.Book, error)
	GetBook(ctx context.Context, id int64) (*entity.Book, error)
	CreateBook(ctx context.Context, req dto.CreateBookRequest) (*entity.Book, error)
	UpdateBook(ctx context.Context, id int64, req dto.UpdateBookRequest) (*entity.Book, error)
	DeleteBook(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]entity.Category, error)
	SearchBooks(ctx context.Context, q entity.SearchQuery) ([]entity.Book, error)
}

// CatalogReport datos del listado exportado a PDF.
type CatalogReport struct {
	Title       string
	Source      string // base URL del catálogo
	GeneratedAt time.Time
	Books       []entity.Book
	// FormatPrice presenta el precio con el locale de la consola.
	FormatPrice func(b entity.Book) string
}

// CatalogPDFGenerator genera la representación PDF del listado.
type CatalogPDFGenerator interface {
	GenerateCatalogPDF(ctx context.Context, report CatalogReport) ([]byte, error)
}
