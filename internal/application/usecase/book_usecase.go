package usecase

import (
	"context"
	"fmt"

	"github.com/jhoicas/catalogo-admin/internal/application/dto"
	"github.com/jhoicas/catalogo-admin/internal/application/ports"
	"github.com/jhoicas/catalogo-admin/internal/domain"
	"github.com/jhoicas/catalogo-admin/internal/domain/entity"
)

// BookUseCase casos de uso sobre los libros del catálogo. Coerciona los formularios
// antes de llamar al catálogo; ningún error se reintenta.
type BookUseCase struct {
	api ports.CatalogAPI
}

// NewBookUseCase construye el caso de uso.
func NewBookUseCase(api ports.CatalogAPI) *BookUseCase {
	return &BookUseCase{api: api}
}

// List devuelve el listado completo en el orden del servidor.
func (uc *BookUseCase) List(ctx context.Context) ([]entity.Book, error) {
	return uc.api.ListBooks(ctx)
}

// Get devuelve un libro.
func (uc *BookUseCase) Get(ctx context.Context, id int64) (*entity.Book, error) {
	return uc.api.GetBook(ctx, id)
}

// Create valida el formulario y da de alta el libro.
func (uc *BookUseCase) Create(ctx context.Context, form dto.BookForm) (*entity.Book, error) {
	req, err := form.ToCreateRequest()
	if err != nil {
		return nil, err
	}
	return uc.api.CreateBook(ctx, req)
}

// Update envía solo los campos informados del formulario.
func (uc *BookUseCase) Update(ctx context.Context, id int64, form dto.BookForm) (*entity.Book, error) {
	req, err := form.ToUpdateRequest()
	if err != nil {
		return nil, err
	}
	return uc.api.UpdateBook(ctx, id, req)
}

// Delete elimina el libro en el catálogo.
func (uc *BookUseCase) Delete(ctx context.Context, id int64) error {
	return uc.api.DeleteBook(ctx, id)
}

// ListWithout devuelve el listado sin el libro recién eliminado, por si el catálogo
// todavía lo incluye.
func (uc *BookUseCase) ListWithout(ctx context.Context, deleted int64) ([]entity.Book, error) {
	books, err := uc.api.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	if deleted > 0 {
		books = entity.RemoveBook(books, deleted)
	}
	return books, nil
}

// Categories devuelve las categorías del selector.
func (uc *BookUseCase) Categories(ctx context.Context) ([]entity.Category, error) {
	return uc.api.ListCategories(ctx)
}

// Search interpreta el filtro textual y delega en el catálogo. Consulta vacía:
// resultado vacío sin red.
func (uc *BookUseCase) Search(ctx context.Context, text, filter string) ([]entity.Book, error) {
	f, ok := entity.ParseSearchFilter(filter)
	if !ok {
		return nil, fmt.Errorf("usecase: search: %w", domain.NewValidationError("filtro desconocido: "+filter))
	}
	q := entity.SearchQuery{Text: text, Filter: f}
	if q.Empty() {
		return []entity.Book{}, nil
	}
	return uc.api.SearchBooks(ctx, q)
}
