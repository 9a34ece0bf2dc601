package pdf_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/catalogo-admin/internal/application/ports"
	"github.com/jhoicas/catalogo-admin/internal/domain/entity"
	"github.com/jhoicas/catalogo-admin/internal/infrastructure/pdf"
)

func TestGenerateCatalogPDF_GeneraDocumento(t *testing.T) {
	gen := pdf.NewMarotoCatalogGenerator()
	report := ports.CatalogReport{
		Title:       "Catálogo de libros",
		Source:      "http://localhost:3003",
		GeneratedAt: time.Date(2026, 1, 2, 15, 4, 0, 0, time.UTC),
		Books: []entity.Book{
			{ID: 1, Titulo: "Dune", Autor: "Frank Herbert", FechaPublicacion: "1965-08-01", Precio: decimal.NewFromInt(20), Stock: 3, Categoria: "Ficción"},
			{ID: 2, Titulo: "Rayuela", Precio: decimal.RequireFromString("15.5"), Stock: 1},
		},
	}

	out, err := gen.GenerateCatalogPDF(context.Background(), report)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "debe ser un PDF")
}

func TestGenerateCatalogPDF_ListadoVacio(t *testing.T) {
	out, err := pdf.NewMarotoCatalogGenerator().GenerateCatalogPDF(context.Background(), ports.CatalogReport{Title: "Vacío"})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestGenerateCatalogPDF_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := pdf.NewMarotoCatalogGenerator().GenerateCatalogPDF(ctx, ports.CatalogReport{Title: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}
