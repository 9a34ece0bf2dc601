package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/catalogo-admin/internal/application/ports"
	"github.com/jhoicas/catalogo-admin/internal/domain/entity"
	"github.com/jhoicas/catalogo-admin/internal/infrastructure/metrics"
	"github.com/jhoicas/catalogo-admin/pkg/format"
)

// ExportUseCase genera el listado del catálogo en PDF.
type ExportUseCase struct {
	api     ports.CatalogAPI
	gen     ports.CatalogPDFGenerator
	prices  *format.PriceFormatter
	source  string
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewExportUseCase construye el caso de uso. source es la base URL del catálogo que
// figura en la cabecera del documento.
func NewExportUseCase(api ports.CatalogAPI, gen ports.CatalogPDFGenerator, prices *format.PriceFormatter, source string, m *metrics.Metrics) *ExportUseCase {
	return &ExportUseCase{api: api, gen: gen, prices: prices, source: source, metrics: m, now: time.Now}
}

// ExportPDF descarga el listado y lo renderiza. Devuelve los bytes y el nombre de archivo.
func (uc *ExportUseCase) ExportPDF(ctx context.Context) (pdfBytes []byte, filename string, err error) {
	defer func() { uc.metrics.ObserveExport(err == nil) }()

	books, err := uc.api.ListBooks(ctx)
	if err != nil {
		return nil, "", err
	}
	now := uc.now()
	report := ports.CatalogReport{
		Title:       "Catálogo de libros",
		Source:      uc.source,
		GeneratedAt: now,
		Books:       books,
		FormatPrice: func(b entity.Book) string { return uc.prices.Price(b.Precio) },
	}
	pdfBytes, err = uc.gen.GenerateCatalogPDF(ctx, report)
	if err != nil {
		return nil, "", fmt.Errorf("export: %w", err)
	}
	return pdfBytes, "catalogo-" + now.Format("20060102-150405") + ".pdf", nil
}
