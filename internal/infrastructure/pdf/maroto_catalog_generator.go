// Package pdf genera el listado del catálogo en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + origen      │  Fecha + N° de libros         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: ID | Título | Autor | Publicación | Categoría |       │
//	│         Precio | Stock                                       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: Unidades en stock                                  │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/catalogo-admin/internal/application/ports"
	"github.com/jhoicas/catalogo-admin/internal/domain/entity"
)

var _ ports.CatalogPDFGenerator = (*MarotoCatalogGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorStripe  = &props.Color{Red: 240, Green: 244, Blue: 248}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoCatalogGenerator implementa ports.CatalogPDFGenerator con Maroto v2.
type MarotoCatalogGenerator struct{}

// NewMarotoCatalogGenerator construye el generador.
func NewMarotoCatalogGenerator() *MarotoCatalogGenerator { return &MarotoCatalogGenerator{} }

// GenerateCatalogPDF genera el PDF y devuelve sus bytes.
func (g *MarotoCatalogGenerator) GenerateCatalogPDF(ctx context.Context, report ports.CatalogReport) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(report.Title, true).
		WithAuthor("catalogo-admin", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableRows(report)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(summaryRow(report.Books))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(report ports.CatalogReport) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New(report.Title, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Origen: "+nonEmpty(report.Source, "-"), props.Text{
				Size: 8, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("Fecha: "+report.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 2, Color: colorGray,
			}),
			text.New(fmt.Sprintf("%d libros", len(report.Books)), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 8,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("ID", 1, align.Center),
		h("Título", 3, align.Left),
		h("Autor", 2, align.Left),
		h("Publicación", 2, align.Center),
		h("Categoría", 2, align.Left),
		h("Precio", 1, align.Right),
		h("Stock", 1, align.Right),
	)
}

// tableRows una fila por libro, con franjas alternas.
func tableRows(report ports.CatalogReport) []core.Row {
	if len(report.Books) == 0 {
		return []core.Row{row.New(8).Add(col.New(12).Add(
			text.New("No hay libros en el catálogo.", props.Text{
				Size: 8, Align: align.Center, Top: 2, Color: colorGray,
			}),
		))}
	}
	price := report.FormatPrice
	if price == nil {
		price = func(b entity.Book) string { return "$" + b.Precio.StringFixed(2) }
	}
	cell := func(s string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(s, props.Text{
			Size: 8, Align: a, Top: 1, Left: 1, Right: 1,
		}))
	}

	result := make([]core.Row, 0, len(report.Books))
	for i, b := range report.Books {
		r := row.New(7).Add(
			cell(strconv.FormatInt(b.ID, 10), 1, align.Center),
			cell(b.Titulo, 3, align.Left),
			cell(nonEmpty(b.Autor, "-"), 2, align.Left),
			cell(nonEmpty(b.PublicationDay(), "-"), 2, align.Center),
			cell(nonEmpty(b.Categoria, "-"), 2, align.Left),
			cell(price(b), 1, align.Right),
			cell(strconv.Itoa(b.Stock), 1, align.Right),
		)
		if i%2 == 1 {
			r = r.WithStyle(&props.Cell{BackgroundColor: colorStripe})
		}
		result = append(result, r)
	}
	return result
}

func summaryRow(books []entity.Book) core.Row {
	units := 0
	for _, b := range books {
		units += b.Stock
	}
	return row.New(10).Add(
		col.New(8),
		col.New(4).Add(text.New(fmt.Sprintf("Unidades en stock: %d", units), props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 2, Right: 1,
		})),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
