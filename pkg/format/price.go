// Package format presenta valores del catálogo para las vistas, la CLI y el PDF.
package format

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PriceFormatter formatea precios con los separadores del locale configurado.
type PriceFormatter struct {
	printer *message.Printer
}

// NewPriceFormatter construye el formateador. Un locale inválido cae a inglés.
func NewPriceFormatter(locale string) *PriceFormatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &PriceFormatter{printer: message.NewPrinter(tag)}
}

// Price devuelve "$20" para precios enteros y "$19.99" (o "$19,99") con decimales.
func (f *PriceFormatter) Price(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return "$" + f.printer.Sprintf("%d", d.IntPart())
	}
	v, _ := d.Round(2).Float64()
	return "$" + f.printer.Sprintf("%.2f", v)
}
