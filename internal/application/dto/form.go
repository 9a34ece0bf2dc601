package dto

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/catalogo-admin/internal/domain"
	"github.com/jhoicas/catalogo-admin/internal/domain/entity"
)

// Mensajes de validación que se muestran tal cual en el formulario.
const (
	MsgAllFieldsRequired = "All fields are required."
	MsgNumericFields     = "Precio y Stock deben ser números."
	MsgNegativeFields    = "Precio y Stock no pueden ser negativos."
	MsgNothingToUpdate   = "No hay cambios para guardar."
)

// BookForm campos crudos del formulario de alta/edición (o de los flags de la CLI).
// La única coerción es numérica: precio decimal y stock entero.
type BookForm struct {
	Titulo           string `form:"titulo"`
	Autor            string `form:"autor"`
	FechaPublicacion string `form:"fechaPublicacion"`
	Precio           string `form:"precio"`
	Stock            string `form:"stock"`
	Categoria        string `form:"categoria"`
}

// Trim elimina espacios alrededor de todos los campos.
func (f BookForm) Trim() BookForm {
	return BookForm{
		Titulo:           strings.TrimSpace(f.Titulo),
		Autor:            strings.TrimSpace(f.Autor),
		FechaPublicacion: strings.TrimSpace(f.FechaPublicacion),
		Precio:           strings.TrimSpace(f.Precio),
		Stock:            strings.TrimSpace(f.Stock),
		Categoria:        strings.TrimSpace(f.Categoria),
	}
}

// ToCreateRequest exige todos los campos salvo la fecha y convierte precio/stock.
func (f BookForm) ToCreateRequest() (CreateBookRequest, error) {
	f = f.Trim()
	if f.Titulo == "" || f.Autor == "" || f.Precio == "" || f.Stock == "" || f.Categoria == "" {
		return CreateBookRequest{}, domain.NewValidationError(MsgAllFieldsRequired)
	}
	price, stock, err := parseNumbers(f.Precio, f.Stock)
	if err != nil {
		return CreateBookRequest{}, err
	}
	req := CreateBookRequest{
		Titulo:           f.Titulo,
		Autor:            f.Autor,
		FechaPublicacion: f.FechaPublicacion,
		Precio:           json.Number(price.String()),
		Stock:            stock,
		Categoria:        f.Categoria,
	}
	if err := Validate(req); err != nil {
		return CreateBookRequest{}, err
	}
	return req, nil
}

// ToUpdateRequest envía solo los campos no vacíos (PATCH parcial).
func (f BookForm) ToUpdateRequest() (UpdateBookRequest, error) {
	f = f.Trim()
	var req UpdateBookRequest
	if f.Titulo != "" {
		req.Titulo = &f.Titulo
	}
	if f.Autor != "" {
		req.Autor = &f.Autor
	}
	if f.FechaPublicacion != "" {
		req.FechaPublicacion = &f.FechaPublicacion
	}
	if f.Categoria != "" {
		req.Categoria = &f.Categoria
	}
	if f.Precio != "" {
		price, err := decimal.NewFromString(f.Precio)
		if err != nil {
			return UpdateBookRequest{}, domain.NewValidationError(MsgNumericFields)
		}
		if price.IsNegative() {
			return UpdateBookRequest{}, domain.NewValidationError(MsgNegativeFields)
		}
		n := json.Number(price.String())
		req.Precio = &n
	}
	if f.Stock != "" {
		stock, err := strconv.Atoi(f.Stock)
		if err != nil {
			return UpdateBookRequest{}, domain.NewValidationError(MsgNumericFields)
		}
		if stock < 0 {
			return UpdateBookRequest{}, domain.NewValidationError(MsgNegativeFields)
		}
		req.Stock = &stock
	}
	if req.Empty() {
		return UpdateBookRequest{}, domain.NewValidationError(MsgNothingToUpdate)
	}
	if err := Validate(req); err != nil {
		return UpdateBookRequest{}, err
	}
	return req, nil
}

func parseNumbers(precio, stock string) (decimal.Decimal, int, error) {
	price, perr := decimal.NewFromString(precio)
	n, serr := strconv.Atoi(stock)
	if perr != nil || serr != nil {
		return decimal.Zero, 0, domain.NewValidationError(MsgNumericFields)
	}
	if price.IsNegative() || n < 0 {
		return decimal.Zero, 0, domain.NewValidationError(MsgNegativeFields)
	}
	return price, n, nil
}

// FormFromBook precarga el formulario de edición.
func FormFromBook(b entity.Book) BookForm {
	return BookForm{
		Titulo:           b.Titulo,
		Autor:            b.Autor,
		FechaPublicacion: b.PublicationDay(),
		Precio:           b.Precio.String(),
		Stock:            strconv.Itoa(b.Stock),
		Categoria:        b.Categoria,
	}
}
