package dto_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/catalogo-admin/internal/application/dto"
	"github.com/jhoicas/catalogo-admin/internal/domain"
)

func TestBookResponse_DecodificaPrecioNumeroOString(t *testing.T) {
	for _, raw := range []string{
		`{"id":1,"titulo":"Dune","autor":"Herbert","fechaPublicacion":"1965-08-01","precio":19.99,"stock":3,"categoria":"Ficción"}`,
		`{"id":1,"titulo":"Dune","autor":"Herbert","fechaPublicacion":"1965-08-01","precio":"19.99","stock":3,"categoria":"Ficción"}`,
	} {
		var r dto.BookResponse
		require.NoError(t, json.Unmarshal([]byte(raw), &r))
		require.NoError(t, r.Check())
		assert.True(t, decimal.RequireFromString("19.99").Equal(r.ToEntity().Precio))
	}
}

func TestBookResponse_Check_RechazaFormaInvalida(t *testing.T) {
	cases := map[string]dto.BookResponse{
		"sin id":          {Titulo: "Dune"},
		"sin titulo":      {ID: 1},
		"stock negativo":  {ID: 1, Titulo: "Dune", Stock: -1},
		"fecha invalida":  {ID: 1, Titulo: "Dune", FechaPublicacion: "ayer"},
		"precio negativo": {ID: 1, Titulo: "Dune", Precio: decimal.NewFromInt(-5)},
	}
	for name, r := range cases {
		t.Run(name, func(t *testing.T) {
			err := r.Check()
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrValidation))
		})
	}
}

func TestNewBookWire_PrecioComoNumeroJSON(t *testing.T) {
	var r dto.BookResponse
	require.NoError(t, json.Unmarshal([]byte(`{"id":7,"titulo":"X","precio":"12.50","stock":1}`), &r))

	out, err := json.Marshal(dto.NewBookWire(r.ToEntity()))
	require.NoError(t, err)
	assert.Contains(t, string(out), `"precio":12.5`)
}

func TestBookForm_ToCreateRequest(t *testing.T) {
	form := dto.BookForm{
		Titulo: " Dune ", Autor: "Herbert", FechaPublicacion: "1965-08-01",
		Precio: "20", Stock: "4", Categoria: "Ficción",
	}
	req, err := form.ToCreateRequest()
	require.NoError(t, err)
	assert.Equal(t, "Dune", req.Titulo)
	assert.Equal(t, json.Number("20"), req.Precio)
	assert.Equal(t, 4, req.Stock)

	out, err := json.Marshal(req)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"precio":20`)
	assert.Contains(t, string(out), `"stock":4`)
}

func TestBookForm_ToCreateRequest_Errores(t *testing.T) {
	cases := map[string]struct {
		form dto.BookForm
		msg  string
	}{
		"campo vacio":   {dto.BookForm{Titulo: "Dune", Precio: "1", Stock: "1", Categoria: "F"}, dto.MsgAllFieldsRequired},
		"precio texto":  {dto.BookForm{Titulo: "Dune", Autor: "H", Precio: "abc", Stock: "1", Categoria: "F"}, dto.MsgNumericFields},
		"stock decimal": {dto.BookForm{Titulo: "Dune", Autor: "H", Precio: "1", Stock: "1.5", Categoria: "F"}, dto.MsgNumericFields},
		"negativo":      {dto.BookForm{Titulo: "Dune", Autor: "H", Precio: "-1", Stock: "1", Categoria: "F"}, dto.MsgNegativeFields},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := tc.form.ToCreateRequest()
			require.Error(t, err)
			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.msg, verr.Message)
		})
	}
}

func TestBookForm_ToUpdateRequest_SoloCamposPresentes(t *testing.T) {
	req, err := dto.BookForm{Precio: "15.5"}.ToUpdateRequest()
	require.NoError(t, err)

	out, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"precio":15.5}`, string(out))

	_, err = dto.BookForm{}.ToUpdateRequest()
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = dto.BookForm{Stock: "muchos"}.ToUpdateRequest()
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, dto.MsgNumericFields, verr.Message)
}
