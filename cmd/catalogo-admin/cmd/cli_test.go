package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/catalogo-admin/internal/application/dto"
	"github.com/jhoicas/catalogo-admin/internal/infrastructure/catalog/catalogtest"
)

type cliEnv struct {
	srv     *catalogtest.Server
	dir     string
	backend string
}

func newCLIEnv(t *testing.T, backend string) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	srv := catalogtest.Start(t)
	srv.SetCategories("Ficción", "Novela")
	srv.AddBook(dto.BookResponse{ID: 1, Titulo: "Dune", Autor: "Frank Herbert", FechaPublicacion: "1965-08-01", Precio: decimal.NewFromInt(20), Stock: 3, Categoria: "Ficción"})
	srv.AddBook(dto.BookResponse{ID: 2, Titulo: "Rayuela", Autor: "Julio Cortázar", FechaPublicacion: "1963-06-28", Precio: decimal.RequireFromString("15.5"), Stock: 1, Categoria: "Novela"})
	return &cliEnv{srv: srv, dir: dir, backend: backend}
}

// run ejecuta la CLI con stdin dado y devuelve stdout.
func (e *cliEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{
		"--catalog-url", e.srv.URL,
		"--session-backend", e.backend,
		"--session-path", filepath.Join(e.dir, "session."+e.backend),
		"--log-level", "error",
	}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *cliEnv) login(t *testing.T) {
	t.Helper()
	out, err := e.run(t, catalogtest.Password+"\n", "login", "-u", catalogtest.Username, "--password-stdin")
	require.NoError(t, err)
	require.Contains(t, out, "Sesión iniciada")
}

func TestCLI_SinSesion_BooksPideLogin(t *testing.T) {
	e := newCLIEnv(t, "file")

	_, err := e.run(t, "", "books", "list")
	require.Error(t, err)
	assert.ErrorIs(t, err, errNotLoggedIn)
	assert.Empty(t, e.srv.CallsTo("GET", "/books/"), "sin token no se llama al catálogo")
}

func TestCLI_LoginPersisteEntreEjecuciones(t *testing.T) {
	for _, backend := range []string{"file", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			e := newCLIEnv(t, backend)
			e.login(t)

			out, err := e.run(t, "", "status")
			require.NoError(t, err)
			assert.Contains(t, out, "sesión:    iniciada")
			assert.Contains(t, out, "usuario:   "+catalogtest.Username)

			out, err = e.run(t, "", "books", "list")
			require.NoError(t, err)
			assert.Contains(t, out, "Dune")
			assert.Contains(t, out, "Rayuela")
			assert.Contains(t, out, "$20")
		})
	}
}

func TestCLI_LoginCredencialesInvalidas(t *testing.T) {
	e := newCLIEnv(t, "file")

	_, err := e.run(t, "mala\n", "login", "-u", catalogtest.Username, "--password-stdin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credenciales inválidas")

	out, err := e.run(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "no iniciada")
}

func TestCLI_Logout_BorraElToken(t *testing.T) {
	e := newCLIEnv(t, "file")
	e.login(t)

	out, err := e.run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Sesión cerrada")

	_, err = e.run(t, "", "books", "list")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestCLI_BooksShowSearchDelete(t *testing.T) {
	e := newCLIEnv(t, "file")
	e.login(t)

	out, err := e.run(t, "", "books", "show", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Rayuela")
	assert.Contains(t, out, "1963-06-28")

	out, err = e.run(t, "", "books", "search", "Herbert", "--filter", "author")
	require.NoError(t, err)
	assert.Contains(t, out, "Dune")
	assert.NotContains(t, out, "Rayuela")

	out, err = e.run(t, "", "books", "search", "zzz")
	require.NoError(t, err)
	assert.Contains(t, out, "No se encontraron resultados")

	out, err = e.run(t, "", "books", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Libro 1 eliminado")
	assert.Len(t, e.srv.CallsTo("DELETE", "/books/1"), 1)
	_, ok := e.srv.Book(1)
	assert.False(t, ok)

	_, err = e.run(t, "", "books", "show", "abc")
	assert.Error(t, err)
}

func TestCLI_BooksAddYCategorias(t *testing.T) {
	e := newCLIEnv(t, "file")
	e.login(t)

	out, err := e.run(t, "", "books", "categories")
	require.NoError(t, err)
	assert.Contains(t, out, "Novela")

	_, err = e.run(t, "", "books", "add", "--titulo", "Ficciones", "--autor", "Borges")
	require.Error(t, err)
	assert.Contains(t, err.Error(), dto.MsgAllFieldsRequired)

	out, err = e.run(t, "", "books", "add",
		"--titulo", "Ficciones", "--autor", "Jorge Luis Borges", "--fecha", "1944-01-01",
		"--precio", "12.5", "--stock", "4", "--categoria", "Ficción")
	require.NoError(t, err)
	assert.Contains(t, out, "Libro creado")
	assert.Len(t, e.srv.CallsTo("POST", "/books/"), 1)

	out, err = e.run(t, "", "books", "update", "2", "--stock", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "Libro 2 actualizado")
	b, ok := e.srv.Book(2)
	require.True(t, ok)
	assert.Equal(t, 9, b.Stock)
}

func TestCLI_BooksExport_EscribePDF(t *testing.T) {
	e := newCLIEnv(t, "file")
	e.login(t)

	dest := filepath.Join(e.dir, "out", "catalogo.pdf")
	out, err := e.run(t, "", "books", "export", "-o", dest)
	require.NoError(t, err)
	assert.Contains(t, out, dest)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestCLI_TokenRechazado_CierraSesion(t *testing.T) {
	e := newCLIEnv(t, "file")
	e.login(t)
	e.srv.Fail("GET", "/books/", 401)

	_, err := e.run(t, "", "books", "list")
	require.Error(t, err)
	assert.ErrorIs(t, err, errNotLoggedIn)

	out, err := e.run(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "no iniciada")
}
