package http_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/catalogo-admin/internal/application/auth"
	"github.com/jhoicas/catalogo-admin/internal/application/dto"
	"github.com/jhoicas/catalogo-admin/internal/application/session"
	"github.com/jhoicas/catalogo-admin/internal/application/usecase"
	"github.com/jhoicas/catalogo-admin/internal/infrastructure/catalog"
	"github.com/jhoicas/catalogo-admin/internal/infrastructure/catalog/catalogtest"
	"github.com/jhoicas/catalogo-admin/internal/infrastructure/memory"
	"github.com/jhoicas/catalogo-admin/internal/infrastructure/metrics"
	"github.com/jhoicas/catalogo-admin/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/catalogo-admin/internal/interfaces/http"
	"github.com/jhoicas/catalogo-admin/pkg/format"
	pkgjwt "github.com/jhoicas/catalogo-admin/pkg/jwt"
	"github.com/jhoicas/catalogo-admin/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type testEnv struct {
	app     *fiber.App
	srv     *catalogtest.Server
	store   *session.Store
	repo    *memory.TokenRepository
	metrics *metrics.Metrics
}

// newTestEnv arma la consola completa contra un catálogo simulado. Si token no es
// vacío queda persistido antes de arrancar, como tras un reinicio.
func newTestEnv(t *testing.T, token string) *testEnv {
	t.Helper()
	srv := catalogtest.Start(t)
	srv.SetCategories("Ficción", "Novela")

	initial := map[string]string{}
	if token != "" {
		initial["token"] = token
	}
	repo := memory.NewTokenRepository(initial)
	log := logger.Nop()
	store := session.NewStore(repo, "token", log)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	client := catalog.New(srv.URL, store, log, catalog.WithMetrics(m), catalog.WithTimeout(2*time.Second))
	authUC := auth.NewAuthUseCase(client, store)
	prices := format.NewPriceFormatter("en")

	shell := apphttp.NewShell(store, authUC, m, log)
	require.NoError(t, shell.Start(context.Background()))
	t.Cleanup(shell.Close)

	app, err := apphttp.NewApp(apphttp.RouterDeps{
		Shell:      shell,
		AuthUC:     authUC,
		BookUC:     usecase.NewBookUseCase(client),
		ExportUC:   usecase.NewExportUseCase(client, pdf.NewMarotoCatalogGenerator(), prices, srv.URL, m),
		Prices:     prices,
		Gatherer:   reg,
		AppName:    "catalogo-admin",
		CatalogURL: srv.URL,
		Log:        log,
	})
	require.NoError(t, err)
	return &testEnv{app: app, srv: srv, store: store, repo: repo, metrics: m}
}

func seed(srv *catalogtest.Server) {
	srv.AddBook(dto.BookResponse{ID: 1, Titulo: "Dune", Autor: "Frank Herbert", FechaPublicacion: "1965-08-01", Precio: decimal.NewFromInt(20), Stock: 3, Categoria: "Ficción"})
	srv.AddBook(dto.BookResponse{ID: 2, Titulo: "Rayuela", Autor: "Julio Cortázar", FechaPublicacion: "1963-06-28", Precio: decimal.RequireFromString("15.5"), Stock: 1, Categoria: "Novela"})
}

func (e *testEnv) get(t *testing.T, target string) (*http.Response, string) {
	t.Helper()
	resp, err := e.app.Test(httptest.NewRequest(http.MethodGet, target, nil), -1)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (e *testEnv) postForm(t *testing.T, target string, form url.Values) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (e *testEnv) getWithCookie(t *testing.T, target string, cookie *http.Cookie) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.AddCookie(cookie)
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func assertRedirect(t *testing.T, resp *http.Response, target string) {
	t.Helper()
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, target, resp.Header.Get("Location"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Guard y shell
// ──────────────────────────────────────────────────────────────────────────────

func TestGuard_SinTokenRedirigeALogin(t *testing.T) {
	env := newTestEnv(t, "")

	for _, path := range []string{"/", "/books/1", "/add", "/edit/1", "/search", "/export.pdf"} {
		resp, _ := env.get(t, path)
		assertRedirect(t, resp, "/login")
	}
	assert.Empty(t, env.srv.Calls(), "el guard decide sin tocar la red")
}

func TestGuard_RutaDesconocidaSiempreALogin(t *testing.T) {
	env := newTestEnv(t, "")
	resp, _ := env.get(t, "/no-existe")
	assertRedirect(t, resp, "/login")

	withToken := newTestEnv(t, "mockToken")
	resp, _ = withToken.get(t, "/no-existe")
	assertRedirect(t, resp, "/login")
}

func TestLoginPage_SinNavbar(t *testing.T) {
	env := newTestEnv(t, "")
	resp, body := env.get(t, "/login")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `action="/login"`)
	assert.NotContains(t, body, `id="navbar"`)
}

func TestTokenRestaurado_RenderizaConNavbar(t *testing.T) {
	env := newTestEnv(t, "mockToken")
	env.srv.AcceptToken("mockToken")
	seed(env.srv)

	resp, body := env.get(t, "/")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `id="navbar"`)
	assert.Contains(t, body, "Dune by Frank Herbert")
	assert.Contains(t, body, `href="/add"`)
	assert.Contains(t, body, "Add New Book")
}

func TestTokenRestaurado_CuentaUnaSolaTransicion(t *testing.T) {
	env := newTestEnv(t, "mockToken")

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.SessionChanges.WithLabelValues(session.ReasonRestored)))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.Authenticated))

	empty := newTestEnv(t, "")
	assert.Equal(t, 0.0, testutil.ToFloat64(empty.metrics.SessionChanges.WithLabelValues(session.ReasonRestored)))
	assert.Equal(t, 0.0, testutil.ToFloat64(empty.metrics.Authenticated))
}

func TestTokenExpirado_LimpiaSesionYRedirige(t *testing.T) {
	expired, err := pkgjwt.Generate(catalogtest.Secret, "admin", "catalogtest", -time.Minute)
	require.NoError(t, err)
	env := newTestEnv(t, expired)

	resp, _ := env.get(t, "/")
	assertRedirect(t, resp, "/login")
	assert.False(t, env.store.Authenticated())
	_, persisted := env.repo.Value("token")
	assert.False(t, persisted)
	assert.Empty(t, env.srv.Calls())
}

func TestRespuesta401_CierraSesionYRedirige(t *testing.T) {
	env := newTestEnv(t, "token-revocado")

	resp, _ := env.get(t, "/")
	assertRedirect(t, resp, "/login")
	assert.False(t, env.store.Authenticated())

	resp, _ = env.get(t, "/add")
	assertRedirect(t, resp, "/login")
}

// ──────────────────────────────────────────────────────────────────────────────
// Login / logout
// ──────────────────────────────────────────────────────────────────────────────

func TestLogin_PersisteTokenYAutorizaLaSiguienteNavegacion(t *testing.T) {
	env := newTestEnv(t, "")
	seed(env.srv)

	resp, _ := env.postForm(t, "/login", url.Values{"username": {catalogtest.Username}, "password": {catalogtest.Password}})
	assertRedirect(t, resp, "/")

	token, ok := env.repo.Value("token")
	require.True(t, ok, "el token debe quedar persistido")
	assert.NotEmpty(t, token)

	resp, body := env.get(t, "/")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Rayuela by Julio Cortázar")

	calls := env.srv.CallsTo(http.MethodGet, "/books/")
	require.Len(t, calls, 1)
	assert.Equal(t, "Bearer "+token, calls[0].Authorization)
}

func TestLogin_CredencialesInvalidas(t *testing.T) {
	env := newTestEnv(t, "")

	resp, body := env.postForm(t, "/login", url.Values{"username": {"admin"}, "password": {"mala"}})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Invalid credentials. Please try again.")
	assert.False(t, env.store.Authenticated())
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, "mockToken")

	resp, _ := env.postForm(t, "/logout", url.Values{})
	assertRedirect(t, resp, "/login")
	assert.False(t, env.store.Authenticated())

	resp, _ = env.get(t, "/")
	assertRedirect(t, resp, "/login")
}

// ──────────────────────────────────────────────────────────────────────────────
// Libros
// ──────────────────────────────────────────────────────────────────────────────

func TestDelete_UnaLlamadaYQuitaSoloEseLibro(t *testing.T) {
	env := newTestEnv(t, "mockToken")
	env.srv.AcceptToken("mockToken")
	seed(env.srv)

	resp, _ := env.postForm(t, "/books/1/delete", url.Values{})
	assertRedirect(t, resp, "/")
	flash := findCookie(resp, "catalogo_deleted")
	require.NotNil(t, flash)
	assert.Equal(t, "1", flash.Value)

	calls := env.srv.CallsTo(http.MethodDelete, "/books/1")
	require.Len(t, calls, 1)
	assert.Equal(t, "Bearer mockToken", calls[0].Authorization)
	assert.Len(t, env.srv.CallsTo(http.MethodDelete, "/books/2"), 0)

	_, body := env.getWithCookie(t, "/", flash)
	assert.NotContains(t, body, `id="book-1"`)
	assert.Contains(t, body, `id="book-2"`)
}

func TestList_FlashDeBorradoSeUsaUnaSolaVez(t *testing.T) {
	env := newTestEnv(t, "mockToken")
	env.srv.AcceptToken("mockToken")
	seed(env.srv)

	// el libro 2 sigue existiendo en el catálogo
	resp, body := env.getWithCookie(t, "/", &http.Cookie{Name: "catalogo_deleted", Value: "2"})
	assert.NotContains(t, body, `id="book-2"`)
	cleared := findCookie(resp, "catalogo_deleted")
	require.NotNil(t, cleared, "el flash se borra al consumirse")
	assert.Empty(t, cleared.Value)

	_, body = env.get(t, "/")
	assert.Contains(t, body, `id="book-2"`)

	// un parámetro en la URL no filtra nada
	_, body = env.get(t, "/?deleted=2")
	assert.Contains(t, body, `id="book-2"`)
}

func TestDetails(t *testing.T) {
	env := newTestEnv(t, "mockToken")
	env.srv.AcceptToken("mockToken")
	seed(env.srv)

	resp, body := env.get(t, "/books/2")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Rayuela")
	assert.Contains(t, body, "$15.50")
	assert.Contains(t, body, "1963-06-28")

	resp, body = env.get(t, "/books/99")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, apphttp.MsgNotFound)

	env.srv.Fail(http.MethodGet, "/books/1", http.StatusInternalServerError)
	resp, body = env.get(t, "/books/1")
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body, "Error fetching book details. Please try again.")
}

func TestCreate_ValidacionLocalSinLlamarAlCatalogo(t *testing.T) {
	env := newTestEnv(t, "mockToken")
	env.srv.AcceptToken("mockToken")

	resp, body := env.postForm(t, "/add", url.Values{
		"titulo": {"Dune"}, "autor": {"Herbert"}, "precio": {"veinte"}, "stock": {"2"}, "categoria": {"Ficción"},
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Precio y Stock deben ser números.")
	assert.Contains(t, body, `<option value="Novela"`)

	_, body = env.postForm(t, "/add", url.Values{"titulo": {"Dune"}})
	assert.Contains(t, body, "All fields are required.")
	assert.Empty(t, env.srv.CallsTo(http.MethodPost, "/books/"))
}

func TestCreate_AltaYRedireccion(t *testing.T) {
	env := newTestEnv(t, "mockToken")
	env.srv.AcceptToken("mockToken")

	resp, _ := env.postForm(t, "/add", url.Values{
		"titulo": {"Dune"}, "autor": {"Herbert"}, "fechaPublicacion": {"1965-08-01"},
		"precio": {"20"}, "stock": {"2"}, "categoria": {"Ficción"},
	})
	assertRedirect(t, resp, "/")

	calls := env.srv.CallsTo(http.MethodPost, "/books/")
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Body, `"precio":20`)
	b, ok := env.srv.Book(1)
	require.True(t, ok)
	assert.Equal(t, "Dune", b.Titulo)
}

func TestEdit_PrecargaYPatchParcial(t *testing.T) {
	env := newTestEnv(t, "mockToken")
	env.srv.AcceptToken("mockToken")
	seed(env.srv)

	resp, body := env.get(t, "/edit/1")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `value="Dune"`)
	assert.Contains(t, body, `<option value="Ficción" selected>`)

	resp, _ = env.postForm(t, "/edit/1", url.Values{"stock": {"7"}})
	assertRedirect(t, resp, "/books/1")

	calls := env.srv.CallsTo(http.MethodPatch, "/books/1")
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{"stock":7}`, calls[0].Body)
}

// ──────────────────────────────────────────────────────────────────────────────
// Búsqueda y exportación
// ──────────────────────────────────────────────────────────────────────────────

func TestSearch_ConsultaVaciaSinPeticion(t *testing.T) {
	env := newTestEnv(t, "mockToken")
	env.srv.AcceptToken("mockToken")

	resp, body := env.get(t, "/search?q=%20%20&filter=author")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, "No se encontraron resultados")
	assert.Empty(t, env.srv.Calls())
}

func TestSearch_ConFiltro(t *testing.T) {
	env := newTestEnv(t, "mockToken")
	env.srv.AcceptToken("mockToken")
	seed(env.srv)

	_, body := env.get(t, "/search?q=Cort%C3%A1zar&filter=author")
	assert.Contains(t, body, "Rayuela by Julio Cortázar")
	assert.NotContains(t, body, "Dune by")

	_, body = env.get(t, "/search?q=Borges&filter=author")
	assert.Contains(t, body, "No se encontraron resultados. Intente otra búsqueda.")

	env.srv.Fail(http.MethodGet, "/books", http.StatusInternalServerError)
	_, body = env.get(t, "/search?q=Dune")
	assert.Contains(t, body, "Error al obtener los resultados, intente nuevamente.")
}

func TestExportPDF(t *testing.T) {
	env := newTestEnv(t, "mockToken")
	env.srv.AcceptToken("mockToken")
	seed(env.srv)

	resp, body := env.get(t, "/export.pdf")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "catalogo-")
	assert.True(t, strings.HasPrefix(body, "%PDF"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Operativas
// ──────────────────────────────────────────────────────────────────────────────

func TestHealthYMetrics_FueraDelGuard(t *testing.T) {
	env := newTestEnv(t, "")

	resp, body := env.get(t, "/health")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"status":"ok"`)
	assert.Contains(t, body, `"authenticated":false`)

	_, _ = env.get(t, "/")
	resp, body = env.get(t, "/metrics")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "catalogo_admin_guard_decisions_total")
}
