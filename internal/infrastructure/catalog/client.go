// Package catalog es el cliente REST autenticado del servicio de catálogo.
//
// Cada operación lee el token de la sesión en el momento de la llamada. Sin token
// falla con domain.ErrUnauthorized sin tocar la red; un 401/403 del servidor
// invalida la sesión de forma centralizada para que el guard redirija a /login.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/catalogo-admin/internal/application/dto"
	"github.com/jhoicas/catalogo-admin/internal/domain"
	"github.com/jhoicas/catalogo-admin/internal/domain/entity"
	"github.com/jhoicas/catalogo-admin/internal/infrastructure/metrics"
	"github.com/jhoicas/catalogo-admin/pkg/logger"
)

// maxBody límite de lectura de respuestas del catálogo.
const maxBody = 4 << 20

// reasonUnauthorized motivo con el que se limpia la sesión ante un 401/403.
const reasonUnauthorized = "unauthorized"

// Session la parte del session.Store que necesita el cliente.
type Session interface {
	Token() (string, bool)
	ClearIf(ctx context.Context, token, reason string) (bool, error)
}

// Client cliente del catálogo. Seguro para uso concurrente.
type Client struct {
	baseURL string
	http    *http.Client
	session Session
	timeout time.Duration
	log     *logger.Logger
	metrics *metrics.Metrics
	search  SearchParams
}

// SearchParams nombres de los query params que acompañan a search= según el filtro.
type SearchParams struct {
	Author   string
	Year     string
	Category string
}

// Convenciones de nombres conocidas. El front-end histórico del catálogo usaba
// autor/anno/categoria; la API documentada usa author/year/category.
var (
	EnglishSearchParams = SearchParams{Author: "author", Year: "year", Category: "category"}
	SpanishSearchParams = SearchParams{Author: "autor", Year: "anno", Category: "categoria"}
)

// SearchParamsFor devuelve la convención por nombre ("english" o "spanish").
func SearchParamsFor(name string) (SearchParams, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "english":
		return EnglishSearchParams, true
	case "spanish":
		return SpanishSearchParams, true
	default:
		return SearchParams{}, false
	}
}

func (p SearchParams) param(f entity.SearchFilter) string {
	switch f {
	case entity.FilterAuthor:
		return p.Author
	case entity.FilterYear:
		return p.Year
	case entity.FilterCategory:
		return p.Category
	default:
		return ""
	}
}

// Option configura el cliente.
type Option func(*Client)

// WithHTTPClient reemplaza el http.Client (tests, transportes propios).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithMetrics registra cada petición en m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTimeout acota cada petición; 0 deja solo el deadline del contexto del caller.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithSearchParams cambia los nombres de los params de filtro de la búsqueda.
func WithSearchParams(p SearchParams) Option {
	return func(c *Client) { c.search = p }
}

// New construye el cliente contra baseURL (sin barra final).
func New(baseURL string, session Session, log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		session: session,
		log:     log.Component("catalog"),
		search:  EnglishSearchParams,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL dirección del catálogo.
func (c *Client) BaseURL() string { return c.baseURL }

// ─────────────────────────────────────────────────────────────────────────────
// Operaciones
// ─────────────────────────────────────────────────────────────────────────────

// Login intercambia credenciales por un token. No usa ni modifica la sesión.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	req := dto.LoginRequest{Username: strings.TrimSpace(username), Password: password}
	if err := dto.Validate(req); err != nil {
		return "", fmt.Errorf("catalog: login: %w", err)
	}
	var resp dto.LoginResponse
	err := c.call(ctx, "login", http.MethodPost, "/auth/login", false, req, &resp)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return "", fmt.Errorf("catalog: login: %w", domain.ErrInvalidCredentials)
		}
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusBadRequest {
			return "", fmt.Errorf("catalog: login: %w", domain.ErrInvalidCredentials)
		}
		return "", fmt.Errorf("catalog: login: %w", err)
	}
	token := strings.TrimSpace(resp.Token)
	if token == "" {
		return "", fmt.Errorf("catalog: login: %w", domain.NewValidationError("respuesta sin token"))
	}
	return token, nil
}

// ListBooks devuelve todos los libros en el orden del servidor.
func (c *Client) ListBooks(ctx context.Context) ([]entity.Book, error) {
	var raw []dto.BookResponse
	if err := c.call(ctx, "list_books", http.MethodGet, "/books/", true, nil, &raw); err != nil {
		return nil, fmt.Errorf("catalog: list books: %w", err)
	}
	books, err := toBooks(raw)
	if err != nil {
		return nil, fmt.Errorf("catalog: list books: %w", err)
	}
	return books, nil
}

// GetBook devuelve un libro por id.
func (c *Client) GetBook(ctx context.Context, id int64) (*entity.Book, error) {
	if err := c.checkID(id); err != nil {
		return nil, fmt.Errorf("catalog: get book: %w", err)
	}
	var raw dto.BookResponse
	if err := c.call(ctx, "get_book", http.MethodGet, bookPath(id), true, nil, &raw); err != nil {
		return nil, fmt.Errorf("catalog: get book %d: %w", id, err)
	}
	if err := raw.Check(); err != nil {
		return nil, fmt.Errorf("catalog: get book %d: %w", id, err)
	}
	b := raw.ToEntity()
	return &b, nil
}

// CreateBook da de alta un libro. Devuelve el libro creado si el servidor lo
// devuelve, o nil si solo confirma.
func (c *Client) CreateBook(ctx context.Context, req dto.CreateBookRequest) (*entity.Book, error) {
	if err := dto.Validate(req); err != nil {
		return nil, fmt.Errorf("catalog: create book: %w", err)
	}
	var raw json.RawMessage
	if err := c.call(ctx, "create_book", http.MethodPost, "/books/", true, req, &raw); err != nil {
		return nil, fmt.Errorf("catalog: create book: %w", err)
	}
	b, err := echoedBook(raw)
	if err != nil {
		return nil, fmt.Errorf("catalog: create book: %w", err)
	}
	return b, nil
}

// UpdateBook aplica un PATCH parcial.
func (c *Client) UpdateBook(ctx context.Context, id int64, req dto.UpdateBookRequest) (*entity.Book, error) {
	if err := c.checkID(id); err != nil {
		return nil, fmt.Errorf("catalog: update book: %w", err)
	}
	if req.Empty() {
		return nil, fmt.Errorf("catalog: update book %d: %w", id, domain.NewValidationError(dto.MsgNothingToUpdate))
	}
	if err := dto.Validate(req); err != nil {
		return nil, fmt.Errorf("catalog: update book %d: %w", id, err)
	}
	var raw json.RawMessage
	if err := c.call(ctx, "update_book", http.MethodPatch, bookPath(id), true, req, &raw); err != nil {
		return nil, fmt.Errorf("catalog: update book %d: %w", id, err)
	}
	b, err := echoedBook(raw)
	if err != nil {
		return nil, fmt.Errorf("catalog: update book %d: %w", id, err)
	}
	return b, nil
}

// DeleteBook elimina un libro.
func (c *Client) DeleteBook(ctx context.Context, id int64) error {
	if err := c.checkID(id); err != nil {
		return fmt.Errorf("catalog: delete book: %w", err)
	}
	if err := c.call(ctx, "delete_book", http.MethodDelete, bookPath(id), true, nil, nil); err != nil {
		return fmt.Errorf("catalog: delete book %d: %w", id, err)
	}
	return nil
}

// ListCategories devuelve las categorías para el selector del formulario.
func (c *Client) ListCategories(ctx context.Context) ([]entity.Category, error) {
	var raw []dto.CategoryResponse
	if err := c.call(ctx, "list_categories", http.MethodGet, "/books/get/categories", true, nil, &raw); err != nil {
		return nil, fmt.Errorf("catalog: list categories: %w", err)
	}
	out := make([]entity.Category, 0, len(raw))
	for i, r := range raw {
		if err := dto.Validate(r); err != nil {
			return nil, fmt.Errorf("catalog: list categories: item %d: %w", i, err)
		}
		out = append(out, r.ToEntity())
	}
	return out, nil
}

// SearchBooks busca por texto libre con un filtro opcional. Una consulta vacía
// devuelve un resultado vacío sin llamar al servidor.
func (c *Client) SearchBooks(ctx context.Context, q entity.SearchQuery) ([]entity.Book, error) {
	if q.Empty() {
		return []entity.Book{}, nil
	}
	filter, ok := entity.ParseSearchFilter(string(q.Filter))
	if !ok {
		return nil, fmt.Errorf("catalog: search books: %w", domain.NewValidationError("filtro desconocido: "+string(q.Filter)))
	}
	text := strings.TrimSpace(q.Text)
	params := url.Values{}
	params.Set("search", text)
	if name := c.search.param(filter); name != "" {
		params.Set(name, text)
	}

	var raw []dto.BookResponse
	if err := c.call(ctx, "search_books", http.MethodGet, "/books?"+params.Encode(), true, nil, &raw); err != nil {
		return nil, fmt.Errorf("catalog: search books: %w", err)
	}
	books, err := toBooks(raw)
	if err != nil {
		return nil, fmt.Errorf("catalog: search books: %w", err)
	}
	return books, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Transporte
// ─────────────────────────────────────────────────────────────────────────────

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("status %d", e.code)
	}
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}

// call ejecuta la petición, clasifica el resultado y decodifica out (si no es nil).
func (c *Client) call(ctx context.Context, op, method, path string, auth bool, in, out any) (err error) {
	start := time.Now()
	defer func() {
		c.metrics.ObserveCatalog(op, outcome(err), time.Since(start))
	}()

	var token string
	if auth {
		t, ok := c.session.Token()
		if !ok {
			return domain.ErrUnauthorized
		}
		token = t
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if in != nil {
		b, mErr := json.Marshal(in)
		if mErr != nil {
			return fmt.Errorf("serializar petición: %w", mErr)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("op", op).Str("request_id", reqID).Msg("fallo de red")
		return fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("%w: leer respuesta: %v", domain.ErrTransport, err)
	}

	c.log.Debug().
		Str("op", op).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Str("request_id", reqID).
		Dur("elapsed", time.Since(start)).
		Msg("catálogo")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.classify(ctx, op, token, resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], data...)
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return domain.NewValidationError("respuesta con forma inesperada: " + err.Error())
	}
	return nil
}

// classify traduce un status no 2xx. token es el que viajó en la petición (vacío si
// no era autenticada); un 401/403 solo cierra la sesión si ese token sigue vigente.
func (c *Client) classify(ctx context.Context, op, token string, code int, data []byte) error {
	se := &statusError{code: code, body: serverMessage(data)}
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		if token != "" {
			cleared, err := c.session.ClearIf(context.WithoutCancel(ctx), token, reasonUnauthorized)
			if err != nil {
				c.log.Error().Err(err).Msg("no se pudo limpiar la sesión")
			}
			if cleared {
				c.log.Warn().Str("op", op).Int("status", code).Msg("token rechazado; sesión cerrada")
			}
		}
		return fmt.Errorf("%w (%v)", domain.ErrUnauthorized, se)
	case code == http.StatusNotFound:
		return fmt.Errorf("%w (%v)", domain.ErrNotFound, se)
	default:
		return fmt.Errorf("%w: %w", domain.ErrTransport, se)
	}
}

func serverMessage(data []byte) string {
	var er dto.ErrorResponse
	if json.Unmarshal(data, &er) == nil && er.Message != "" {
		return er.Message
	}
	s := strings.TrimSpace(string(data))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	default:
		return "transport"
	}
}

// checkID rechaza ids no positivos sin tocar la red, pero solo después de comprobar
// la sesión: sin token el error es siempre ErrUnauthorized.
func (c *Client) checkID(id int64) error {
	if _, ok := c.session.Token(); !ok {
		return domain.ErrUnauthorized
	}
	if id <= 0 {
		return domain.ErrNotFound
	}
	return nil
}

func bookPath(id int64) string {
	return "/books/" + strconv.FormatInt(id, 10)
}

func toBooks(raw []dto.BookResponse) ([]entity.Book, error) {
	books := make([]entity.Book, 0, len(raw))
	for i, r := range raw {
		if err := r.Check(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		books = append(books, r.ToEntity())
	}
	return books, nil
}

// echoedBook interpreta la respuesta de alta/edición: un libro, o un simple acuse.
func echoedBook(raw json.RawMessage) (*entity.Book, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, nil
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil, domain.NewValidationError("respuesta con forma inesperada: " + err.Error())
	}
	if _, ok := probe["id"]; !ok {
		return nil, nil
	}
	var r dto.BookResponse
	if err := json.Unmarshal(trimmed, &r); err != nil {
		return nil, domain.NewValidationError("respuesta con forma inesperada: " + err.Error())
	}
	if err := r.Check(); err != nil {
		return nil, err
	}
	b := r.ToEntity()
	return &b, nil
}
