// Package catalogtest levanta un servicio de catálogo en memoria para tests.
//
// Implementa el mismo contrato REST que el catálogo real (login, CRUD de libros,
// categorías y búsqueda) y registra cada petición recibida.
package catalogtest

import (
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/catalogo-admin/internal/application/dto"
	pkgjwt "github.com/jhoicas/catalogo-admin/pkg/jwt"
)

const (
	// Secret con el que el catálogo simulado firma sus tokens.
	Secret = "catalogtest-secret"
	// Username / Password credenciales válidas por defecto.
	Username = "admin"
	Password = "admin123"
	issuer   = "catalogtest"
)

// Call petición registrada.
type Call struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	RequestID     string
	Body          string
}

// Server catálogo simulado.
type Server struct {
	URL string

	mu         sync.Mutex
	books      map[int64]dto.BookResponse
	nextID     int64
	categories []dto.CategoryResponse
	opaque     map[string]bool
	failures   map[string]int
	raw        map[string]string
	calls      []Call
	tokenTTL   time.Duration
	ackOnly    bool
}

// Start arranca el servidor y lo cierra al terminar el test.
func Start(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		books:    make(map[int64]dto.BookResponse),
		nextID:   1,
		opaque:   make(map[string]bool),
		failures: make(map[string]int),
		raw:      make(map[string]string),
		tokenTTL: time.Hour,
	}
	srv := httptest.NewServer(adaptor.FiberApp(s.app()))
	t.Cleanup(srv.Close)
	s.URL = srv.URL
	return s
}

// ─────────────────────────────────────────────────────────────────────────────
// Preparación
// ─────────────────────────────────────────────────────────────────────────────

// AddBook inserta un libro; si b.ID es 0 se asigna uno.
func (s *Server) AddBook(b dto.BookResponse) dto.BookResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == 0 {
		b.ID = s.nextID
	}
	if b.ID >= s.nextID {
		s.nextID = b.ID + 1
	}
	s.books[b.ID] = b
	return b
}

// SetCategories fija las categorías.
func (s *Server) SetCategories(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = s.categories[:0]
	for i, n := range names {
		s.categories = append(s.categories, dto.CategoryResponse{ID: int64(i + 1), Nombre: n})
	}
}

// AcceptToken acepta un token opaco (no JWT) como válido.
func (s *Server) AcceptToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opaque[token] = true
}

// Fail hace que method+path responda con status hasta que se llame Reset.
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = status
}

// Raw hace que method+path responda 200 con body tal cual (payloads malformados).
func (s *Server) Raw(method, path, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw[method+" "+path] = body
}

// AckOnly hace que alta y edición respondan con un acuse sin libro.
func (s *Server) AckOnly() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ackOnly = true
}

// TokenTTL duración de los tokens emitidos en /auth/login.
func (s *Server) TokenTTL(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenTTL = d
}

// Token emite un token válido sin pasar por /auth/login.
func (s *Server) Token(t testing.TB) string {
	t.Helper()
	tok, err := pkgjwt.Generate(Secret, Username, issuer, time.Hour)
	if err != nil {
		t.Fatalf("catalogtest: token: %v", err)
	}
	return tok
}

// Calls devuelve una copia de las peticiones recibidas.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo filtra las peticiones por método y ruta.
func (s *Server) CallsTo(method, path string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// Book devuelve el libro almacenado.
func (s *Server) Book(id int64) (dto.BookResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	return b, ok
}

// ─────────────────────────────────────────────────────────────────────────────
// Rutas
// ─────────────────────────────────────────────────────────────────────────────

func (s *Server) app() *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(s.record)

	app.Post("/auth/login", s.login)

	books := app.Group("/books", s.bearer)
	books.Get("/get/categories", s.listCategories)
	books.Get("/", s.listOrSearch)
	books.Post("/", s.createBook)
	books.Get("/:id", s.getBook)
	books.Patch("/:id", s.updateBook)
	books.Delete("/:id", s.deleteBook)
	return app
}

func (s *Server) record(c *fiber.Ctx) error {
	s.mu.Lock()
	s.calls = append(s.calls, Call{
		Method:        c.Method(),
		Path:          c.Path(),
		Query:         string(c.Request().URI().QueryString()),
		Authorization: c.Get(fiber.HeaderAuthorization),
		RequestID:     c.Get("X-Request-ID"),
		Body:          string(c.Body()),
	})
	key := c.Method() + " " + c.Path()
	status, failing := s.failures[key]
	body, raw := s.raw[key]
	s.mu.Unlock()

	if failing {
		return c.Status(status).JSON(dto.ErrorResponse{Code: "FORCED", Message: "falla forzada"})
	}
	if raw {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Status(fiber.StatusOK).SendString(body)
	}
	return c.Next()
}

// bearer valida el token igual que el middleware de auth del catálogo.
func (s *Server) bearer(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
	}
	token := strings.TrimSpace(parts[1])
	s.mu.Lock()
	ok := s.opaque[token]
	s.mu.Unlock()
	if ok {
		return c.Next()
	}
	if _, err := pkgjwt.Parse(Secret, token); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
	}
	return c.Next()
}

func (s *Server) login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "BAD_REQUEST", Message: "body inválido"})
	}
	if req.Username != Username || req.Password != Password {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_CREDENTIALS", Message: "credenciales inválidas"})
	}
	s.mu.Lock()
	ttl := s.tokenTTL
	s.mu.Unlock()
	tok, err := pkgjwt.Generate(Secret, req.Username, issuer, ttl)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(dto.LoginResponse{Token: tok})
}

func (s *Server) listCategories(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]dto.CategoryResponse{}, s.categories...)
	return c.JSON(out)
}

func (s *Server) listOrSearch(c *fiber.Ctx) error {
	s.mu.Lock()
	all := s.sortedLocked()
	s.mu.Unlock()

	search := strings.ToLower(c.Query("search"))
	if search == "" {
		return c.JSON(wireAll(all))
	}
	author := strings.ToLower(firstQuery(c, "author", "autor"))
	year := firstQuery(c, "year", "anno")
	category := strings.ToLower(firstQuery(c, "category", "categoria"))

	out := []dto.BookResponse{}
	for _, b := range all {
		switch {
		case author != "":
			if !strings.Contains(strings.ToLower(b.Autor), author) {
				continue
			}
		case year != "":
			if !strings.HasPrefix(b.FechaPublicacion, year) {
				continue
			}
		case category != "":
			if !strings.EqualFold(b.Categoria, category) {
				continue
			}
		default:
			text := strings.ToLower(b.Titulo + " " + b.Autor + " " + b.Categoria)
			if !strings.Contains(text, search) {
				continue
			}
		}
		out = append(out, b)
	}
	return c.JSON(wireAll(out))
}

// wire serializa como el catálogo real: precio como número JSON.
func wire(b dto.BookResponse) dto.BookWire {
	return dto.NewBookWire(b.ToEntity())
}

func wireAll(books []dto.BookResponse) []dto.BookWire {
	out := make([]dto.BookWire, 0, len(books))
	for _, b := range books {
		out = append(out, wire(b))
	}
	return out
}

// firstQuery acepta los nombres de filtro en inglés y en español.
func firstQuery(c *fiber.Ctx, names ...string) string {
	for _, n := range names {
		if v := c.Query(n); v != "" {
			return v
		}
	}
	return ""
}

func (s *Server) sortedLocked() []dto.BookResponse {
	out := make([]dto.BookResponse, 0, len(s.books))
	for _, b := range s.books {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) getBook(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "libro no encontrado"})
	}
	b, ok := s.Book(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "libro no encontrado"})
	}
	return c.JSON(wire(b))
}

func (s *Server) createBook(c *fiber.Ctx) error {
	var req dto.CreateBookRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "BAD_REQUEST", Message: err.Error()})
	}
	price, err := decimal.NewFromString(req.Precio.String())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "BAD_REQUEST", Message: "precio inválido"})
	}
	b := s.AddBook(dto.BookResponse{
		Titulo:           req.Titulo,
		Autor:            req.Autor,
		FechaPublicacion: req.FechaPublicacion,
		Precio:           price,
		Stock:            req.Stock,
		Categoria:        req.Categoria,
	})
	s.mu.Lock()
	ack := s.ackOnly
	s.mu.Unlock()
	if ack {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Libro creado"})
	}
	return c.Status(fiber.StatusCreated).JSON(wire(b))
}

func (s *Server) updateBook(c *fiber.Ctx) error {
	id, _ := strconv.ParseInt(c.Params("id"), 10, 64)
	var req dto.UpdateBookRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "BAD_REQUEST", Message: err.Error()})
	}

	s.mu.Lock()
	b, ok := s.books[id]
	if !ok {
		s.mu.Unlock()
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "libro no encontrado"})
	}
	if req.Titulo != nil {
		b.Titulo = *req.Titulo
	}
	if req.Autor != nil {
		b.Autor = *req.Autor
	}
	if req.FechaPublicacion != nil {
		b.FechaPublicacion = *req.FechaPublicacion
	}
	if req.Precio != nil {
		if p, err := decimal.NewFromString(req.Precio.String()); err == nil {
			b.Precio = p
		}
	}
	if req.Stock != nil {
		b.Stock = *req.Stock
	}
	if req.Categoria != nil {
		b.Categoria = *req.Categoria
	}
	s.books[id] = b
	ack := s.ackOnly
	s.mu.Unlock()

	if ack {
		return c.JSON(fiber.Map{"message": "Libro actualizado"})
	}
	return c.JSON(wire(b))
}

func (s *Server) deleteBook(c *fiber.Ctx) error {
	id, _ := strconv.ParseInt(c.Params("id"), 10, 64)
	s.mu.Lock()
	_, ok := s.books[id]
	delete(s.books, id)
	s.mu.Unlock()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "libro no encontrado"})
	}
	return c.JSON(fiber.Map{"message": "Libro eliminado"})
}
