package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/catalogo-admin/internal/application/auth"
	"github.com/jhoicas/catalogo-admin/internal/application/usecase"
	"github.com/jhoicas/catalogo-admin/pkg/format"
	"github.com/jhoicas/catalogo-admin/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Shell      *Shell
	AuthUC     *auth.AuthUseCase
	BookUC     *usecase.BookUseCase
	ExportUC   *usecase.ExportUseCase
	Prices     *format.PriceFormatter
	Gatherer   prometheus.Gatherer
	AppName    string
	CatalogURL string
	Log        *logger.Logger
}

// NewApp construye la aplicación fiber con las vistas embebidas y registra las rutas.
func NewApp(deps RouterDeps) (*fiber.App, error) {
	if deps.Shell == nil || deps.AuthUC == nil || deps.BookUC == nil || deps.ExportUC == nil {
		return nil, errors.New("http: dependencias incompletas")
	}
	if deps.Prices == nil {
		deps.Prices = format.NewPriceFormatter("en")
	}
	engine, err := NewViewEngine(deps.Prices)
	if err != nil {
		return nil, err
	}
	log := deps.Log.Component("http")

	app := fiber.New(fiber.Config{
		AppName:               deps.AppName,
		Views:                 engine,
		ReadTimeout:           time.Second * 10,
		WriteTimeout:          time.Second * 30,
		IdleTimeout:           time.Second * 60,
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			log.Error().Err(err).Str("path", c.Path()).Int("status", code).Msg("error no manejado")
			return c.Status(code).SendString(err.Error())
		},
	})
	app.Use(recover.New())
	Router(app, deps)
	return app, nil
}

// Router registra middleware y rutas de la consola.
func Router(app *fiber.App, deps RouterDeps) {
	app.Use(RequestID())
	app.Use(deps.Shell.AccessLog())

	// Operativas (fuera del guard)
	app.Get(HealthPath, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":        "ok",
			"service":       deps.AppName,
			"catalog":       deps.CatalogURL,
			"authenticated": deps.Shell.Authenticated(),
		})
	})
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// Todo lo demás pasa por el guard; lo no registrado redirige a /login.
	app.Use(deps.Shell.Guard())

	authHandler := NewAuthHandler(deps.AuthUC, deps.AppName, deps.Log)
	app.Get("/login", authHandler.LoginPage)
	app.Post("/login", authHandler.Login)
	app.Post("/logout", authHandler.Logout)

	books := NewBookHandler(deps.BookUC, deps.ExportUC, deps.AppName, deps.Log)
	app.Get("/", books.List)
	app.Get("/books/:id", books.Details)
	app.Post("/books/:id/delete", books.Delete)
	app.Get("/add", books.AddPage)
	app.Post("/add", books.Create)
	app.Get("/edit/:id", books.EditPage)
	app.Post("/edit/:id", books.Update)
	app.Get("/search", books.Search)
	app.Get("/export.pdf", books.Export)

	// Método no registrado sobre una ruta conocida (p. ej. GET /logout).
	app.Use(func(c *fiber.Ctx) error {
		return c.Redirect("/", fiber.StatusSeeOther)
	})
}
