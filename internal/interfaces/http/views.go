package http

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/catalogo-admin/pkg/format"
)

//go:embed views
var viewsFS embed.FS

// Locals que el shell deja en el contexto para las vistas.
const (
	LocalAuthenticated = "authenticated"
	LocalRoute         = "route"
	LocalRequestID     = "request_id"
)

// NewViewEngine construye el motor de plantillas sobre las vistas embebidas.
func NewViewEngine(prices *format.PriceFormatter) (*html.Engine, error) {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		return nil, err
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("price", func(d decimal.Decimal) string { return prices.Price(d) })
	if err := engine.Load(); err != nil {
		return nil, err
	}
	return engine, nil
}

// render añade los datos comunes del layout (navbar solo con token).
func render(c *fiber.Ctx, appName, view, title string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	data["Title"] = title
	data["AppName"] = appName
	data["Authenticated"] = isAuthenticated(c)
	return c.Render(view, data, "layouts/main")
}

func isAuthenticated(c *fiber.Ctx) bool {
	v, _ := c.Locals(LocalAuthenticated).(bool)
	return v
}
