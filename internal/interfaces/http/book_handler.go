package http

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/catalogo-admin/internal/application/dto"
	"github.com/jhoicas/catalogo-admin/internal/application/guard"
	"github.com/jhoicas/catalogo-admin/internal/application/usecase"
	"github.com/jhoicas/catalogo-admin/internal/domain"
	"github.com/jhoicas/catalogo-admin/internal/domain/entity"
	"github.com/jhoicas/catalogo-admin/pkg/logger"
)

// BookHandler vistas de listado, detalle, alta, edición, borrado, búsqueda y exportación.
type BookHandler struct {
	uc       *usecase.BookUseCase
	exportUC *usecase.ExportUseCase
	appName  string
	log      *logger.Logger
}

// NewBookHandler construye el handler.
func NewBookHandler(uc *usecase.BookUseCase, exportUC *usecase.ExportUseCase, appName string, log *logger.Logger) *BookHandler {
	return &BookHandler{uc: uc, exportUC: exportUC, appName: appName, log: log.Component("views")}
}

type searchOption struct {
	Value string
	Label string
}

var searchOptions = []searchOption{
	{Value: string(entity.FilterNone), Label: "Todos"},
	{Value: string(entity.FilterAuthor), Label: "Autor"},
	{Value: string(entity.FilterYear), Label: "Año"},
	{Value: string(entity.FilterCategory), Label: "Categoría"},
}

// deletedCookie flash de un solo uso con el id recién eliminado.
const deletedCookie = "catalogo_deleted"

// List GET /. El flash de un borrado recién hecho oculta ese libro una sola vez.
func (h *BookHandler) List(c *fiber.Ctx) error {
	var deleted int64
	if v := c.Cookies(deletedCookie); v != "" {
		deleted, _ = strconv.ParseInt(v, 10, 64)
		c.ClearCookie(deletedCookie)
	}
	books, err := h.uc.ListWithout(c.UserContext(), deleted)
	if err != nil {
		if h.sessionLost(err) {
			return c.Redirect(guard.LoginPath, fiber.StatusSeeOther)
		}
		h.log.Warn().Err(err).Msg("listado")
		return render(c, h.appName, "list", "Books", fiber.Map{"Error": viewMessage(err, MsgListFailed)})
	}
	return render(c, h.appName, "list", "Books", fiber.Map{"Books": books})
}

// Details GET /books/:id.
func (h *BookHandler) Details(c *fiber.Ctx) error {
	id, ok := bookID(c)
	if !ok {
		c.Status(fiber.StatusNotFound)
		return render(c, h.appName, "details", "Book", fiber.Map{"Error": MsgNotFound})
	}
	book, err := h.uc.Get(c.UserContext(), id)
	if err != nil {
		if h.sessionLost(err) {
			return c.Redirect(guard.LoginPath, fiber.StatusSeeOther)
		}
		h.log.Warn().Err(err).Int64("id", id).Msg("detalle")
		c.Status(statusFor(err))
		return render(c, h.appName, "details", "Book", fiber.Map{"Error": viewMessage(err, MsgDetailsFailed)})
	}
	return render(c, h.appName, "details", book.Titulo, fiber.Map{"Book": book})
}

// AddPage GET /add.
func (h *BookHandler) AddPage(c *fiber.Ctx) error {
	return h.renderForm(c, formView{heading: "Create New Book", action: "/add", submit: "Create Book"}, dto.BookForm{}, "")
}

// Create POST /add.
func (h *BookHandler) Create(c *fiber.Ctx) error {
	view := formView{heading: "Create New Book", action: "/add", submit: "Create Book"}
	var form dto.BookForm
	if err := c.BodyParser(&form); err != nil {
		c.Status(fiber.StatusBadRequest)
		return h.renderForm(c, view, form, dto.MsgAllFieldsRequired)
	}
	if _, err := h.uc.Create(c.UserContext(), form); err != nil {
		if h.sessionLost(err) {
			return c.Redirect(guard.LoginPath, fiber.StatusSeeOther)
		}
		h.log.Warn().Err(err).Msg("alta de libro")
		c.Status(statusFor(err))
		return h.renderForm(c, view, form, viewMessage(err, MsgCreateFailed))
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

// EditPage GET /edit/:id: formulario precargado.
func (h *BookHandler) EditPage(c *fiber.Ctx) error {
	id, ok := bookID(c)
	if !ok {
		c.Status(fiber.StatusNotFound)
		return render(c, h.appName, "details", "Book", fiber.Map{"Error": MsgNotFound})
	}
	view := editView(id)
	book, err := h.uc.Get(c.UserContext(), id)
	if err != nil {
		if h.sessionLost(err) {
			return c.Redirect(guard.LoginPath, fiber.StatusSeeOther)
		}
		c.Status(statusFor(err))
		return h.renderForm(c, view, dto.BookForm{}, viewMessage(err, MsgDetailsFailed))
	}
	return h.renderForm(c, view, dto.FormFromBook(*book), "")
}

// Update POST /edit/:id: PATCH con los campos informados.
func (h *BookHandler) Update(c *fiber.Ctx) error {
	id, ok := bookID(c)
	if !ok {
		c.Status(fiber.StatusNotFound)
		return render(c, h.appName, "details", "Book", fiber.Map{"Error": MsgNotFound})
	}
	view := editView(id)
	var form dto.BookForm
	if err := c.BodyParser(&form); err != nil {
		c.Status(fiber.StatusBadRequest)
		return h.renderForm(c, view, form, dto.MsgNumericFields)
	}
	if _, err := h.uc.Update(c.UserContext(), id, form); err != nil {
		if h.sessionLost(err) {
			return c.Redirect(guard.LoginPath, fiber.StatusSeeOther)
		}
		h.log.Warn().Err(err).Int64("id", id).Msg("edición de libro")
		c.Status(statusFor(err))
		return h.renderForm(c, view, form, viewMessage(err, MsgUpdateFailed))
	}
	return c.Redirect("/books/"+strconv.FormatInt(id, 10), fiber.StatusSeeOther)
}

// Delete POST /books/:id/delete: un único DELETE y vuelta al listado sin ese libro.
func (h *BookHandler) Delete(c *fiber.Ctx) error {
	id, ok := bookID(c)
	if !ok {
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	if err := h.uc.Delete(c.UserContext(), id); err != nil {
		if h.sessionLost(err) {
			return c.Redirect(guard.LoginPath, fiber.StatusSeeOther)
		}
		h.log.Warn().Err(err).Int64("id", id).Msg("borrado de libro")
		c.Status(statusFor(err))
		return render(c, h.appName, "list", "Books", fiber.Map{"Error": viewMessage(err, MsgDeleteFailed)})
	}
	c.Cookie(&fiber.Cookie{
		Name:     deletedCookie,
		Value:    strconv.FormatInt(id, 10),
		Path:     "/",
		MaxAge:   30,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect("/", fiber.StatusSeeOther)
}

// Search GET /search?q=&filter=. Consulta vacía: sin petición y sin resultados.
func (h *BookHandler) Search(c *fiber.Ctx) error {
	q := c.Query("q")
	filter := c.Query("filter")
	data := fiber.Map{"Query": q, "Filter": filter, "Filters": searchOptions}
	if strings.TrimSpace(q) == "" {
		return render(c, h.appName, "search", "Search", data)
	}

	results, err := h.uc.Search(c.UserContext(), q, filter)
	data["Searched"] = true
	if err != nil {
		if h.sessionLost(err) {
			return c.Redirect(guard.LoginPath, fiber.StatusSeeOther)
		}
		h.log.Warn().Err(err).Str("filter", filter).Msg("búsqueda")
		data["Error"] = viewMessage(err, MsgSearchFailed)
		return render(c, h.appName, "search", "Search", data)
	}
	data["Results"] = results
	return render(c, h.appName, "search", "Search", data)
}

// Export GET /export.pdf.
func (h *BookHandler) Export(c *fiber.Ctx) error {
	out, filename, err := h.exportUC.ExportPDF(c.UserContext())
	if err != nil {
		if h.sessionLost(err) {
			return c.Redirect(guard.LoginPath, fiber.StatusSeeOther)
		}
		h.log.Error().Err(err).Msg("exportación PDF")
		c.Status(statusFor(err))
		return render(c, h.appName, "list", "Books", fiber.Map{"Error": viewMessage(err, MsgExportFailed)})
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Attachment(filename)
	return c.Send(out)
}

// ── helpers ───────────────────────────────────────────────────────────────────

type formView struct {
	heading string
	action  string
	submit  string
}

func editView(id int64) formView {
	return formView{heading: "Update Book", action: "/edit/" + strconv.FormatInt(id, 10), submit: "Update Book"}
}

func (h *BookHandler) renderForm(c *fiber.Ctx, v formView, form dto.BookForm, msg string) error {
	data := fiber.Map{
		"Heading": v.heading,
		"Action":  v.action,
		"Submit":  v.submit,
		"Form":    form,
		"Error":   msg,
	}
	cats, err := h.uc.Categories(c.UserContext())
	if err != nil {
		h.log.Warn().Err(err).Msg("categorías")
		data["CategoriesError"] = MsgCategoriesFailed
	}
	data["Categories"] = cats
	return render(c, h.appName, "form", v.heading, data)
}

// sessionLost indica que el catálogo rechazó el token o no hay sesión: la vista
// redirige al login en lugar de mostrar el error.
func (h *BookHandler) sessionLost(err error) bool {
	return errors.Is(err, domain.ErrUnauthorized)
}

func bookID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusBadGateway
	}
}
