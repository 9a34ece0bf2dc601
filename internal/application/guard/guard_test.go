package guard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/catalogo-admin/internal/application/guard"
)

var protectedPaths = []string{"/", "/books/1", "/books/42/delete", "/add", "/edit/7", "/search", "/export.pdf", "/logout"}

func TestDecide_SinToken_RedirigeAlLogin(t *testing.T) {
	for _, p := range protectedPaths {
		d := guard.Decide(false, p)
		assert.Equal(t, guard.Redirect, d.Action, p)
		assert.Equal(t, guard.LoginPath, d.Target, p)
	}
}

func TestDecide_ConToken_RenderizaLaVista(t *testing.T) {
	want := map[string]string{
		"/":           "list",
		"/books/1":    "details",
		"/add":        "add",
		"/edit/7":     "edit",
		"/search":     "search",
		"/export.pdf": "export",
	}
	for p, name := range want {
		d := guard.Decide(true, p)
		assert.Equal(t, guard.Render, d.Action, p)
		assert.Equal(t, name, d.Route, p)
		assert.Empty(t, d.Target, p)
	}
}

func TestDecide_RutaDesconocida_SiempreAlLogin(t *testing.T) {
	for _, p := range []string{"/admin", "/books", "/books/1/2/3", "/edit", "/edit/", "/nada/que/ver"} {
		for _, hasToken := range []bool{false, true} {
			d := guard.Decide(hasToken, p)
			assert.Equal(t, guard.Redirect, d.Action, "%s token=%v", p, hasToken)
			assert.Equal(t, guard.LoginPath, d.Target)
			assert.Empty(t, d.Route)
		}
	}
}

func TestDecide_LoginEsPublico(t *testing.T) {
	assert.Equal(t, guard.Render, guard.Decide(false, "/login").Action)
	assert.Equal(t, guard.Render, guard.Decide(true, "/login").Action)
}

func TestMatch_IgnoraQueryYBarraFinal(t *testing.T) {
	r, ok := guard.Match("/search?search=borges&filter=author")
	assert.True(t, ok)
	assert.Equal(t, "search", r.Name)

	r, ok = guard.Match("/books/3/")
	assert.True(t, ok)
	assert.Equal(t, "details", r.Name)
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "render", guard.Render.String())
	assert.Equal(t, "redirect", guard.Redirect.String())
}
