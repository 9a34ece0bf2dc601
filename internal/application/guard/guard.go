// Package guard decide, por navegación, si una vista protegida se renderiza o se
// redirige al login. Es una función pura de (hay token, ruta pedida): no hace I/O
// ni valida el token contra el catálogo; la invalidez se descubre con el primer 401.
package guard

import "strings"

// LoginPath vista pública de inicio de sesión y destino de toda redirección.
const LoginPath = "/login"

// Action resultado de una decisión.
type Action int

const (
	// Render la vista pedida puede renderizarse.
	Render Action = iota
	// Redirect hay que navegar a Decision.Target.
	Redirect
)

func (a Action) String() string {
	if a == Render {
		return "render"
	}
	return "redirect"
}

// Route entrada del árbol de rutas de la consola.
type Route struct {
	Name      string
	Pattern   string // segmentos literales o :param
	Protected bool
}

// Routes árbol de rutas. El router HTTP registra un handler para cada patrón.
var Routes = []Route{
	{Name: "login", Pattern: LoginPath, Protected: false},
	{Name: "logout", Pattern: "/logout", Protected: true},
	{Name: "list", Pattern: "/", Protected: true},
	{Name: "details", Pattern: "/books/:id", Protected: true},
	{Name: "delete", Pattern: "/books/:id/delete", Protected: true},
	{Name: "add", Pattern: "/add", Protected: true},
	{Name: "edit", Pattern: "/edit/:id", Protected: true},
	{Name: "search", Pattern: "/search", Protected: true},
	{Name: "export", Pattern: "/export.pdf", Protected: true},
}

// Decision resultado de Decide.
type Decision struct {
	Action Action
	Route  string // nombre de la ruta reconocida; vacío si no hubo coincidencia
	Target string // destino si Action == Redirect
}

// Decide aplica la máquina de estados por navegación:
//   - ruta desconocida → login, haya o no token;
//   - ruta pública → render;
//   - ruta protegida sin token → login;
//   - ruta protegida con token → render (sin permisos por recurso).
func Decide(hasToken bool, path string) Decision {
	route, ok := Match(path)
	if !ok {
		return Decision{Action: Redirect, Target: LoginPath}
	}
	if route.Protected && !hasToken {
		return Decision{Action: Redirect, Route: route.Name, Target: LoginPath}
	}
	return Decision{Action: Render, Route: route.Name}
}

// Match busca la ruta que corresponde a path.
func Match(path string) (Route, bool) {
	segs := split(path)
	for _, r := range Routes {
		if matchSegments(split(r.Pattern), segs) {
			return r, true
		}
	}
	return Route{}, false
}

func matchSegments(pattern, path []string) bool {
	if len(pattern) != len(path) {
		return false
	}
	for i, p := range pattern {
		if strings.HasPrefix(p, ":") {
			if path[i] == "" {
				return false
			}
			continue
		}
		if p != path[i] {
			return false
		}
	}
	return true
}

// split normaliza la barra final: "/books/1/" equivale a "/books/1".
func split(path string) []string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
