package router // package router declares the site's path table and mounts it on echo

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iliyamo/fly-starter/internal/handler"
)

// Route binds a path, relative to the site root, to exactly one of Handler
// (a leaf endpoint answering every method) or Include (a sub-tree mounted
// under the path). Name, when set, can be passed to echo's Reverse.
type Route struct {
	Path    string
	Name    string
	Handler echo.HandlerFunc
	Include func(g *echo.Group)
}

// Table returns the site's routes in registration order.
func Table(admin *handler.AdminHandler) []Route {
	return []Route{
		{Path: "admin/", Include: admin.Mount},
		{Path: "", Name: "hello", Handler: handler.Hello},
		{Path: "health/", Handler: handler.Health},
	}
}

// Validate checks that paths and names are unique and that every route binds
// exactly one capability.
func Validate(routes []Route) error {
	paths := make(map[string]bool, len(routes))
	names := make(map[string]bool, len(routes))
	for _, r := range routes {
		if strings.HasPrefix(r.Path, "/") {
			return errors.Errorf("route %q: path must be relative to the site root", r.Path)
		}
		if r.Path != "" && !strings.HasSuffix(r.Path, "/") {
			return errors.Errorf("route %q: path must end with a slash", r.Path)
		}
		if (r.Handler == nil) == (r.Include == nil) {
			return errors.Errorf("route %q: exactly one of Handler or Include must be set", r.Path)
		}
		if paths[r.Path] {
			return errors.Errorf("route %q: duplicate path", r.Path)
		}
		paths[r.Path] = true
		if r.Name != "" {
			if names[r.Name] {
				return errors.Errorf("route %q: duplicate name %q", r.Path, r.Name)
			}
			names[r.Name] = true
		}
	}
	return nil
}

// Register validates routes and mounts them on e. Nothing is registered if
// validation fails.
func Register(e *echo.Echo, routes []Route) error {
	if err := Validate(routes); err != nil {
		return err
	}
	for _, r := range routes {
		path := "/" + r.Path
		if r.Include != nil {
			r.Include(e.Group(strings.TrimSuffix(path, "/")))
			continue
		}
		for _, added := range e.Any(path, r.Handler) {
			added.Name = r.Name
		}
	}
	return nil
}
