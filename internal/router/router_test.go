package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/fly-starter/internal/config"
	"github.com/iliyamo/fly-starter/internal/handler"
)

func testAdmin() *handler.AdminHandler {
	return handler.NewAdminHandler(config.Settings{SecretKey: "x"}, nil, nil, nil)
}

func TestTableEntries(t *testing.T) {
	routes := Table(testAdmin())
	require.Len(t, routes, 3)

	paths := make([]string, 0, len(routes))
	for _, r := range routes {
		paths = append(paths, r.Path)
	}
	assert.Equal(t, []string{"admin/", "", "health/"}, paths)
	assert.Equal(t, "hello", routes[1].Name)
	assert.NotNil(t, routes[0].Include)
	assert.NoError(t, Validate(routes))
}

func TestValidate(t *testing.T) {
	h := func(c echo.Context) error { return nil }
	inc := func(g *echo.Group) {}

	cases := map[string][]Route{
		"duplicate path":   {{Path: "a/", Handler: h}, {Path: "a/", Handler: h}},
		"duplicate name":   {{Path: "a/", Name: "n", Handler: h}, {Path: "b/", Name: "n", Handler: h}},
		"no capability":    {{Path: "a/"}},
		"two capabilities": {{Path: "a/", Handler: h, Include: inc}},
		"leading slash":    {{Path: "/a/", Handler: h}},
		"missing slash":    {{Path: "a", Handler: h}},
	}
	for name, routes := range cases {
		assert.Error(t, Validate(routes), name)
	}
}

func TestRegisterRejectsInvalidTable(t *testing.T) {
	e := echo.New()
	h := func(c echo.Context) error { return nil }
	err := Register(e, []Route{{Path: "x/", Handler: h}, {Path: "x/", Handler: h}})
	assert.Error(t, err)
	assert.Empty(t, e.Routes())
}

func TestRegisterServesTable(t *testing.T) {
	e := echo.New()
	require.NoError(t, Register(e, Table(testAdmin())))

	for _, m := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(m, "/", strings.NewReader("ignored")))
		assert.Equal(t, http.StatusOK, rec.Code, m)
		assert.Equal(t, "Hello, Fly!", rec.Body.String(), m)

		rec = httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(m, "/health/", nil))
		assert.Equal(t, http.StatusOK, rec.Code, m)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String(), m)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Equal(t, "/", e.Reverse("hello"))
}
