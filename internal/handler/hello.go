package handler // declare the package name; contains HTTP handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Greeting is the body served at the site root.
const Greeting = "Hello, Fly!"

// Hello answers every request with the plain-text greeting.
func Hello(c echo.Context) error {
	return c.String(http.StatusOK, Greeting)
}
