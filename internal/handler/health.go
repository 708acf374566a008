package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is a simple health-check endpoint used by Fly's checks, load
// balancers and monitoring systems to verify that the service is running.
// It returns {"status":"ok"} with a 200 status code.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
