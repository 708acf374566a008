package middleware

import "github.com/labstack/echo/v4"

// identity returns the authenticated admin user stored by JWTAuth, or
// "anon" when the request carries no verified token.
func identity(c echo.Context) string {
	if s, ok := c.Get(ContextUser).(string); ok && s != "" {
		return s
	}
	return "anon"
}
