package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/talkincode/commercedesk/internal/webserver"
)

func registerHealthRoutes() {
	webserver.ApiGET("/health", getHealth)
}

// getHealth pings the database through the request-scoped handle.
func getHealth(c echo.Context) error {
	sqlDB, err := GetDB(c).DB()
	if err != nil {
		return fail(c, http.StatusServiceUnavailable, "DATABASE_ERROR", "Database handle unavailable", nil)
	}
	if err := sqlDB.PingContext(c.Request().Context()); err != nil {
		return fail(c, http.StatusServiceUnavailable, "DATABASE_ERROR", "Database ping failed", nil)
	}
	return ok(c, map[string]interface{}{"status": "up"})
}
