// Package adminapi implements the back-office HTTP handlers. Every
// response uses the same envelope: {code, message, data} on success,
// {code, error_code, message, details} on failure.
package adminapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/talkincode/commercedesk/internal/attachment"
	"github.com/talkincode/commercedesk/internal/commerce"
	"github.com/talkincode/commercedesk/pkg/errs"
)

var (
	commerceService *commerce.Service
	attachmentStore *attachment.Store
)

// Init wires the handler dependencies and registers all routes.
func Init(service *commerce.Service, store *attachment.Store) {
	commerceService = service
	attachmentStore = store
	registerHealthRoutes()
	registerCommerceRoutes()
	registerAttachmentRoutes()
}

// GetDB returns the request-scoped gorm handle placed there by the
// webserver middleware.
func GetDB(c echo.Context) *gorm.DB {
	return c.Get("db").(*gorm.DB)
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"code":    0,
		"message": "success",
		"data":    data,
	})
}

func fail(c echo.Context, status int, code, message string, details interface{}) error {
	return c.JSON(status, map[string]interface{}{
		"code":       status,
		"error_code": code,
		"message":    message,
		"details":    details,
	})
}

func paged(c echo.Context, items interface{}, total int64, page, pageSize int) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"code":    0,
		"message": "success",
		"data": map[string]interface{}{
			"items":     items,
			"total":     total,
			"page":      page,
			"page_size": pageSize,
		},
	})
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

func parsePagination(c echo.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.QueryParam("page_size"))
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

func handleValidationError(c echo.Context, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, strings.ToLower(fe.Field()))
		}
		return fail(c, http.StatusBadRequest, "VALIDATION_FAILED",
			"Request validation failed", map[string]interface{}{"fields": fields})
	}
	return fail(c, http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", nil)
}

// failFromErr maps the typed service errors onto HTTP statuses so
// handlers do not repeat the switch.
func failFromErr(c echo.Context, err error) error {
	var ve *errs.ValidationError
	if errors.As(err, &ve) {
		return fail(c, http.StatusBadRequest, "VALIDATION_FAILED", ve.Error(), ve.Field)
	}
	var nf *errs.NotFoundError
	if errors.As(err, &nf) {
		return fail(c, http.StatusNotFound, "NOT_FOUND", nf.Error(), nil)
	}
	var pf *errs.PartialFailure
	if errors.As(err, &pf) {
		return fail(c, http.StatusInternalServerError, "PARTIAL_FAILURE", pf.Error(),
			map[string]interface{}{"done": pf.Done, "failed": pf.Failed})
	}
	return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", err.Error(), nil)
}
