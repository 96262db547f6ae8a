// Package webserver hosts the echo HTTP server for the admin API.
// Route registration goes through ApiGET/ApiPOST/ApiPUT/ApiDELETE so
// handler packages never touch the echo instance directly.
package webserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/talkincode/commercedesk/config"
)

var server *WebServer

type WebServer struct {
	root      *echo.Echo
	api       *echo.Group
	appConfig *config.AppConfig
}

// ContextValidator adapts go-playground/validator to echo's Validator
// interface so handlers can call c.Validate on bound payloads.
type ContextValidator struct {
	validate *validator.Validate
}

func (v *ContextValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// Init builds the server and its middleware chain. The gorm handle is
// injected into every request context; handlers read it back with
// their GetDB helper.
func Init(cfg *config.AppConfig, db *gorm.DB) *WebServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &ContextValidator{validate: validator.New()}

	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("64M"))
	e.Use(ZapLogger())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("db", db)
			return next(c)
		}
	})

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		message := "Internal server error"
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			message = fmt.Sprintf("%v", he.Message)
		}
		zap.L().Error("http error",
			zap.String("path", c.Request().RequestURI),
			zap.Int("status", code),
			zap.Error(err))
		_ = c.JSON(code, map[string]interface{}{
			"code":    code,
			"message": message,
		})
	}

	server = &WebServer{
		root:      e,
		api:       e.Group("/api"),
		appConfig: cfg,
	}
	return server
}

// ZapLogger logs each request through the global zap logger.
func ZapLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req := c.Request()
			res := c.Response()
			zap.L().Info("http request",
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.Int("status", res.Status),
				zap.Duration("latency", time.Since(start)),
				zap.String("remote_ip", c.RealIP()))
			return err
		}
	}
}

// Start blocks serving HTTP until the listener fails or Shutdown is
// called.
func (s *WebServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.appConfig.Web.Host, s.appConfig.Web.Port)
	zap.L().Info("admin api listening", zap.String("addr", addr))
	err := s.root.Start(addr)
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *WebServer) Shutdown(ctx context.Context) error {
	return s.root.Shutdown(ctx)
}

// Echo exposes the underlying instance for tests.
func (s *WebServer) Echo() *echo.Echo {
	return s.root
}

func ApiGET(path string, h echo.HandlerFunc) {
	server.api.GET(path, h)
}

func ApiPOST(path string, h echo.HandlerFunc) {
	server.api.POST(path, h)
}

func ApiPUT(path string, h echo.HandlerFunc) {
	server.api.PUT(path, h)
}

func ApiDELETE(path string, h echo.HandlerFunc) {
	server.api.DELETE(path, h)
}
