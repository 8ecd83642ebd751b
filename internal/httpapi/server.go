// Package httpapi serves the Artifact HTTP surface: direct downloads of
// files written inside a session's data directory, grounded on the
// predecessor's Starlette download_artifact route.
package httpapi

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/opensandbox/codebroker/internal/metrics"
	"github.com/opensandbox/codebroker/internal/obslog"
	"github.com/opensandbox/codebroker/internal/session"
)

// requestIDHeader carries a per-request correlation id through logs, distinct
// from session/run ids, which identify domain entities rather than requests.
const requestIDHeader = "X-Request-ID"

// reader is the subset of *session.Manager the artifact surface needs.
type reader interface {
	Read(ctx context.Context, sessionID, path string) (*session.Read, *session.Error)
}

var _ reader = (*session.Manager)(nil)

// Server is the Artifact HTTP surface: GET /files/:session_id/:filename, plus
// GET /healthz and GET /metrics.
type Server struct {
	echo *echo.Echo
}

// New builds a Server delegating reads to manager.
func New(manager reader) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(requestIDMiddleware())
	e.Use(metrics.EchoMiddleware())

	s := &Server{echo: e}
	e.GET("/files/:session_id/:filename", s.download(manager))
	e.GET("/healthz", s.healthz)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	return s
}

// Echo exposes the underlying router, mainly for tests.
func (s *Server) Echo() *echo.Echo { return s.echo }

// Start blocks serving on addr until the process is stopped.
func (s *Server) Start(addr string) error {
	obslog.WithComponent("httpapi").Info().Str("addr", addr).Msg("http_listen")
	return s.echo.Start(addr)
}

// requestIDMiddleware stamps every request with a UUID, echoed back on the
// response and attached to the access log line, so a single download can
// be traced through logs independent of the session id it served.
func requestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(requestIDHeader, id)

			err := next(c)
			obslog.Logger.Debug().Str("request_id", id).Str("path", c.Path()).
				Int("status", c.Response().Status).Msg("http_request")
			return err
		}
	}
}

func (s *Server) healthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (s *Server) download(manager reader) echo.HandlerFunc {
	return func(c echo.Context) error {
		sessionID := c.Param("session_id")
		filename := c.Param("filename")

		result, err := manager.Read(c.Request().Context(), sessionID, filename)
		if err != nil {
			return writeError(c, err)
		}

		content, decodeErr := base64.StdEncoding.DecodeString(result.ContentBase64)
		if decodeErr != nil {
			// Manager.Read only ever produces content it encoded itself;
			// a decode failure here means Manager is broken, not the request.
			return echo.NewHTTPError(http.StatusInternalServerError, "corrupt artifact encoding")
		}

		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf(`inline; filename="%s"`, result.Filename))
		return c.Blob(http.StatusOK, result.MimeType, content)
	}
}

// statusFor maps a session error kind to the HTTP status the download
// route returns for it.
func statusFor(kind session.Kind) int {
	switch kind {
	case session.KindSessionNotFound, session.KindNotFound, session.KindInvalidPath:
		return http.StatusNotFound
	case session.KindArtifactTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c echo.Context, err *session.Error) error {
	status := statusFor(err.Kind)
	return c.JSON(status, map[string]any{
		"error": err.Kind,
		"message": err.Message,
	})
}
