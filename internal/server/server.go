// Package server exposes meme composition over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/nickhildebrandt/memegen/internal/compose"
)

// Composer is the part of compose.Composer the API needs.
type Composer interface {
	Compose(ctx context.Context, req compose.Request) compose.Result
	OutputDir() string
	CaptionsReady() bool
}

// Options wires a Server. Composer is required.
type Options struct {
	Composer Composer
	Logger   *slog.Logger
	// Pick returns a random index in [0, n) for the random endpoint. Defaults to math/rand/v2.
	Pick func(n int) int
	Now  func() time.Time
}

// Server holds the echo instance and the collaborators its handlers use.
type Server struct {
	echo     *echo.Echo
	composer Composer
	logger   *slog.Logger
	pick     func(n int) int
	now      func() time.Time
}

// New builds the router with CORS, panic recovery and request logging.
func New(opts Options) (*Server, error) {
	if opts.Composer == nil {
		return nil, fmt.Errorf("server: composer is nil")
	}
	s := &Server{
		echo:     echo.New(),
		composer: opts.Composer,
		logger:   opts.Logger,
		pick:     opts.Pick,
		now:      opts.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			s.logger.ErrorContext(c.Request().Context(), "panic recovered",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"error", err,
				"stack", string(stack))
			return err
		},
	}))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			s.logger.LogAttrs(c.Request().Context(), level, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency))
			return nil
		},
	}))

	s.routes()
	return s, nil
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on addr until Shutdown is called. A clean shutdown returns nil.
func (s *Server) Start(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

type errorBody struct {
	Error string `json:"error"`
}

// handleError renders every unhandled error as a JSON object. Internal details never reach the client.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := "Internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
		code = he.Code
		msg = fmt.Sprint(he.Message)
		if code == http.StatusNotFound {
			msg = "Endpoint not found"
		}
	}
	if code >= http.StatusInternalServerError {
		s.logger.ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, errorBody{Error: msg})
	}
	if err != nil {
		s.logger.Error("write error response", "error", err)
	}
}
