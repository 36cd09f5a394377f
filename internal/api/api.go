// Package api serves the state of the nldgram channels over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/scitags/nldgram/metrics"
)

type Server struct {
	server *echo.Echo

	conf     Config
	channels []Channel
}

// New builds the server. A nil registry disables /metrics.
func New(conf *Config, reg *prometheus.Registry, channels ...Channel) *Server {
	s := &Server{conf: DefaultConfig, channels: channels}
	if conf != nil {
		s.conf = *conf
	}

	s.server = echo.New()

	// Prevent the banner from showing up in the log
	s.server.HideBanner = true
	s.server.HidePort = true

	// Configure the middleware for extending the context of the
	// different handlers before any route is added so that every
	// handler sees it.
	s.server.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(&extendedContext{c, s.server.Routes(), s.channels})
		}
	})

	// Configure the methods for each path
	s.server.GET("/", handleRoot)
	s.server.GET("/channels", handleChannels)
	if reg != nil {
		s.server.GET("/metrics", echo.WrapHandler(metrics.Handler(reg)))
	}

	return s
}

func (s *Server) String() string {
	return "api"
}

func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.conf.BindAddress, s.conf.BindPort)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server
}

// Start listens in the background until Shutdown is called.
func (s *Server) Start() {
	slog.Debug("starting the api server", "addr", s.Addr())

	go func() {
		if err := s.server.Start(s.Addr()); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("couldn't start the API server", "err", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	slog.Debug("shutting down the api server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down the API server: %w", err)
	}
	return nil
}
