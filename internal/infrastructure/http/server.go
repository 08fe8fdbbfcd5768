package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	handlers "github.com/AnkanMisra/SettleOne/internal/adapter/handler/http"
	"github.com/AnkanMisra/SettleOne/internal/config"
	"github.com/AnkanMisra/SettleOne/internal/usecase"
)

// Services are the usecase dependencies the HTTP layer exposes.
type Services struct {
	Sessions *usecase.SessionService
	Ens      *usecase.EnsService
	Quotes   *usecase.QuoteService
}

type Server struct {
	config   *config.Config
	logger   *zap.Logger
	echo     *echo.Echo
	services Services
}

func NewServer(cfg *config.Config, logger *zap.Logger, services Services) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewRequestValidator()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE},
	}))

	return &Server{
		config:   cfg,
		logger:   logger,
		echo:     e,
		services: services,
	}
}

func (s *Server) Start() error {
	// Setup routes
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": "settleone-backend",
		})
	})

	// Prometheus metrics
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(s.services.Sessions, s.logger)
	ensHandler := handlers.NewEnsHandler(s.services.Ens, s.logger)
	quoteHandler := handlers.NewQuoteHandler(s.services.Quotes, s.logger)

	// API v1 routes
	v1 := s.echo.Group("/api/v1")

	// Session lifecycle
	sessions := v1.Group("/sessions")
	sessions.POST("", sessionHandler.CreateSession)
	sessions.GET("/:id", sessionHandler.GetSession)
	sessions.POST("/:id/payments", sessionHandler.AddPayment)
	sessions.DELETE("/:id/payments/:paymentId", sessionHandler.RemovePayment)
	sessions.POST("/:id/finalize", sessionHandler.Finalize)

	// Collaborators, invoked directly and never through the session store
	v1.GET("/ens/resolve", ensHandler.ResolveEns)
	v1.GET("/ens/lookup", ensHandler.LookupAddress)
	v1.GET("/quote", quoteHandler.GetQuote)
}
