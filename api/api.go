package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/response"
)

// bodyLimit caps request bodies; webhook payloads are well under this
const bodyLimit = 1 * 1024 * 1024

type APIServer struct {
	app           *fiber.App
	listenAddress string
	logger        *slog.Logger
}

// NewAPIServer creates the fiber app. exposeErrors adds internal error
// details to 5xx responses and must be false in production.
func NewAPIServer(listenAddress string, logger *slog.Logger, exposeErrors bool) *APIServer {
	app := fiber.New(fiber.Config{
		AppName:               "skillnestx-api",
		ErrorHandler:          response.ErrorHandler(logger, exposeErrors),
		BodyLimit:             bodyLimit,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           60 * time.Second,
		DisableStartupMessage: true,
	})
	return &APIServer{
		app:           app,
		listenAddress: listenAddress,
		logger:        logger,
	}
}

func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

// Run blocks until the listener fails or Shutdown is called
func (s *APIServer) Run() error {
	s.logger.Info("starting API server", "address", s.listenAddress)
	return s.app.Listen(s.listenAddress)
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *APIServer) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.app.ShutdownWithContext(ctx)
}
