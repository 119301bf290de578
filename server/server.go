package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/hupe1980/lyceum"
	"github.com/hupe1980/lyceum/logging"
)

// Options configures a Server.
type Options struct {
	Port      string
	BodyLimit int
	Logger    logging.Logger
}

// Server hosts the HTTP API.
type Server struct {
	app    *fiber.App
	opts   Options
	logger logging.Logger
}

// New builds the fiber app and registers every route.
func New(lyc *lyceum.Lyceum, optFns ...func(o *Options)) *Server {
	opts := Options{
		Port:      "8080",
		BodyLimit: 8 * 1024 * 1024,
		Logger:    logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	logger := logging.WithComponent(opts.Logger, "server")

	app := fiber.New(fiber.Config{
		AppName:               "lyceum",
		BodyLimit:             opts.BodyLimit,
		ErrorHandler:          ErrorHandler(logger),
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New())

	api := app.Group("/api/v1")
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(SuccessResponse("ok", fiber.Map{"provider": lyc.Gateway().Info().Provider, "ready": lyc.Gateway().Ready() == nil}))
	})

	newPersonaController(lyc).RegisterRoutes(api)
	newForumController(lyc, logger).RegisterRoutes(api)

	return &Server{app: app, opts: opts, logger: logger}
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App { return s.app }

// Run listens on the configured port until Shutdown.
func (s *Server) Run() error {
	s.logger.Info("Server listening", "port", s.opts.Port)
	return s.app.Listen(":" + s.opts.Port)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
