package api

import (
	"log/slog"
	"net"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/ragdesk/pkg/logger"
)

const defaultMaxSources = 3

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server is the development document service.
type Server struct {
	config    Config
	store     *store
	directory *directory
	logger    *slog.Logger
	app       *fiber.App
}

// NewServer creates a new API server and indexes the PDFs in
// config.DocsDir. PDFs that cannot be parsed are logged and skipped.
func NewServer(config Config) (*Server, error) {
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}
	if config.Extract == nil {
		config.Extract = extractPDF
	}
	if config.MaxSources <= 0 {
		config.MaxSources = defaultMaxSources
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:    config,
		store:     newStore(config.DocsDir, config.Extract),
		directory: newDirectory(),
		logger:    config.Logger,
		app:       app,
	}

	loaded, skipped, err := s.store.load()
	if err != nil {
		return nil, err
	}
	for _, err := range skipped {
		s.logger.Warn("skipping document", "error", err)
	}
	s.logger.Info("documents indexed",
		"dir", config.DocsDir,
		"count", loaded,
	)

	app.Get("/ping", s.handlePing)
	app.Get("/files/:id", s.handleFile)

	api := app.Group("/api", s.requireToken)
	api.Get("/tenants", s.handleListTenants)
	api.Post("/tenants", s.handleCreateTenant)
	api.Delete("/tenants/:id", s.handleDeleteTenant)
	api.Get("/tenants/:tenant/users", s.handleListUsers)
	api.Post("/tenants/:tenant/users", s.handleCreateUser)
	api.Delete("/tenants/:tenant/users/:id", s.handleDeleteUser)
	api.Get("/documents", s.handleListDocuments)
	api.Post("/documents", s.handleUploadDocument)
	api.Get("/documents/:id/file", s.handleFileInfo)
	api.Post("/documents/:id/query", s.handleQuery)

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Serve runs the API server on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting API server",
		"listen", ln.Addr().String(),
	)
	return s.app.Listener(ln)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// requireToken rejects /api requests without the configured bearer token.
func (s *Server) requireToken(c *fiber.Ctx) error {
	if s.config.Token == "" {
		return c.Next()
	}

	token, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	if !ok || token != s.config.Token {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: "invalid or missing token"})
	}
	return c.Next()
}
