// Package api serves farm guru over HTTP: the topic catalog, chat sessions
// that stream replies as newline-delimited JSON, and an MCP endpoint exposing
// the catalog to model clients.
package api

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/papercomputeco/farmguru/pkg/chat"
	"github.com/papercomputeco/farmguru/pkg/content"
	"github.com/papercomputeco/farmguru/pkg/llm"
)

// Server is the farm guru HTTP API. Sessions live in memory for the lifetime
// of the process.
type Server struct {
	config    Config
	manager   atomic.Pointer[chat.Manager]
	store     *chat.Store
	navigator *content.Navigator
	limiter   *clientLimiter
	logger    *zap.Logger
	server    *fiber.App
}

// NewServer creates a new Server.
func NewServer(config Config, manager *chat.Manager, navigator *content.Navigator, logger *zap.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
	})

	s := &Server{
		config:    config,
		store:     chat.NewStore(),
		navigator: navigator,
		limiter:   newClientLimiter(config.RateLimit, config.Burst),
		logger:    logger,
		server:    app,
	}
	s.manager.Store(manager)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	// Topic catalog
	app.Get("/topics", s.handleListTopics)
	app.Get("/topics/:key", s.handleGetTopic)
	app.Get("/topics/:key/:section", s.handleGetSection)

	// Chat sessions
	app.Post("/sessions", s.handleCreateSession)
	app.Get("/sessions/:id", s.handleGetSession)
	app.Delete("/sessions/:id", s.handleDeleteSession)
	app.Post("/sessions/:id/messages", s.handlePostMessage)

	// Model Context Protocol
	mcpServer := newMCPServer(navigator, config.Version)
	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return mcpServer
	}, &mcp.StreamableHTTPOptions{
		Stateless:    true,
		JSONResponse: true,
	})
	app.All("/mcp", adaptor.HTTPHandler(mcpHandler))

	return s, nil
}

// SetManager replaces the manager used for new sessions and messages.
// Sessions keep the chat configuration they were initialized with.
func (s *Server) SetManager(manager *chat.Manager) {
	s.manager.Store(manager)
	s.logger.Info("chat configuration updated",
		zap.String("provider", manager.Config().Provider),
		zap.String("model", manager.Config().Model),
	)
}

// Run starts the server on the configured listening address.
func (s *Server) Run() error {
	s.logger.Info("starting api server",
		zap.String("listen", s.config.ListenAddr),
		zap.String("model", s.manager.Load().Config().Model),
	)

	return s.server.Listen(s.config.ListenAddr)
}

// RunWithListener starts the server on an existing listener.
func (s *Server) RunWithListener(ln net.Listener) error {
	s.logger.Info("starting api server", zap.String("listen", ln.Addr().String()))

	return s.server.Listener(ln)
}

// Shutdown ends every session, which settles streaming replies with an error
// event, then stops accepting connections and waits for open requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.store.CloseAll()
	err := s.server.ShutdownWithContext(ctx)

	// Sessions created while the listener was closing
	s.store.CloseAll()
	return err
}

// Close ends every session immediately.
func (s *Server) Close() error {
	s.store.CloseAll()
	return nil
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(llm.ErrorResponse{Error: msg})
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
