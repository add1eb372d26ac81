// Package httpapi exposes the deliberation engine over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"conclave/internal/council"
	"conclave/internal/logging"
	"conclave/internal/store"
)

// Server wires the engine and session store into a fiber application.
type Server struct {
	engine *council.Engine
	store  store.Store
	logger *slog.Logger
	app    *fiber.App
}

func NewServer(engine *council.Engine, st store.Store) *Server {
	s := &Server{
		engine: engine,
		store:  st,
		logger: logging.New("httpapi"),
	}
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Get("/healthz", s.handleHealth)
	app.Post("/api/deliberations", s.handleDeliberate)
	app.Get("/api/deliberations/:id", s.handleGet)
	app.Get("/api/deliberations", s.handleList)
	s.app = app
	return s
}

// App returns the underlying fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks serving HTTP on addr until the app is shut down.
func (s *Server) Listen(addr string) error {
	s.logger.Info("http api listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the fiber application.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

type deliberateBody struct {
	GateType  string          `json:"gate_type"`
	Topic     string          `json:"topic"`
	Context   json.RawMessage `json:"context,omitempty"`
	Language  string          `json:"language,omitempty"`
	TimeoutMS int             `json:"timeout_ms,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleDeliberate(c *fiber.Ctx) error {
	var body deliberateBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{Error: "invalid JSON body"})
	}

	req := council.DeliberationRequest{
		GateType:  council.GateType(body.GateType),
		Topic:     body.Topic,
		Context:   body.Context,
		Language:  body.Language,
		TimeoutMS: body.TimeoutMS,
	}
	result, err := s.engine.Deliberate(c.UserContext(), req)
	if err != nil {
		if errors.Is(err, council.ErrInvalidRequest) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(errorBody{Error: err.Error()})
		}
		s.logger.Error("deliberation failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(errorBody{Error: "deliberation failed"})
	}

	if err := s.store.Append(result); err != nil {
		// Persistence is best effort; the verdict still goes back to the caller.
		s.logger.Error("failed to persist session", "id", result.ID, "error", err)
	}
	return c.JSON(result)
}

func (s *Server) handleGet(c *fiber.Ctx) error {
	id := c.Params("id")
	sess, err := s.store.Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(errorBody{Error: "session not found"})
		}
		s.logger.Error("failed to load session", "id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(errorBody{Error: "failed to load session"})
	}
	return c.JSON(sess)
}

func (s *Server) handleList(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	gate := c.Query("gate")

	var (
		sessions []*store.Session
		err      error
	)
	if gate != "" {
		gt, ok := council.ParseGateType(gate)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(errorBody{Error: "unknown gate type"})
		}
		sessions, err = s.store.ListByGate(gt, limit)
	} else {
		sessions, err = s.store.ListRecent(limit)
	}
	if err != nil {
		s.logger.Error("failed to list sessions", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(errorBody{Error: "failed to list sessions"})
	}
	if sessions == nil {
		sessions = []*store.Session{}
	}
	return c.JSON(sessions)
}
