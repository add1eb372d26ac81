package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"conclave/internal/council"
	"conclave/internal/logging"
	"conclave/internal/store"
)

// Server wraps the MCP SDK server and exposes the deliberation engine and
// the session store as tools over stdio.
type Server struct {
	MCPServer *sdkmcp.Server

	engine *council.Engine
	store  store.Store
}

// NewServer creates an MCP server with deliberation and session tools.
func NewServer(engine *council.Engine, st store.Store) *Server {
	s := &Server{engine: engine, store: st}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "conclave", Version: "dev"},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "deliberate",
		Description: "Run a governance gate through the council deliberation engine and return the structured verdict.",
	}, s.handleDeliberate)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_session",
		Description: "Fetch one stored deliberation result by id.",
	}, s.handleGetSession)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_sessions",
		Description: "List stored deliberation sessions, newest first, optionally filtered by gate type.",
	}, s.handleListSessions)
}

// --- Tool input/output types ---

type deliberateInput struct {
	GateType  string          `json:"gate_type" jsonschema:"gate type (strategic, risk, launch, post-mortem)"`
	Topic     string          `json:"topic" jsonschema:"the decision being deliberated"`
	Context   json.RawMessage `json:"context,omitempty" jsonschema:"opaque structured context for the council"`
	Language  string          `json:"language,omitempty" jsonschema:"ISO language code for the verdict (default en)"`
	TimeoutMS int             `json:"timeout_ms,omitempty" jsonschema:"overall deadline in milliseconds"`
}

type deliberateOutput struct {
	Result *council.DeliberationResult `json:"result"`
}

type getSessionInput struct {
	ID string `json:"id" jsonschema:"deliberation result id"`
}

type getSessionOutput struct {
	Result *council.DeliberationResult `json:"result"`
}

type sessionSummary struct {
	ID            string `json:"id"`
	GateType      string `json:"gate_type"`
	Topic         string `json:"topic"`
	Decision      string `json:"decision"`
	FallbackLevel int    `json:"fallback_level"`
	CreatedAt     string `json:"created_at"`
}

type listSessionsInput struct {
	GateType string `json:"gate_type,omitempty" jsonschema:"optional gate type filter"`
	Limit    int    `json:"limit,omitempty" jsonschema:"max sessions to return (default 50)"`
}

type listSessionsOutput struct {
	Sessions []sessionSummary `json:"sessions"`
	Total    int              `json:"total"`
}

// --- Tool handlers ---

func (s *Server) handleDeliberate(ctx context.Context, _ *sdkmcp.CallToolRequest, input deliberateInput) (*sdkmcp.CallToolResult, deliberateOutput, error) {
	logger := logging.New("mcp")

	result, err := s.engine.Deliberate(ctx, council.DeliberationRequest{
		GateType:  council.GateType(input.GateType),
		Topic:     input.Topic,
		Context:   input.Context,
		Language:  input.Language,
		TimeoutMS: input.TimeoutMS,
	})
	if err != nil {
		return nil, deliberateOutput{}, fmt.Errorf("deliberate: %w", err)
	}

	if s.store != nil {
		if err := s.store.Append(result); err != nil {
			logger.Error("failed to persist session", "id", result.ID, "error", err)
		}
	}
	logger.Info("deliberation complete",
		"id", result.ID, "gate", result.Request.GateType,
		"decision", result.Decision, "level", result.Diagnostics.FallbackLevel)

	return nil, deliberateOutput{Result: result}, nil
}

func (s *Server) handleGetSession(_ context.Context, _ *sdkmcp.CallToolRequest, input getSessionInput) (*sdkmcp.CallToolResult, getSessionOutput, error) {
	if s.store == nil {
		return nil, getSessionOutput{}, fmt.Errorf("no session store configured")
	}
	sess, err := s.store.Get(input.ID)
	if err != nil {
		return nil, getSessionOutput{}, err
	}
	return nil, getSessionOutput{Result: sess.Result}, nil
}

func (s *Server) handleListSessions(_ context.Context, _ *sdkmcp.CallToolRequest, input listSessionsInput) (*sdkmcp.CallToolResult, listSessionsOutput, error) {
	if s.store == nil {
		return nil, listSessionsOutput{}, fmt.Errorf("no session store configured")
	}

	var sessions []*store.Session
	var err error
	if input.GateType != "" {
		gate, ok := council.ParseGateType(input.GateType)
		if !ok {
			return nil, listSessionsOutput{}, fmt.Errorf("unknown gate type %q", input.GateType)
		}
		sessions, err = s.store.ListByGate(gate, input.Limit)
	} else {
		sessions, err = s.store.ListRecent(input.Limit)
	}
	if err != nil {
		return nil, listSessionsOutput{}, err
	}

	out := listSessionsOutput{Total: len(sessions)}
	for _, sess := range sessions {
		out.Sessions = append(out.Sessions, sessionSummary{
			ID:            sess.ID,
			GateType:      string(sess.GateType),
			Topic:         sess.Topic,
			Decision:      string(sess.Decision),
			FallbackLevel: int(sess.FallbackLevel),
			CreatedAt:     sess.CreatedAt,
		})
	}
	return nil, out, nil
}
