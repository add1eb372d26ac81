package council

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"conclave/internal/backend"
	"conclave/internal/config"
)

// Engine runs gate deliberations through the fallback ladder:
//
//	Level 1 — full ensemble pipeline (stage1 fan-out, optional peer ranking,
//	          chairman synthesis). Any unrecoverable failure discards the
//	          whole attempt; nothing partial is reused.
//	Level 2 — one schema-constrained call to the fallback model.
//	Level 3 — deterministic localized template, no network.
//
// Callers always receive a schema-complete result; internal stage failures
// are absorbed into ladder escalation and never surfaced. The only error a
// caller can see is ErrInvalidRequest.
type Engine struct {
	council  config.CouncilConfig
	mode     config.Mode
	ensemble backend.Backend
	fallback backend.StructuredBackend
	logger   *slog.Logger
}

// Options wires an Engine.
type Options struct {
	Council  config.CouncilConfig
	Mode     config.Mode
	Ensemble backend.Backend
	Fallback backend.StructuredBackend
	Logger   *slog.Logger
}

// NewEngine builds an Engine. Backends may be nil when the resolved mode
// does not need them.
func NewEngine(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		council:  opts.Council,
		mode:     opts.Mode,
		ensemble: opts.Ensemble,
		fallback: opts.Fallback,
		logger:   logger,
	}
}

// Deliberate runs one gate request through the ladder.
func (e *Engine) Deliberate(ctx context.Context, req DeliberationRequest) (*DeliberationResult, error) {
	gate, ok := ParseGateType(string(req.GateType))
	if !ok {
		return nil, fmt.Errorf("%w: unknown gate type %q", ErrInvalidRequest, req.GateType)
	}
	req.GateType = gate
	if strings.TrimSpace(req.Topic) == "" {
		return nil, fmt.Errorf("%w: topic is required", ErrInvalidRequest)
	}
	if req.Language == "" {
		req.Language = "en"
	}

	// Nothing configured: straight to Level 3, no network attempt.
	if e.mode == config.ModeStatic {
		return e.runStatic(req), nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.overallDeadline(req))
	defer cancel()

	if e.mode == config.ModeEnsemble && e.ensemble != nil {
		result, err := e.runEnsemble(ctx, req)
		if err == nil {
			return result, nil
		}
		e.logger.Warn("ensemble attempt discarded, escalating",
			"gate", req.GateType, "error", err)
	}

	if e.fallback != nil && e.council.FallbackModel != "" {
		result, err := e.runSingleModel(ctx, req)
		if err == nil {
			return result, nil
		}
		e.logger.Warn("single-model attempt discarded, escalating",
			"gate", req.GateType, "error", err)
	}

	return e.runStatic(req), nil
}

// overallDeadline returns the explicit request timeout, or a derived bound of
// the stage budgets plus margin when the caller supplied none.
func (e *Engine) overallDeadline(req DeliberationRequest) time.Duration {
	if req.TimeoutMS > 0 {
		return time.Duration(req.TimeoutMS) * time.Millisecond
	}
	d := e.council.Stage1Timeout() + e.council.ChairmanTimeout() + 10*time.Second
	if e.council.PeerRanking {
		d += e.council.Stage2Timeout()
	}
	return d
}

func (e *Engine) runEnsemble(ctx context.Context, req DeliberationRequest) (*DeliberationResult, error) {
	c := e.council

	opinions, err := CollectOpinions(ctx, e.ensemble, c.EnsembleModels, req,
		c.Stage1Timeout(), c.Stage1MaxTokens, e.logger)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("stage1 settled", "usable", len(opinions), "ensemble", len(c.EnsembleModels))

	labeled, labels := LabelOpinions(opinions)
	block := AnonymizedBlock(labeled)

	var rankings []PeerRanking
	var aggregates []AggregateRank
	if c.PeerRanking {
		rankings = CollectRankings(ctx, e.ensemble, c.EnsembleModels, req, block,
			c.Stage2Timeout(), c.Stage2MaxTokens, e.logger)
		aggregates = AggregateRanks(rankings, labels)
		e.logger.Debug("stage2 settled", "rankings", len(rankings), "aggregated_labels", len(aggregates))
	}

	verdict, err := Synthesize(ctx, e.ensemble, c.Chairman(), req, block, rankings, aggregates,
		c.ChairmanTimeout(), c.ChairmanMaxTokens)
	if err != nil {
		return nil, err
	}

	opinionsOut, synthesis, decision, pricing := normalizeVerdict(verdict, req.GateType)
	return e.assemble(req, opinionsOut, synthesis, decision, pricing, c.Chairman(), Diagnostics{
		Stage1:         opinions,
		Stage2:         rankings,
		AggregateRanks: aggregates,
		LabelMap:       labels,
		FallbackLevel:  LevelEnsemble,
	}), nil
}

func (e *Engine) runSingleModel(ctx context.Context, req DeliberationRequest) (*DeliberationResult, error) {
	c := e.council

	prompt := buildStage1Prompt(req) +
		"\nYou are acting as the full governance council. Produce the complete verdict: three persona opinions (Risk, Architecture, Growth), a synthesis, and a decision."

	raw, err := e.fallback.CompleteStructured(ctx, backend.CompletionRequest{
		Model:       c.FallbackModel,
		System:      "You are an agency governance council issuing structured gate verdicts.",
		User:        prompt,
		MaxTokens:   c.ChairmanMaxTokens,
		Temperature: 0.2,
		Timeout:     c.FallbackTimeout(),
	}, "council_verdict", json.RawMessage(VerdictSchema))
	if err != nil {
		return nil, fmt.Errorf("single-model call: %w", err)
	}

	// The schema is provider-enforced, so the payload decodes directly; no
	// free-text extraction on this path.
	var verdict rawVerdict
	if err := json.Unmarshal(raw, &verdict); err != nil {
		return nil, fmt.Errorf("%w: structured payload: %v", ErrMalformedChairmanOutput, err)
	}

	opinionsOut, synthesis, decision, pricing := normalizeVerdict(&verdict, req.GateType)
	return e.assemble(req, opinionsOut, synthesis, decision, pricing, c.FallbackModel, Diagnostics{
		FallbackLevel: LevelSingleModel,
	}), nil
}

func (e *Engine) runStatic(req DeliberationRequest) *DeliberationResult {
	opinions, synthesis, decision := staticVerdict(req.Language)
	return e.assemble(req, opinions, synthesis, decision, nil, "", Diagnostics{
		FallbackLevel: LevelStatic,
	})
}

func (e *Engine) assemble(req DeliberationRequest, opinions []PersonaOpinion, synthesis string, decision Decision, pricing *Pricing, chairman string, diag Diagnostics) *DeliberationResult {
	return &DeliberationResult{
		ID:            uuid.NewString(),
		Request:       req,
		Opinions:      opinions,
		Synthesis:     synthesis,
		Decision:      decision,
		Pricing:       pricing,
		Diagnostics:   diag,
		ChairmanModel: chairman,
		CreatedAt:     time.Now().UTC(),
	}
}
