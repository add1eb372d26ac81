package council

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"conclave/internal/backend"
	"conclave/internal/config"
)

// fakeStructured scripts the schema-constrained fallback backend.
type fakeStructured struct {
	fakeBackend
	structMu sync.Mutex
	payload  json.RawMessage
	err      error
	schemas  []string
}

func (f *fakeStructured) CompleteStructured(ctx context.Context, req backend.CompletionRequest, schemaName string, schema json.RawMessage) (json.RawMessage, error) {
	f.structMu.Lock()
	f.schemas = append(f.schemas, schemaName)
	f.structMu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

func councilConfig(models ...string) config.CouncilConfig {
	return config.CouncilConfig{
		EnsembleModels:     models,
		FallbackModel:      "fallback/model",
		PeerRanking:        true,
		Stage1TimeoutSec:   2,
		Stage2TimeoutSec:   2,
		ChairmanTimeoutSec: 2,
		FallbackTimeoutSec: 2,
		Stage1MaxTokens:    100,
		Stage2MaxTokens:    100,
		ChairmanMaxTokens:  100,
	}
}

const goodChairmanJSON = `{
  "opinions": [
    {"persona": "Risk", "role": "Risk & Compliance Counsel", "opinion": "Risks are manageable.", "score": 72},
    {"persona": "Architecture", "role": "Principal Architect", "opinion": "Design is sound.", "score": 84},
    {"persona": "Growth", "role": "Growth Strategist", "opinion": "Clear upside.", "score": 88}
  ],
  "synthesis": "Proceed with the engagement under the stated assumptions.",
  "decision": "Approved",
  "pricing": {"currency": "EUR", "line_items": [{"label": "Build", "amount": 24000, "cadence": "One-Time"}], "assumptions": ["Scope is fixed"]}
}`

// scriptedEnsemble answers stage1 with opinions, stage2 with rankings, and
// the chairman with chairmanText.
func scriptedEnsemble(chairmanText string) *fakeBackend {
	return &fakeBackend{fn: func(req backend.CompletionRequest) (string, error) {
		switch {
		case strings.Contains(req.System, "chairman"):
			return chairmanText, nil
		case strings.Contains(req.System, "impartial evaluator"):
			return "FINAL RANKING:\n1. Response A\n2. Response B\n3. Response C", nil
		default:
			return "stage1 opinion from " + req.Model, nil
		}
	}}
}

func assertSchemaComplete(t *testing.T, r *DeliberationResult) {
	t.Helper()
	if r.ID == "" {
		t.Error("result has no id")
	}
	if len(r.Opinions) != 3 {
		t.Fatalf("opinions = %d, want exactly 3", len(r.Opinions))
	}
	for i, p := range CanonicalPersonas {
		if r.Opinions[i].Persona != p {
			t.Errorf("opinions[%d].Persona = %q, want %q", i, r.Opinions[i].Persona, p)
		}
		if r.Opinions[i].Score < 0 || r.Opinions[i].Score > 100 {
			t.Errorf("opinions[%d].Score = %d out of range", i, r.Opinions[i].Score)
		}
	}
	switch r.Decision {
	case DecisionApproved, DecisionRejected, DecisionNeedsRevision:
	default:
		t.Errorf("decision = %q, not a member of the closed set", r.Decision)
	}
	if r.CreatedAt.IsZero() {
		t.Error("createdAt not set")
	}
}

func TestDeliberate_EnsembleHappyPath(t *testing.T) {
	b := scriptedEnsemble("Preamble text.\n```json\n" + goodChairmanJSON + "\n```\nClosing remark.")
	e := NewEngine(Options{
		Council:  councilConfig("a", "b", "c"),
		Mode:     config.ModeEnsemble,
		Ensemble: b,
		Logger:   discard(),
	})

	r, err := e.Deliberate(context.Background(), strategicReq())
	if err != nil {
		t.Fatalf("Deliberate: %v", err)
	}
	assertSchemaComplete(t, r)

	if r.Decision != DecisionApproved {
		t.Errorf("decision = %q", r.Decision)
	}
	if r.Diagnostics.FallbackLevel != LevelEnsemble {
		t.Errorf("fallback level = %d, want 1", r.Diagnostics.FallbackLevel)
	}
	if len(r.Diagnostics.Stage1) != 3 {
		t.Errorf("stage1 diagnostics = %d entries", len(r.Diagnostics.Stage1))
	}
	if len(r.Diagnostics.Stage2) != 3 {
		t.Errorf("stage2 diagnostics = %d entries", len(r.Diagnostics.Stage2))
	}
	if len(r.Diagnostics.LabelMap) != 3 {
		t.Errorf("label map = %v", r.Diagnostics.LabelMap)
	}
	if len(r.Diagnostics.AggregateRanks) == 0 {
		t.Error("aggregate ranks missing")
	}
	if r.Pricing == nil || r.Pricing.Currency != "EUR" {
		t.Errorf("pricing = %+v, want EUR pricing on strategic gate", r.Pricing)
	}
	if r.ChairmanModel != "a" {
		t.Errorf("chairman = %q, want first ensemble model", r.ChairmanModel)
	}
}

func TestDeliberate_PricingStrippedOnNonStrategicGate(t *testing.T) {
	// Chairman injects pricing even though the gate is Risk.
	b := scriptedEnsemble(goodChairmanJSON)
	e := NewEngine(Options{
		Council:  councilConfig("a", "b"),
		Mode:     config.ModeEnsemble,
		Ensemble: b,
		Logger:   discard(),
	})

	req := strategicReq()
	req.GateType = GateRisk
	r, err := e.Deliberate(context.Background(), req)
	if err != nil {
		t.Fatalf("Deliberate: %v", err)
	}
	if r.Pricing != nil {
		t.Errorf("pricing = %+v, must be absent on risk gates even when injected", r.Pricing)
	}
}

func TestDeliberate_MalformedChairmanEscalatesToLevel2(t *testing.T) {
	b := scriptedEnsemble("I think the council did great work but I will not emit JSON.")
	fb := &fakeStructured{payload: json.RawMessage(goodChairmanJSON)}
	e := NewEngine(Options{
		Council:  councilConfig("a", "b"),
		Mode:     config.ModeEnsemble,
		Ensemble: b,
		Fallback: fb,
		Logger:   discard(),
	})

	r, err := e.Deliberate(context.Background(), strategicReq())
	if err != nil {
		t.Fatalf("Deliberate: %v", err)
	}
	assertSchemaComplete(t, r)
	if r.Diagnostics.FallbackLevel != LevelSingleModel {
		t.Errorf("fallback level = %d, want 2", r.Diagnostics.FallbackLevel)
	}
	if r.ChairmanModel != "fallback/model" {
		t.Errorf("chairman = %q", r.ChairmanModel)
	}
	// The discarded ensemble attempt leaves no partial diagnostics behind.
	if len(r.Diagnostics.Stage1) != 0 {
		t.Errorf("stage1 diagnostics leaked from the discarded attempt: %+v", r.Diagnostics.Stage1)
	}
	fb.structMu.Lock()
	defer fb.structMu.Unlock()
	if len(fb.schemas) != 1 || fb.schemas[0] != "council_verdict" {
		t.Errorf("structured schemas = %v", fb.schemas)
	}
}

func TestDeliberate_InsufficientEnsembleEscalates(t *testing.T) {
	b := &fakeBackend{fn: func(req backend.CompletionRequest) (string, error) {
		return "", errors.New("all models down")
	}}
	fb := &fakeStructured{payload: json.RawMessage(goodChairmanJSON)}
	e := NewEngine(Options{
		Council:  councilConfig("a", "b", "c"),
		Mode:     config.ModeEnsemble,
		Ensemble: b,
		Fallback: fb,
		Logger:   discard(),
	})

	r, err := e.Deliberate(context.Background(), strategicReq())
	if err != nil {
		t.Fatalf("Deliberate: %v", err)
	}
	if r.Diagnostics.FallbackLevel != LevelSingleModel {
		t.Errorf("fallback level = %d, want 2", r.Diagnostics.FallbackLevel)
	}
}

func TestDeliberate_Level2FailureFallsToStatic(t *testing.T) {
	b := scriptedEnsemble("no json here either")
	fb := &fakeStructured{err: errors.New("fallback gateway down")}
	e := NewEngine(Options{
		Council:  councilConfig("a", "b"),
		Mode:     config.ModeEnsemble,
		Ensemble: b,
		Fallback: fb,
		Logger:   discard(),
	})

	r, err := e.Deliberate(context.Background(), strategicReq())
	if err != nil {
		t.Fatalf("Deliberate: %v", err)
	}
	assertSchemaComplete(t, r)
	if r.Diagnostics.FallbackLevel != LevelStatic {
		t.Errorf("fallback level = %d, want 3", r.Diagnostics.FallbackLevel)
	}
	if r.Decision != DecisionNeedsRevision {
		t.Errorf("static decision = %q, want Needs Revision", r.Decision)
	}
}

func TestDeliberate_StaticModeNoNetwork(t *testing.T) {
	e := NewEngine(Options{
		Council: config.CouncilConfig{},
		Mode:    config.ModeStatic,
		Logger:  discard(),
	})

	start := time.Now()
	r, err := e.Deliberate(context.Background(), strategicReq())
	if err != nil {
		t.Fatalf("Deliberate: %v", err)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("static mode should return synchronously")
	}
	assertSchemaComplete(t, r)
	if r.Decision != DecisionNeedsRevision {
		t.Errorf("decision = %q, want Needs Revision", r.Decision)
	}
	if r.Diagnostics.FallbackLevel != LevelStatic {
		t.Errorf("fallback level = %d, want 3", r.Diagnostics.FallbackLevel)
	}
}

func TestDeliberate_StaticLocalization(t *testing.T) {
	e := NewEngine(Options{Mode: config.ModeStatic, Logger: discard()})

	req := strategicReq()
	req.Language = "de"
	r, err := e.Deliberate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(r.Synthesis, "Deliberations-Engine") {
		t.Errorf("synthesis not localized: %q", r.Synthesis)
	}

	req.Language = "xx"
	r, err = e.Deliberate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(r.Synthesis, "deliberation engine") {
		t.Errorf("unknown language should fall back to English: %q", r.Synthesis)
	}
}

func TestDeliberate_InvalidRequest(t *testing.T) {
	e := NewEngine(Options{Mode: config.ModeStatic, Logger: discard()})

	_, err := e.Deliberate(context.Background(), DeliberationRequest{GateType: GateRisk})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("missing topic: err = %v, want ErrInvalidRequest", err)
	}

	_, err = e.Deliberate(context.Background(), DeliberationRequest{GateType: "vibes", Topic: "t"})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("unknown gate: err = %v, want ErrInvalidRequest", err)
	}
}

func TestDeliberate_GateCaseInsensitive(t *testing.T) {
	e := NewEngine(Options{Mode: config.ModeStatic, Logger: discard()})
	r, err := e.Deliberate(context.Background(), DeliberationRequest{GateType: "Post-Mortem", Topic: "retro"})
	if err != nil {
		t.Fatalf("Deliberate: %v", err)
	}
	if r.Request.GateType != GatePostMortem {
		t.Errorf("gate = %q", r.Request.GateType)
	}
}

func TestDeliberate_PeerRankingDisabled(t *testing.T) {
	b := scriptedEnsemble(goodChairmanJSON)
	cfg := councilConfig("a", "b")
	cfg.PeerRanking = false
	e := NewEngine(Options{Council: cfg, Mode: config.ModeEnsemble, Ensemble: b, Logger: discard()})

	r, err := e.Deliberate(context.Background(), strategicReq())
	if err != nil {
		t.Fatalf("Deliberate: %v", err)
	}
	if len(r.Diagnostics.Stage2) != 0 || len(r.Diagnostics.AggregateRanks) != 0 {
		t.Errorf("stage2 artifacts present despite disabled flag: %+v", r.Diagnostics)
	}
	// No evaluator calls should have happened.
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, call := range b.calls {
		if strings.Contains(call.System, "impartial evaluator") {
			t.Error("stage2 call issued despite disabled flag")
		}
	}
}
