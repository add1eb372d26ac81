package council

import (
	"encoding/json"
	"strings"
	"time"
)

// GateType names the decision checkpoint being deliberated. It selects which
// persona asks apply and whether pricing is in play.
type GateType string

const (
	GateStrategic  GateType = "strategic"
	GateRisk       GateType = "risk"
	GateLaunch     GateType = "launch"
	GatePostMortem GateType = "post-mortem"
)

// ParseGateType normalizes a free-form gate string. The second return is
// false for anything outside the four known gates.
func ParseGateType(s string) (GateType, bool) {
	switch GateType(strings.ToLower(strings.TrimSpace(s))) {
	case GateStrategic:
		return GateStrategic, true
	case GateRisk:
		return GateRisk, true
	case GateLaunch:
		return GateLaunch, true
	case GatePostMortem:
		return GatePostMortem, true
	}
	return "", false
}

// Persona is one of the three canonical council voices. Free-text persona
// labels from model output are mapped onto this closed set; unrecognized
// variants are never invented.
type Persona string

const (
	PersonaRisk         Persona = "Risk"
	PersonaArchitecture Persona = "Architecture"
	PersonaGrowth       Persona = "Growth"
)

// CanonicalPersonas is the fixed persona order every result carries.
var CanonicalPersonas = [3]Persona{PersonaRisk, PersonaArchitecture, PersonaGrowth}

// Decision is the closed verdict set. Raw model text never leaks through.
type Decision string

const (
	DecisionApproved      Decision = "Approved"
	DecisionRejected      Decision = "Rejected"
	DecisionNeedsRevision Decision = "Needs Revision"
)

// DeliberationRequest is the inbound gate request.
type DeliberationRequest struct {
	GateType  GateType        `json:"gate_type"`
	Topic     string          `json:"topic"`
	Context   json.RawMessage `json:"context,omitempty"`
	Language  string          `json:"language,omitempty"`
	TimeoutMS int             `json:"timeout_ms,omitempty"`
}

// ModelOpinion is one raw Stage1 output.
type ModelOpinion struct {
	Model   string `json:"model"`
	Content string `json:"content"`
}

// LabeledOpinion pairs an anonymized label with its Stage1 content. Labels
// are stable for one invocation only and never reused across calls.
type LabeledOpinion struct {
	Label   string `json:"label"`
	Model   string `json:"model"`
	Content string `json:"content"`
}

// LabelMap records which model hides behind each label. Diagnostic only;
// it is never shown to ranking models.
type LabelMap map[string]string

// PeerRanking is one Stage2 evaluation. ParsedOrder may be partial or empty
// when the evaluator ignored the ranking protocol.
type PeerRanking struct {
	Model       string   `json:"model"`
	RawContent  string   `json:"raw_content"`
	ParsedOrder []string `json:"parsed_order"`
}

// AggregateRank is the mean ordinal position a labeled response received
// across the peer rankings that actually mentioned it.
type AggregateRank struct {
	Label         string  `json:"label"`
	Model         string  `json:"model"`
	AverageRank   float64 `json:"average_rank"`
	RankingsCount int     `json:"rankings_count"`
}

// PersonaOpinion is one canonical persona's position in the final verdict.
type PersonaOpinion struct {
	Persona Persona `json:"persona"`
	Role    string  `json:"role"`
	Opinion string  `json:"opinion"`
	Score   int     `json:"score"`
}

// Cadence classifies a pricing line item.
type Cadence string

const (
	CadenceOneTime Cadence = "One-Time"
	CadenceMonthly Cadence = "Monthly"
	CadenceUsage   Cadence = "Usage"
)

// PriceLine is one pricing line item.
type PriceLine struct {
	Label   string  `json:"label"`
	Amount  float64 `json:"amount"`
	Cadence Cadence `json:"cadence"`
	Notes   string  `json:"notes,omitempty"`
}

// PricingTotals sums line items per cadence.
type PricingTotals struct {
	OneTime float64 `json:"one_time,omitempty"`
	Monthly float64 `json:"monthly,omitempty"`
}

// Pricing is the optional commercial breakdown. Present only on Strategic
// gates, capped at six line items and six assumptions.
type Pricing struct {
	Currency    string         `json:"currency"`
	LineItems   []PriceLine    `json:"line_items"`
	Totals      *PricingTotals `json:"totals,omitempty"`
	Assumptions []string       `json:"assumptions,omitempty"`
}

// FallbackLevel records which ladder level produced a result.
type FallbackLevel int

const (
	LevelEnsemble    FallbackLevel = 1
	LevelSingleModel FallbackLevel = 2
	LevelStatic      FallbackLevel = 3
)

// Diagnostics carries the raw deliberation trail. Degraded runs simply have
// fewer fields populated; absence is the only quality signal callers see.
type Diagnostics struct {
	Stage1         []ModelOpinion  `json:"stage1,omitempty"`
	Stage2         []PeerRanking   `json:"stage2,omitempty"`
	AggregateRanks []AggregateRank `json:"aggregate_ranks,omitempty"`
	LabelMap       LabelMap        `json:"label_map,omitempty"`
	FallbackLevel  FallbackLevel   `json:"fallback_level"`
}

// DeliberationResult is the schema-complete governance verdict. Every
// fallback level produces one; opinions always holds exactly the three
// canonical personas and decision is always a member of the closed set.
type DeliberationResult struct {
	ID            string              `json:"id"`
	Request       DeliberationRequest `json:"request"`
	Opinions      []PersonaOpinion    `json:"opinions"`
	Synthesis     string              `json:"synthesis"`
	Decision      Decision            `json:"decision"`
	Pricing       *Pricing            `json:"pricing,omitempty"`
	Diagnostics   Diagnostics         `json:"diagnostics"`
	ChairmanModel string              `json:"chairman_model,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}
