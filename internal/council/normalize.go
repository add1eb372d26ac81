package council

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// rawVerdict is the untrusted shape the chairman (or the structured
// fallback) returns. Every field is repaired or defaulted on the way into
// DeliberationResult; nothing here is trusted to conform.
type rawVerdict struct {
	Opinions  []rawOpinion `json:"opinions"`
	Synthesis string       `json:"synthesis"`
	Decision  string       `json:"decision"`
	Pricing   *rawPricing  `json:"pricing"`
}

type rawOpinion struct {
	Persona string          `json:"persona"`
	Theme   string          `json:"theme"` // some models answer with "theme" instead
	Role    string          `json:"role"`
	Opinion string          `json:"opinion"`
	Score   json.RawMessage `json:"score"`
}

type rawPricing struct {
	Currency    string         `json:"currency"`
	LineItems   []rawPriceLine `json:"line_items"`
	Totals      *PricingTotals `json:"totals"`
	Assumptions []string       `json:"assumptions"`
}

type rawPriceLine struct {
	Label   string          `json:"label"`
	Amount  json.RawMessage `json:"amount"`
	Cadence string          `json:"cadence"`
	Notes   string          `json:"notes"`
}

// NormalizeDecision maps free verdict text onto the closed decision set.
// Exact matches pass through; otherwise case-insensitive "approve"/"reject"
// substrings decide; everything else is Needs Revision. The default never
// guesses approval.
func NormalizeDecision(s string) Decision {
	switch Decision(strings.TrimSpace(s)) {
	case DecisionApproved:
		return DecisionApproved
	case DecisionRejected:
		return DecisionRejected
	case DecisionNeedsRevision:
		return DecisionNeedsRevision
	}
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "approve"):
		return DecisionApproved
	case strings.Contains(lower, "reject"):
		return DecisionRejected
	default:
		return DecisionNeedsRevision
	}
}

// CanonicalPersona maps a free-text persona or theme label onto the closed
// persona set via prefix rules. The second return is false for unrecognized
// labels; new persona variants are never invented.
func CanonicalPersona(s string) (Persona, bool) {
	label := strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(label, "risk"), strings.HasPrefix(label, "security"):
		return PersonaRisk, true
	case strings.HasPrefix(label, "arch"):
		return PersonaArchitecture, true
	case strings.HasPrefix(label, "growth"), strings.HasPrefix(label, "revenue"):
		return PersonaGrowth, true
	}
	return "", false
}

// defaultScore applies when a score is absent or non-finite; synthScore is
// the conservative score for persona opinions the model omitted entirely.
const (
	defaultScore = 80
	synthScore   = 75
)

// normalizeScore parses an untrusted score value (number, quoted number, or
// garbage), defaults non-finite input to defaultScore, clamps to [0,100],
// and rounds to an integer.
func normalizeScore(raw json.RawMessage) int {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		f = defaultScore
	}
	if f < 0 {
		f = 0
	}
	if f > 100 {
		f = 100
	}
	return int(math.Round(f))
}

// normalizeOpinions enforces the exactly-three-personas contract: free-text
// labels are canonicalized, first occurrence per persona wins, and any
// canonical persona the model omitted gets a conservative synthesized
// opinion. The contract holds even under fully malformed model output.
func normalizeOpinions(raw []rawOpinion) []PersonaOpinion {
	byPersona := make(map[Persona]PersonaOpinion, len(CanonicalPersonas))
	for _, ro := range raw {
		label := ro.Persona
		if label == "" {
			label = ro.Theme
		}
		p, ok := CanonicalPersona(label)
		if !ok {
			continue
		}
		if _, exists := byPersona[p]; exists {
			continue
		}
		role := ro.Role
		if role == "" {
			role = personaRole(p)
		}
		byPersona[p] = PersonaOpinion{
			Persona: p,
			Role:    role,
			Opinion: clampText(ro.Opinion, maxOpinionChars),
			Score:   normalizeScore(ro.Score),
		}
	}

	out := make([]PersonaOpinion, 0, len(CanonicalPersonas))
	for _, p := range CanonicalPersonas {
		if op, ok := byPersona[p]; ok {
			out = append(out, op)
			continue
		}
		out = append(out, PersonaOpinion{
			Persona: p,
			Role:    personaRole(p),
			Opinion: "No position was recorded for this perspective; treat open questions here as unresolved.",
			Score:   synthScore,
		})
	}
	return out
}

// normalizePricing gates and repairs the pricing block. Non-Strategic gates
// never carry pricing, even when the model volunteers one. Line items and
// assumptions are capped; unknown cadences default to One-Time.
func normalizePricing(raw *rawPricing, gate GateType) *Pricing {
	if raw == nil || gate != GateStrategic {
		return nil
	}

	p := &Pricing{Currency: raw.Currency, Totals: raw.Totals}
	if p.Currency == "" {
		p.Currency = "EUR"
	}

	for _, li := range raw.LineItems {
		if len(p.LineItems) == maxPricingLines {
			break
		}
		p.LineItems = append(p.LineItems, PriceLine{
			Label:   li.Label,
			Amount:  parseAmount(li.Amount),
			Cadence: normalizeCadence(li.Cadence),
			Notes:   li.Notes,
		})
	}
	if len(raw.Assumptions) > maxAssumptions {
		p.Assumptions = raw.Assumptions[:maxAssumptions]
	} else {
		p.Assumptions = raw.Assumptions
	}
	return p
}

func normalizeCadence(s string) Cadence {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "-")) {
	case "monthly", "per-month", "recurring":
		return CadenceMonthly
	case "usage", "per-use", "metered":
		return CadenceUsage
	default:
		return CadenceOneTime
	}
}

func parseAmount(raw json.RawMessage) float64 {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func clampText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// normalizeVerdict turns an untrusted raw verdict into the schema-complete
// pieces of a result.
func normalizeVerdict(raw *rawVerdict, gate GateType) ([]PersonaOpinion, string, Decision, *Pricing) {
	return normalizeOpinions(raw.Opinions),
		clampText(raw.Synthesis, maxSynthesisChars),
		NormalizeDecision(raw.Decision),
		normalizePricing(raw.Pricing, gate)
}
