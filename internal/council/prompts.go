package council

import (
	"encoding/json"
	"fmt"
	"strings"
)

// maxContextBytes caps how much request context reaches the prompts.
const maxContextBytes = 4000

// verdict length caps keep chairman output (and cost) bounded. Conformance is
// enforced by the normalizer regardless of what actually comes back.
const (
	maxSynthesisChars = 1200
	maxOpinionChars   = 600
	maxPricingLines   = 6
	maxAssumptions    = 6
)

// personaForIndex assigns personas cyclically across the ensemble.
func personaForIndex(i int) Persona {
	return CanonicalPersonas[i%len(CanonicalPersonas)]
}

// personaRole is the human-readable role title per persona.
func personaRole(p Persona) string {
	switch p {
	case PersonaRisk:
		return "Risk & Compliance Counsel"
	case PersonaArchitecture:
		return "Principal Architect"
	case PersonaGrowth:
		return "Growth Strategist"
	}
	return string(p)
}

func personaSystem(p Persona, language string) string {
	var focus string
	switch p {
	case PersonaRisk:
		focus = "You scrutinize delivery risk, compliance exposure, security posture, and failure modes. You are skeptical by default and name concrete mitigations."
	case PersonaArchitecture:
		focus = "You judge technical soundness: system design, integration surface, maintainability, and operational burden. You flag accidental complexity."
	case PersonaGrowth:
		focus = "You evaluate commercial upside: revenue potential, client fit, positioning, and expansion paths. You quantify where possible."
	}
	return fmt.Sprintf(
		"You are the %s on an agency governance council deliberating a gate decision. %s Be specific and grounded in the material provided. Answer in %s.",
		personaRole(p), focus, languageName(language))
}

func gateAsk(gate GateType) string {
	switch gate {
	case GateStrategic:
		return "Assess whether the agency should commit. Include an indicative commercial breakdown: currency, up to " +
			fmt.Sprint(maxPricingLines) + " pricing line items (each labeled One-Time, Monthly, or Usage), and the assumptions behind them."
	case GateRisk:
		return "Assess the principal risks of proceeding. Name each risk, its blast radius, a mitigation, and the test plan that would surface it early."
	default:
		return "Assess strengths, weaknesses, and open questions, and state whether you would proceed as-is, proceed with changes, or hold."
	}
}

func buildStage1Prompt(req DeliberationRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Gate: %s\nTopic: %s\n", req.GateType, req.Topic)
	if ctx := truncatedContext(req.Context); ctx != "" {
		fmt.Fprintf(&b, "\nContext:\n%s\n", ctx)
	}
	fmt.Fprintf(&b, "\n%s\n", gateAsk(req.GateType))
	return b.String()
}

func buildStage2Prompt(req DeliberationRequest, block string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Several anonymous council members answered the following gate question.\n")
	fmt.Fprintf(&b, "Gate: %s\nTopic: %s\n\n", req.GateType, req.Topic)
	b.WriteString("Evaluate each response for rigor, feasibility, and usefulness to a go/no-go decision. Then emit a line that reads exactly \"FINAL RANKING:\" followed by a numbered best-to-worst list containing only the response labels, one per line, e.g.:\n\nFINAL RANKING:\n1. Response B\n2. Response A\n\nResponses:\n\n")
	b.WriteString(block)
	return b.String()
}

func buildChairmanPrompt(req DeliberationRequest, block string, rankings []PeerRanking, aggregates []AggregateRank) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You chair an agency governance council. Synthesize the deliberation below into a final verdict for this gate.\n\n")
	fmt.Fprintf(&b, "Gate: %s\nTopic: %s\n", req.GateType, req.Topic)
	if ctx := truncatedContext(req.Context); ctx != "" {
		fmt.Fprintf(&b, "\nContext:\n%s\n", ctx)
	}

	fmt.Fprintf(&b, "\n--- Council responses (anonymized) ---\n%s", block)

	if len(rankings) > 0 {
		b.WriteString("--- Peer evaluations ---\n")
		for i, r := range rankings {
			fmt.Fprintf(&b, "Evaluator %d:\n%s\n\n", i+1, r.RawContent)
		}
	}
	if len(aggregates) > 0 {
		if agg, err := json.Marshal(aggregates); err == nil {
			fmt.Fprintf(&b, "--- Aggregate rankings ---\n%s\n\n", agg)
		}
	}

	fmt.Fprintf(&b, `--- Instructions ---
Respond with ONLY a JSON object. No markdown fences, no commentary before or after. The object must have exactly these fields:

  "opinions": exactly 3 entries, personas "Risk", "Architecture", "Growth", each {"persona", "role", "opinion" (max %d chars), "score" (0-100)}
  "synthesis": overall assessment, max %d chars, in %s
  "decision": exactly one of "Approved", "Rejected", "Needs Revision"
`, maxOpinionChars, maxSynthesisChars, languageName(req.Language))

	if req.GateType == GateStrategic {
		fmt.Fprintf(&b, `  "pricing": optional, {"currency", "line_items" (max %d, each {"label", "amount", "cadence" one of "One-Time"/"Monthly"/"Usage", "notes"}), "assumptions" (max %d strings)}
`, maxPricingLines, maxAssumptions)
	}
	return b.String()
}

// truncatedContext renders the opaque request context, hard-capped by bytes.
func truncatedContext(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	s := string(raw)
	if len(s) > maxContextBytes {
		s = s[:maxContextBytes] + "\n... (context truncated)"
	}
	return s
}

func languageName(code string) string {
	switch strings.ToLower(code) {
	case "de":
		return "German"
	case "es":
		return "Spanish"
	case "fr":
		return "French"
	default:
		return "English"
	}
}

// VerdictSchema is the JSON schema enforced server-side on the single-model
// fallback path. It mirrors what the chairman prompt asks for in free text.
const VerdictSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["opinions", "synthesis", "decision"],
  "properties": {
    "opinions": {
      "type": "array",
      "minItems": 3,
      "maxItems": 3,
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["persona", "role", "opinion", "score"],
        "properties": {
          "persona": {"type": "string", "enum": ["Risk", "Architecture", "Growth"]},
          "role": {"type": "string"},
          "opinion": {"type": "string"},
          "score": {"type": "number"}
        }
      }
    },
    "synthesis": {"type": "string"},
    "decision": {"type": "string", "enum": ["Approved", "Rejected", "Needs Revision"]},
    "pricing": {
      "type": ["object", "null"],
      "additionalProperties": false,
      "properties": {
        "currency": {"type": "string"},
        "line_items": {
          "type": "array",
          "maxItems": 6,
          "items": {
            "type": "object",
            "additionalProperties": false,
            "required": ["label", "amount", "cadence"],
            "properties": {
              "label": {"type": "string"},
              "amount": {"type": "number"},
              "cadence": {"type": "string", "enum": ["One-Time", "Monthly", "Usage"]},
              "notes": {"type": "string"}
            }
          }
        },
        "assumptions": {"type": "array", "maxItems": 6, "items": {"type": "string"}}
      }
    }
  }
}`
