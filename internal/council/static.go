package council

import "strings"

// staticText holds the deterministic Level-3 template per language.
type staticText struct {
	synthesis string
	risk      string
	arch      string
	growth    string
}

// Static fallback copy. Conservative on purpose: the decision is always
// Needs Revision because no model examined the material.
var staticTexts = map[string]staticText{
	"en": {
		synthesis: "The deliberation engine could not reach any model backend, so this gate was not substantively reviewed. The request is returned for resubmission once deliberation capacity is restored; do not treat this verdict as an assessment of the proposal itself.",
		risk:      "No automated risk review was performed. Until one runs, treat all compliance, security, and delivery risks as unexamined.",
		arch:      "No architectural review was performed. Technical scope and integration surface remain unvalidated.",
		growth:    "No commercial review was performed. Revenue and positioning claims remain unvalidated.",
	},
	"es": {
		synthesis: "El motor de deliberación no pudo contactar ningún modelo, por lo que esta decisión no fue revisada en detalle. Reenvíe la solicitud cuando la capacidad de deliberación esté restaurada; no interprete este veredicto como una evaluación de la propuesta.",
		risk:      "No se realizó ninguna revisión automática de riesgos. Considere sin examinar todos los riesgos de cumplimiento, seguridad y entrega.",
		arch:      "No se realizó ninguna revisión de arquitectura. El alcance técnico sigue sin validar.",
		growth:    "No se realizó ninguna revisión comercial. Las proyecciones de ingresos siguen sin validar.",
	},
	"de": {
		synthesis: "Die Deliberations-Engine konnte kein Modell-Backend erreichen; dieses Gate wurde daher nicht inhaltlich geprüft. Bitte reichen Sie die Anfrage erneut ein, sobald die Kapazität wiederhergestellt ist; dieses Urteil ist keine Bewertung des Vorhabens selbst.",
		risk:      "Es fand keine automatische Risikoprüfung statt. Compliance-, Sicherheits- und Lieferrisiken gelten als ungeprüft.",
		arch:      "Es fand keine Architekturprüfung statt. Technischer Umfang und Integrationsfläche sind nicht validiert.",
		growth:    "Es fand keine kommerzielle Prüfung statt. Umsatz- und Positionierungsannahmen sind nicht validiert.",
	},
	"fr": {
		synthesis: "Le moteur de délibération n'a pu joindre aucun backend de modèle ; cette décision n'a donc pas été examinée sur le fond. Soumettez à nouveau la demande une fois la capacité rétablie ; ce verdict n'est pas une évaluation de la proposition elle-même.",
		risk:      "Aucune revue automatique des risques n'a été effectuée. Considérez tous les risques comme non examinés.",
		arch:      "Aucune revue d'architecture n'a été effectuée. Le périmètre technique reste non validé.",
		growth:    "Aucune revue commerciale n'a été effectuée. Les projections de revenus restent non validées.",
	},
}

// staticVerdict builds the Level-3 deterministic result pieces for the
// requested language, falling back to English for unknown codes.
func staticVerdict(language string) ([]PersonaOpinion, string, Decision) {
	text, ok := staticTexts[strings.ToLower(language)]
	if !ok {
		text = staticTexts["en"]
	}
	opinions := []PersonaOpinion{
		{Persona: PersonaRisk, Role: personaRole(PersonaRisk), Opinion: text.risk, Score: 75},
		{Persona: PersonaArchitecture, Role: personaRole(PersonaArchitecture), Opinion: text.arch, Score: 70},
		{Persona: PersonaGrowth, Role: personaRole(PersonaGrowth), Opinion: text.growth, Score: 72},
	}
	return opinions, text.synthesis, DecisionNeedsRevision
}
