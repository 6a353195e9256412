package usecase

import "strings"

// maxProbes bounds retrieval cost regardless of which branch fires.
const maxProbes = 3

// Intent tables for query expansion. Same rule as the classifier tables:
// vocabulary changes must not touch Expand.
var (
	listingWords    = []string{"todos", "lista", "cuáles", "qué productos"}
	procedureWords  = []string{"requisitos", "cómo", "proceso", "pasos"}
	definitionWords = []string{"qué es", "define", "significa"}
)

// Expander turns one query into up to three search probes. The original
// query is always the first probe; variants target the detected intent.
type Expander struct{}

func NewExpander() *Expander {
	return &Expander{}
}

// Expand returns 1..3 probe strings, original query first.
func (e *Expander) Expand(query string) []string {
	lower := strings.ToLower(query)
	probes := []string{query}

	switch {
	case containsAny(lower, listingWords):
		probes = append(probes,
			"catálogo productos GNP seguros",
			"lista completa seguros GNP",
			query+" completo",
		)
	case strings.Contains(lower, "internacional"):
		probes = append(probes,
			"planes internacionales GMM",
			"cobertura internacional GNP",
			"Enlace Vínculo Mundial",
		)
	case containsAny(lower, procedureWords):
		probes = append(probes,
			query+" procedimiento",
			query+" documentos necesarios",
		)
	case containsAny(lower, definitionWords):
		term := strings.NewReplacer("qué es", "", "Qué es", "", "?", "", "¿", "").Replace(query)
		probes = append(probes, "definición "+strings.TrimSpace(term))
	}

	if len(probes) > maxProbes {
		probes = probes[:maxProbes]
	}
	return probes
}
