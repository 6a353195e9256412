package usecase

import (
	"math"
	"strings"

	"agent-assist/internal/domain"
)

const (
	// contextSeparator keeps passage boundaries visible to the model.
	contextSeparator = "\n\n---\n\n"
	// maxSourceCitations caps the sources list returned to callers.
	maxSourceCitations = 10
	// previewRuneLimit caps each citation's text preview.
	previewRuneLimit = 200
)

// AssembleContext joins the ranked passage bodies into the single context
// block sent to the generation provider. Breadth control already happened
// in retrieval; no further truncation here.
func AssembleContext(passages []domain.PassageCandidate) string {
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	return strings.Join(texts, contextSeparator)
}

// BuildCitations projects the top ranked passages into caller-facing
// citations: source label, score rounded to 3 decimals, bounded preview.
func BuildCitations(passages []domain.PassageCandidate) []domain.SourceCitation {
	n := len(passages)
	if n > maxSourceCitations {
		n = maxSourceCitations
	}
	citations := make([]domain.SourceCitation, 0, n)
	for _, p := range passages[:n] {
		citations = append(citations, domain.SourceCitation{
			Source:      p.Source,
			Score:       math.Round(p.Score*1000) / 1000,
			TextPreview: preview(p.Text),
		})
	}
	return citations
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewRuneLimit {
		return text
	}
	return string(runes[:previewRuneLimit]) + "..."
}
