package usecase

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agent-assist/internal/domain"
)

func TestAssembleContext_JoinsWithSeparator(t *testing.T) {
	passages := []domain.PassageCandidate{
		{Text: "Primer pasaje."},
		{Text: "Segundo pasaje."},
		{Text: "Tercer pasaje."},
	}

	got := AssembleContext(passages)

	assert.Equal(t, "Primer pasaje.\n\n---\n\nSegundo pasaje.\n\n---\n\nTercer pasaje.", got)
}

func TestAssembleContext_Empty(t *testing.T) {
	assert.Equal(t, "", AssembleContext(nil))
}

func TestAssembleContext_SinglePassageNoSeparator(t *testing.T) {
	got := AssembleContext([]domain.PassageCandidate{{Text: "Único pasaje."}})

	assert.Equal(t, "Único pasaje.", got)
	assert.NotContains(t, got, "---")
}

func TestBuildCitations_CapsAtTen(t *testing.T) {
	passages := make([]domain.PassageCandidate, 14)
	for i := range passages {
		passages[i] = domain.PassageCandidate{
			Source: fmt.Sprintf("Manual %d", i),
			Score:  0.9 - float64(i)*0.01,
			Text:   "texto",
		}
	}

	citations := BuildCitations(passages)

	require.Len(t, citations, 10)
	assert.Equal(t, "Manual 0", citations[0].Source)
	assert.Equal(t, "Manual 9", citations[9].Source)
}

func TestBuildCitations_RoundsScoresToThreeDecimals(t *testing.T) {
	citations := BuildCitations([]domain.PassageCandidate{
		{Source: "Manual GMM", Score: 0.87654321, Text: "texto"},
		{Source: "Manual Vida", Score: 0.5, Text: "texto"},
	})

	require.Len(t, citations, 2)
	assert.Equal(t, 0.877, citations[0].Score)
	assert.Equal(t, 0.5, citations[1].Score)
}

func TestBuildCitations_TruncatesPreviewByRunes(t *testing.T) {
	// Multibyte text: rune-based truncation must not split characters.
	long := strings.Repeat("ñ", 250)
	citations := BuildCitations([]domain.PassageCandidate{
		{Source: "Manual GMM", Score: 0.8, Text: long},
	})

	require.Len(t, citations, 1)
	preview := citations[0].TextPreview
	assert.True(t, strings.HasSuffix(preview, "..."))
	assert.Equal(t, 203, utf8.RuneCountInString(preview))
	assert.True(t, utf8.ValidString(preview))
}

func TestBuildCitations_ShortTextKeptVerbatim(t *testing.T) {
	citations := BuildCitations([]domain.PassageCandidate{
		{Source: "Manual GMM", Score: 0.8, Text: "Texto corto."},
	})

	require.Len(t, citations, 1)
	assert.Equal(t, "Texto corto.", citations[0].TextPreview)
}

func TestBuildSystemPrompt_AppendsContext(t *testing.T) {
	prompt := BuildSystemPrompt("pasaje uno\n\n---\n\npasaje dos")

	assert.Contains(t, prompt, "CONTEXTO DE LOS MANUALES:")
	assert.Contains(t, prompt, "pasaje dos")
}

func TestBuildSystemPrompt_NoContextNoSection(t *testing.T) {
	prompt := BuildSystemPrompt("")

	assert.NotContains(t, prompt, "CONTEXTO DE LOS MANUALES:")
	assert.NotEmpty(t, prompt)
}
