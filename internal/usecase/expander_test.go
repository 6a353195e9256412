package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpander_OriginalQueryAlwaysFirst(t *testing.T) {
	e := NewExpander()

	for _, query := range []string{
		"¿cuáles son todos los productos?",
		"cobertura internacional de GMM",
		"requisitos para contratar vida",
		"¿qué es el coaseguro?",
		"pregunta sin intención detectable",
	} {
		probes := e.Expand(query)
		require.NotEmpty(t, probes, query)
		assert.Equal(t, query, probes[0], query)
		assert.LessOrEqual(t, len(probes), 3, query)
	}
}

func TestExpander_ListingIntent(t *testing.T) {
	probes := NewExpander().Expand("¿cuáles son todos los seguros que ofrecen?")

	require.Len(t, probes, 3)
	assert.Equal(t, "catálogo productos GNP seguros", probes[1])
	assert.Equal(t, "lista completa seguros GNP", probes[2])
}

func TestExpander_InternationalIntent(t *testing.T) {
	probes := NewExpander().Expand("¿tienen cobertura internacional?")

	require.Len(t, probes, 3)
	assert.Equal(t, "planes internacionales GMM", probes[1])
	assert.Equal(t, "cobertura internacional GNP", probes[2])
}

func TestExpander_ProcedureIntent(t *testing.T) {
	probes := NewExpander().Expand("requisitos para contratar un seguro de vida")

	require.Len(t, probes, 3)
	assert.Equal(t, "requisitos para contratar un seguro de vida procedimiento", probes[1])
	assert.Equal(t, "requisitos para contratar un seguro de vida documentos necesarios", probes[2])
}

func TestExpander_DefinitionIntent(t *testing.T) {
	probes := NewExpander().Expand("¿qué es el coaseguro?")

	require.Len(t, probes, 2)
	assert.Equal(t, "definición el coaseguro", probes[1])
}

func TestExpander_NoIntentReturnsOnlyOriginal(t *testing.T) {
	probes := NewExpander().Expand("háblame del seguro de hogar")

	require.Len(t, probes, 1)
}

func TestExpander_FirstMatchingBranchWins(t *testing.T) {
	// Both listing and procedure words present; listing is checked first.
	probes := NewExpander().Expand("lista de requisitos")

	require.Len(t, probes, 3)
	assert.Equal(t, "catálogo productos GNP seguros", probes[1])
}
