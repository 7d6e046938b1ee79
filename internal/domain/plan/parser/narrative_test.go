package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNarrativeSections(t *testing.T) {
	lines := []string{
		"META ESPECÍFICA 1",
		"Reduzir a violência contra a mulher",
		"em todo o estado",
		"Descrição do Indicador: Taxa de feminicídios",
		"por 100 mil mulheres",
		"Fórmula: (casos / população) x 100.000",
		"Meta do PESP: Reduzir em 10% Periodicidade: anual",
		"Meta do PNSP: Reduzir em 15%",
		"Carteira de Políticas do MJSP: Enfrentamento à violência",
		"Status: Em execução",
		"Item 1 Planejado",
		"Bem/Serviço: Viatura",
	}
	doc := Parse(lines)
	require.Len(t, doc.Goals, 1)
	n := doc.Goals[0].Narrative

	assert.Equal(t, "Reduzir a violência contra a mulher em todo o estado", n.GoalText)
	assert.Equal(t, "Taxa de feminicídios por 100 mil mulheres", n.IndicatorDescription)
	assert.Equal(t, "(casos / população) x 100.000", n.Formula)
	assert.Equal(t, "Reduzir em 10%", n.PESPTarget, "PESP target must be cut at the periodicity label")
	assert.Equal(t, "Reduzir em 15%", n.PNSPTarget)
	assert.Equal(t, "Enfrentamento à violência", n.PolicyPortfolio)
}

func TestNarrativeStopsAtItemsTitle(t *testing.T) {
	lines := []string{
		"META ESPECÍFICA 1",
		"Texto da meta",
		"Itens da Meta",
		"linha que não pertence à narrativa",
	}
	doc := Parse(lines)
	require.Len(t, doc.Goals, 1)
	assert.Equal(t, "Texto da meta", doc.Goals[0].Narrative.GoalText)
}

func TestNarrativeDashOnlyBlanked(t *testing.T) {
	lines := []string{
		"META ESPECÍFICA 1",
		"Descrição do Indicador: -",
		"Fórmula: ——",
		"Meta do PESP: –",
	}
	doc := Parse(lines)
	require.Len(t, doc.Goals, 1)
	n := doc.Goals[0].Narrative
	assert.Empty(t, n.IndicatorDescription)
	assert.Empty(t, n.Formula)
	assert.Empty(t, n.PESPTarget)
}

func TestNarrativeGoalWithoutProse(t *testing.T) {
	doc := Parse([]string{"META ESPECÍFICA 3", "Item 1 Planejado"})
	require.Len(t, doc.Goals, 1)
	assert.Equal(t, NarrativeSection{}, doc.Goals[0].Narrative)
}

func TestExtractGeneralGoal(t *testing.T) {
	lines := []string{
		"Meta Geral",
		"Fortalecer a segurança pública",
		"no estado",
		"Justificativa",
		"texto irrelevante",
	}
	assert.Equal(t, "Fortalecer a segurança pública no estado", extractGeneralGoal(lines))
	assert.Empty(t, extractGeneralGoal([]string{"sem meta geral"}))
}

func TestExtractGeneralIndicator(t *testing.T) {
	lines := []string{
		"Indicador Geral de Resultado",
		"Taxa de homicídios",
		"Meta Geral",
		"outro bloco",
	}
	assert.Equal(t, "Taxa de homicídios", extractGeneralIndicator(lines))
}

func TestExtractReferenceValue(t *testing.T) {
	lines := []string{
		"O indicador considera o Valor de Referência: 23,5 por 100 mil",
		"apurado em 2020",
		"META ESPECÍFICA 1",
	}
	got := extractReferenceValue(lines)
	assert.Equal(t, "Valor de Referência: 23,5 por 100 mil apurado em 2020", got)
}

func TestTrimPESPTarget(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"periodicity cutoff", "Reduzir em 10% Periodicidade: anual", "Reduzir em 10%"},
		{"source cutoff", "Meta X Fonte/Ano: SSP 2020", "Meta X"},
		{"reference cutoff", "Meta Y Valor de Referência/Fonte: 12", "Meta Y"},
		{"no cutoff", "Meta sem sufixo", "Meta sem sufixo"},
		{"dash only", "—", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, trimPESPTarget(tt.input))
		})
	}
}
