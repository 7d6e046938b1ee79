package excel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcospaullo18mp-del/Preenche-Planilhas/internal/domain/plan/parser"
)

func TestReplaceTokenSegment(t *testing.T) {
	base := "Avaliação: 6*valor\nantigo6* conforme o plano."
	assert.Equal(t, "Avaliação: novo conforme o plano.",
		ReplaceTokenSegment(base, "6*", "novo"))
	assert.Equal(t, base, ReplaceTokenSegment(base, "7*", "novo"),
		"absent token leaves the base untouched")
	assert.Equal(t, "a  b", ReplaceTokenSegment("a 5*x5* b", "5*", ""))
}

func TestSpliceReference(t *testing.T) {
	base := "Texto de análise. A referência informada foi:\nR$ 100,00 e o restante."
	got := SpliceReference(base, "R$ 250,00")
	assert.Equal(t, "Texto de análise. A referência informada foi:\n\n\n\nR$ 250,00", got)

	assert.Equal(t, base, SpliceReference(base, ""), "empty value is a no-op")
	assert.Equal(t, "R$ 9,00", SpliceReference("sem marcador", "R$ 9,00"))
}

func TestSpliceTarget(t *testing.T) {
	base := "Avaliação. A Meta informada foi:\nmeta antiga\n\nExiste aderência à meta estadual."
	got := SpliceTarget(base, markerTarget, "Reduzir em 10% os CVLI")
	assert.Equal(t,
		"Avaliação. A Meta informada foi:\n\n\n\nReduzir em 10% os CVLI\n\n\n\nExiste aderência à meta estadual.",
		got)

	noSuffix := "A Meta informada foi: antiga"
	assert.Equal(t, "A Meta informada foi:\n\n\n\nnova", SpliceTarget(noSuffix, markerTarget, "nova"))
	assert.Equal(t, base, SpliceTarget(base, markerTarget, ""))
	assert.Equal(t, "nova", SpliceTarget("sem marcador", markerTarget, "nova"))
}

func TestSpliceIndicator(t *testing.T) {
	base := "Descrição do Indicador:\nantiga\n\nFórmula:\nantiga\n\nO indicador permite aferição objetiva."
	got := SpliceIndicator(base, "Taxa de CVLI", "CVLI / população x 100 mil")
	assert.Equal(t,
		"Descrição do Indicador:\nTaxa de CVLI\n\nFórmula:\nCVLI / população x 100 mil\n\nO indicador permite aferição objetiva.",
		got)

	assert.Equal(t, base, SpliceIndicator(base, "", ""), "both values empty keeps the base")

	fresh := SpliceIndicator("texto sem marcadores", "desc", "form")
	assert.Equal(t, "Descrição do Indicador: desc\n\nFórmula: form", fresh)

	onlyDesc := SpliceIndicator("texto sem marcadores", "desc", "")
	assert.Equal(t, "Descrição do Indicador: desc", onlyDesc)
}

func narrativeDocument() *parser.Document {
	return &parser.Document{
		Signature:        parser.PlanSignature{Sigla: "ECV", Year: 2021},
		GeneralGoal:      "Reduzir os índices de criminalidade violenta",
		GeneralIndicator: "Taxa de CVLI por 100 mil habitantes",
		ReferenceValue:   "R$ 1.000.000,00",
		Goals: []parser.Goal{
			{
				Number: 1,
				Narrative: parser.NarrativeSection{
					GoalText:             "1 - Aparelhar as unidades operacionais",
					IndicatorDescription: "Percentual de unidades aparelhadas",
					Formula:              "unidades aparelhadas / total x 100",
					PESPTarget:           "Meta estadual de aparelhamento",
					PNSPTarget:           "Meta nacional de aparelhamento",
					PolicyPortfolio:      "Enfrentamento à criminalidade violenta",
				},
			},
			{
				Number: 1,
				Narrative: parser.NarrativeSection{
					GoalText:             "Capacitar os profissionais de segurança",
					IndicatorDescription: "Profissionais capacitados",
					Formula:              "capacitados / efetivo x 100",
					PESPTarget:           "Meta estadual de capacitação",
					PNSPTarget:           "Meta nacional de capacitação",
					PolicyPortfolio:      "Valorização dos profissionais",
				},
			},
		},
	}
}

func TestInjectNarrative(t *testing.T) {
	tpl := buildNarrativeTemplate(t, 1)
	doc := narrativeDocument()
	require.NoError(t, tpl.InjectNarrative(doc))

	count, err := tpl.CountBlocks()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.Equal(t, "Meta geral: Reduzir os índices de criminalidade violenta", cellValue(t, tpl, "A8"))
	assert.Equal(t, "Indicador: Taxa de CVLI por 100 mil habitantes", cellValue(t, tpl, "F10"))

	// Labels are positional even when the source numbers collide.
	assert.Equal(t, "1 - Aparelhar as unidades operacionais", cellValue(t, tpl, "A14"))
	assert.Equal(t, "2 - Capacitar os profissionais de segurança", cellValue(t, tpl, "A25"))

	assert.Contains(t, cellValue(t, tpl, "E14"), "R$ 1.000.000,00")
	assert.Contains(t, cellValue(t, tpl, "E25"), "R$ 1.000.000,00")

	f := cellValue(t, tpl, "F14")
	assert.Contains(t, f, "Percentual de unidades aparelhadas")
	assert.Contains(t, f, "unidades aparelhadas / total x 100")
	assert.Contains(t, f, "O indicador permite aferição objetiva.")

	g := cellValue(t, tpl, "G25")
	assert.Contains(t, g, "Meta estadual de capacitação")
	assert.Contains(t, g, "Existe aderência à meta estadual.")
	assert.Contains(t, cellValue(t, tpl, "H25"), "Meta nacional de capacitação")
	assert.Contains(t, cellValue(t, tpl, "I25"), "Valorização dos profissionais")
}

func TestInjectNarrativeEmptyDocument(t *testing.T) {
	tpl := buildNarrativeTemplate(t, 1)
	before := cellValue(t, tpl, "A14")
	require.NoError(t, tpl.InjectNarrative(&parser.Document{}))

	assert.Equal(t, before, cellValue(t, tpl, "A14"), "no goals leaves the block region alone")
	assert.Equal(t, "Meta geral: ", cellValue(t, tpl, "A8"),
		"empty general goal clears the placeholder span")
}

func TestInjectNarrativeWithoutTokens(t *testing.T) {
	tpl := buildNarrativeTemplate(t, 1)
	setCell(t, tpl, "A8", "Meta geral sem token")
	doc := narrativeDocument()
	doc.Goals = doc.Goals[:1]
	require.NoError(t, tpl.InjectNarrative(doc))

	assert.Equal(t, doc.GeneralGoal, cellValue(t, tpl, "A8"),
		"tokenless document cell takes the raw value")
	assert.Equal(t, "1 - Aparelhar as unidades operacionais", cellValue(t, tpl, "A14"))
}
