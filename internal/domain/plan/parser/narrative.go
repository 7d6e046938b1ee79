package parser

import (
	"regexp"
	"strings"
)

var (
	generalGoalLineRe      = regexp.MustCompile(`(?i)^Meta Geral$`)
	generalIndicatorLineRe = regexp.MustCompile(`(?i)^Indicador Geral de Resultado$`)
	referenceValueRe       = regexp.MustCompile(`(?i)valor de refer[eê]ncia\s*:`)

	generalGoalStopRe      = regexp.MustCompile(`(?i)^(Justificativa|Indicador Geral de Resultado|META ESPEC[ÍI]FICA)`)
	generalIndicatorStopRe = regexp.MustCompile(`(?i)^(Meta Geral|META ESPEC[ÍI]FICA)`)
	referenceValueStopRe   = regexp.MustCompile(`(?i)^(META ESPEC[ÍI]FICA|Descri[cç][aã]o do Indicador:|Itens da Meta|Status:)`)

	statusLineRe     = regexp.MustCompile(`(?i)^Status:`)
	goalItemsTitleRe = regexp.MustCompile(`(?i)^Itens da Meta$`)
	pespTargetTrimRe = regexp.MustCompile(`(?i)\b(?:Periodicidade|Fonte(?:/Ano)?|Valor de Refer[eê]ncia(?:/Fonte)?)\s*:`)
)

// narrativeLabels maps label lines to the narrative field they open. Ordered;
// first match wins.
var narrativeLabels = []struct {
	field   narrativeField
	pattern *regexp.Regexp
}{
	{fieldIndicator, regexp.MustCompile(`(?i)^Descri[cç][aã]o do Indicador:\s*(.*)`)},
	{fieldFormula, regexp.MustCompile(`(?i)^F[oó]rmula:\s*(.*)`)},
	{fieldPolicy, regexp.MustCompile(`(?i)^Carteira de Pol[íi]ticas do MJSP:\s*(.*)`)},
	{fieldPNSP, regexp.MustCompile(`(?i)^Meta do PNSP:\s*(.*)`)},
	{fieldPESP, regexp.MustCompile(`(?i)^Meta do PESP:\s*(.*)`)},
}

type narrativeField int

const (
	fieldNone narrativeField = iota
	fieldGoalText
	fieldIndicator
	fieldFormula
	fieldPESP
	fieldPNSP
	fieldPolicy
)

// narrativeBuffer accumulates raw fragments per field for one goal.
type narrativeBuffer struct {
	parts map[narrativeField][]string
}

func newNarrativeBuffer() *narrativeBuffer {
	return &narrativeBuffer{parts: make(map[narrativeField][]string)}
}

func (b *narrativeBuffer) append(f narrativeField, text string) {
	if text == "" {
		return
	}
	b.parts[f] = append(b.parts[f], text)
}

func (b *narrativeBuffer) finalize() NarrativeSection {
	join := func(f narrativeField) string {
		return BlankDashOnly(strings.Join(b.parts[f], " "))
	}
	section := NarrativeSection{
		GoalText:             join(fieldGoalText),
		IndicatorDescription: join(fieldIndicator),
		Formula:              join(fieldFormula),
		PESPTarget:           join(fieldPESP),
		PNSPTarget:           join(fieldPNSP),
		PolicyPortfolio:      join(fieldPolicy),
	}
	section.PESPTarget = trimPESPTarget(section.PESPTarget)
	return section
}

// trimPESPTarget cuts the PESP text at the first periodicity/source/reference
// label. Those fields follow the target in the source layout and bleed into
// the accumulator when the extractor keeps them on the same line run.
func trimPESPTarget(text string) string {
	text = BlankDashOnly(text)
	if text == "" {
		return ""
	}
	if loc := pespTargetTrimRe.FindStringIndex(text); loc != nil {
		return BlankDashOnly(text[:loc[0]])
	}
	return text
}

// parseNarratives captures one NarrativeSection per goal marker, in order.
// The section count always matches the goal count produced by parseGoals:
// both machines trigger on the same marker lines.
func parseNarratives(lines []string) []NarrativeSection {
	var sections []NarrativeSection
	var current *narrativeBuffer
	active := fieldNone

	for _, line := range lines {
		if goalMarkerRe.MatchString(line) {
			if current != nil {
				sections = append(sections, current.finalize())
			}
			current = newNarrativeBuffer()
			active = fieldGoalText
			continue
		}
		if current == nil {
			continue
		}

		if statusLineRe.MatchString(line) || goalItemsTitleRe.MatchString(line) || itemMarkerRe.MatchString(line) {
			active = fieldNone
			continue
		}

		matched := false
		for _, label := range narrativeLabels {
			if m := label.pattern.FindStringSubmatch(line); m != nil {
				active = label.field
				current.append(active, strings.TrimSpace(m[1]))
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		if active != fieldNone {
			current.append(active, line)
		}
	}
	if current != nil {
		sections = append(sections, current.finalize())
	}
	return sections
}

// extractGeneralGoal collects the text under the document-level "Meta Geral"
// heading, up to the next top-level section.
func extractGeneralGoal(lines []string) string {
	for idx, line := range lines {
		if !generalGoalLineRe.MatchString(line) {
			continue
		}
		var collected []string
		for _, next := range lines[idx+1:] {
			if generalGoalStopRe.MatchString(next) {
				break
			}
			collected = append(collected, next)
		}
		return BlankDashOnly(strings.Join(collected, " "))
	}
	return ""
}

// extractGeneralIndicator collects the text under "Indicador Geral de
// Resultado", up to the next top-level section.
func extractGeneralIndicator(lines []string) string {
	for idx, line := range lines {
		if !generalIndicatorLineRe.MatchString(line) {
			continue
		}
		var collected []string
		for _, next := range lines[idx+1:] {
			if generalIndicatorStopRe.MatchString(next) {
				break
			}
			collected = append(collected, next)
		}
		return BlankDashOnly(strings.Join(collected, " "))
	}
	return ""
}

// extractReferenceValue captures the reference-value sentence starting at the
// first "valor de referência:" marker, wherever it sits inside a line.
func extractReferenceValue(lines []string) string {
	for idx, line := range lines {
		loc := referenceValueRe.FindStringIndex(line)
		if loc == nil {
			continue
		}
		collected := []string{strings.TrimSpace(line[loc[0]:])}
		for _, next := range lines[idx+1:] {
			if referenceValueStopRe.MatchString(next) {
				break
			}
			collected = append(collected, next)
		}
		return BlankDashOnly(strings.Join(collected, " "))
	}
	return ""
}
