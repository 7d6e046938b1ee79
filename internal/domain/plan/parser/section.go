package parser

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	goalMarkerRe    = regexp.MustCompile(`(?i)^META ESPEC[ÍI]FICA\s+(\d+)`)
	itemMarkerRe    = regexp.MustCompile(`(?i)^Item\s*(\d+)\s*(Planejado|Aprovado|Cancelado)?`)
	planSignatureRe = regexp.MustCompile(`\b([A-Z]{2})\s*-\s*([A-Z0-9]+)\s*-\s*(20\d{2})\b`)
)

// planSignatureScanLimit bounds the signature search to the document header.
const planSignatureScanLimit = 120

// PlanSignature identifies the plan instance, extracted from the
// "UF - SIGLA - YEAR" header line.
type PlanSignature struct {
	Sigla string
	Year  int
}

// Article resolves the legal-article number mandated for this plan. The
// mapping is fixed by ordinance: ECV/FISPDS/RMVI plans use Art. 6º,
// EVM (2023 on) Art. 7º, VPSP/MQVPSP Art. 8º. Unknown combinations yield "".
func (s PlanSignature) Article() string {
	if s.Sigla == "" || s.Year == 0 {
		return ""
	}
	switch strings.ToUpper(s.Sigla) {
	case "ECV", "FISPDS", "RMVI":
		if s.Year >= 2019 && s.Year <= 2025 {
			return "6"
		}
	case "EVM":
		if s.Year >= 2023 && s.Year <= 2025 {
			return "7"
		}
	case "VPSP", "MQVPSP":
		if s.Year >= 2019 && s.Year <= 2025 {
			return "8"
		}
	}
	return ""
}

// Item is one procurement entry under a goal. RawLines holds the unparsed
// line group; field splitting happens later in ExtractFields.
type Item struct {
	Goal     int
	Number   int
	Status   string // "Planejado", "Aprovado", "Cancelado" or ""
	RawLines []string
}

// NarrativeSection carries the descriptive prose captured for one goal.
type NarrativeSection struct {
	GoalText             string
	IndicatorDescription string
	Formula              string
	PESPTarget           string
	PNSPTarget           string
	PolicyPortfolio      string
}

// Goal is one top-level planning objective. Goals are kept in document order;
// duplicate numbers produce separate records, never a merge.
type Goal struct {
	Number    int
	Items     []Item
	Narrative NarrativeSection
}

// Document is the parsed view of one source document.
type Document struct {
	Signature        PlanSignature
	Goals            []Goal
	GeneralGoal      string
	GeneralIndicator string
	ReferenceValue   string
}

// Parse runs the full segmentation over an ordered, cleaned line sequence.
func Parse(lines []string) *Document {
	doc := &Document{
		Signature: ExtractPlanSignature(lines),
		Goals:     parseGoals(lines),
	}
	narratives := parseNarratives(lines)
	for i := range doc.Goals {
		if i < len(narratives) {
			doc.Goals[i].Narrative = narratives[i]
		}
	}
	doc.GeneralGoal = extractGeneralGoal(lines)
	doc.GeneralIndicator = extractGeneralIndicator(lines)
	doc.ReferenceValue = extractReferenceValue(lines)
	return doc
}

// Items flattens the per-goal item lists in document order.
func (d *Document) Items() []Item {
	var items []Item
	for _, g := range d.Goals {
		items = append(items, g.Items...)
	}
	return items
}

// ExtractPlanSignature scans the document header for the plan identifier.
func ExtractPlanSignature(lines []string) PlanSignature {
	limit := len(lines)
	if limit > planSignatureScanLimit {
		limit = planSignatureScanLimit
	}
	for _, line := range lines[:limit] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := planSignatureRe.FindStringSubmatch(strings.ToUpper(line)); m != nil {
			year, _ := strconv.Atoi(m[3])
			return PlanSignature{Sigla: m[2], Year: year}
		}
	}
	return PlanSignature{}
}

// parseGoals segments the lines into goals and their raw item groups. An item
// that starts before the first goal marker is silently dropped: it has no
// goal to belong to.
func parseGoals(lines []string) []Goal {
	var goals []Goal
	var open *Item

	flush := func() {
		if open == nil {
			return
		}
		if len(goals) > 0 {
			g := &goals[len(goals)-1]
			open.Goal = g.Number
			g.Items = append(g.Items, *open)
		}
		open = nil
	}

	for _, line := range lines {
		if m := goalMarkerRe.FindStringSubmatch(line); m != nil {
			flush()
			number, _ := strconv.Atoi(m[1])
			goals = append(goals, Goal{Number: number})
			continue
		}
		if m := itemMarkerRe.FindStringSubmatch(line); m != nil {
			flush()
			number, _ := strconv.Atoi(m[1])
			open = &Item{Number: number, Status: capitalize(m[2])}
			continue
		}
		if open != nil {
			open.RawLines = append(open.RawLines, line)
		}
	}
	flush()
	return goals
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
