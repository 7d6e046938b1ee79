package excel

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/marcospaullo18mp-del/Preenche-Planilhas/internal/domain/plan/parser"
)

// MissingFlat walks the written item rows and reports the addresses of cells
// left blank, plus the count of rows with at least one blank cell. The scan
// runs over the row data, not the sheet, so template boilerplate never masks
// a missing value.
func MissingFlat(rows []Row, headerMap map[string]int, startRow int) ([]string, int) {
	seen := make(map[string]struct{})
	missingRows := make(map[int]struct{})
	for idx, rowData := range rows {
		row := startRow + idx
		for header, col := range headerMap {
			if !isEmptyValue(rowData[header]) {
				continue
			}
			name, err := excelize.ColumnNumberToName(col)
			if err != nil {
				continue
			}
			seen[fmt.Sprintf("%s%d", name, row)] = struct{}{}
			missingRows[row] = struct{}{}
		}
	}
	cells := make([]string, 0, len(seen))
	for cell := range seen {
		cells = append(cells, cell)
	}
	sort.Strings(cells)
	return cells, len(missingRows)
}

// MissingNarrative checks the structural slots of every goal block against
// the parsed narrative values feeding them. The rendered cells always carry
// template boilerplate, so emptiness is judged on the parsed text.
func MissingNarrative(doc *parser.Document) []string {
	seen := make(map[string]struct{})
	if parser.BlankDashOnly(doc.GeneralIndicator) == "" {
		seen[generalIndicatorCell] = struct{}{}
	}
	if parser.BlankDashOnly(doc.GeneralGoal) == "" {
		seen[generalGoalCell] = struct{}{}
	}

	reference := parser.BlankDashOnly(doc.ReferenceValue)
	for idx, goal := range doc.Goals {
		startRow := BlockStartRow + idx*BlockHeight
		n := goal.Narrative
		if parser.BlankDashOnly(n.GoalText) == "" {
			seen[fmt.Sprintf("A%d", startRow)] = struct{}{}
		}
		if reference == "" {
			seen[fmt.Sprintf("E%d", startRow)] = struct{}{}
		}
		if parser.BlankDashOnly(n.IndicatorDescription) == "" || parser.BlankDashOnly(n.Formula) == "" {
			seen[fmt.Sprintf("F%d", startRow)] = struct{}{}
		}
		if parser.BlankDashOnly(n.PESPTarget) == "" {
			seen[fmt.Sprintf("G%d", startRow)] = struct{}{}
		}
		if parser.BlankDashOnly(n.PNSPTarget) == "" {
			seen[fmt.Sprintf("H%d", startRow)] = struct{}{}
		}
		if parser.BlankDashOnly(n.PolicyPortfolio) == "" {
			seen[fmt.Sprintf("I%d", startRow)] = struct{}{}
		}
	}

	cells := make([]string, 0, len(seen))
	for cell := range seen {
		cells = append(cells, cell)
	}
	sort.Strings(cells)
	return cells
}

func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
