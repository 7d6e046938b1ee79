package excel

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/marcospaullo18mp-del/Preenche-Planilhas/internal/domain/plan/parser"
)

// Placeholder tokens. Each appears twice in the template prose, delimiting
// the span the dynamic value replaces.
const (
	tokenGeneralIndicator = "0*"
	tokenGeneralGoal      = "1*"
	tokenGoalLabel        = "2*"
	tokenReference        = "3*"
	tokenIndicatorDesc    = "4*"
	tokenFormula          = "5*"
	tokenPESP             = "6*"
	tokenPNSP             = "7*"
	tokenPolicy           = "8*"
)

// Marker phrases for templates that predate the token convention. The splice
// replaces everything from the marker onward, preserving whatever followed
// the suffix anchor in the original prose.
const (
	markerReference     = "A referência informada foi:"
	markerTarget        = "A Meta informada foi:"
	markerPolicy        = "A política informada foi:"
	markerIndicatorDesc = "Descrição do Indicador:"
	markerFormula       = "Fórmula:"
	suffixAdherence     = "Existe aderência"
	suffixIndicator     = "O indicador"
)

// Fixed cells for the document-level narrative values.
const (
	generalGoalCell      = "A8"
	generalIndicatorCell = "F10"
)

var goalLabelPrefixRe = regexp.MustCompile(`^\d+\s*-\s*`)

// ReplaceTokenSegment replaces every token…token span in base with value
// (tokens included). Base is returned unchanged when no span exists.
func ReplaceTokenSegment(base, token, value string) string {
	pattern := regexp.MustCompile(`(?s)` + regexp.QuoteMeta(token) + `.*?` + regexp.QuoteMeta(token))
	if !pattern.MatchString(base) {
		return base
	}
	return pattern.ReplaceAllLiteralString(base, value)
}

// SpliceReference injects the reference-value text after its marker phrase.
// Without the marker the whole cell becomes the value; without a value the
// base is untouched.
func SpliceReference(base, value string) string {
	if value == "" {
		return base
	}
	idx := strings.Index(base, markerReference)
	if idx < 0 {
		return value
	}
	return base[:idx] + markerReference + "\n\n\n\n" + value
}

// SpliceTarget injects a target text after marker, keeping the adherence
// sentence that followed the original value.
func SpliceTarget(base, marker, value string) string {
	if value == "" {
		return base
	}
	idx := strings.Index(base, marker)
	if idx < 0 {
		return value
	}
	after := base[idx+len(marker):]
	suffix := ""
	if sfx := strings.Index(after, suffixAdherence); sfx >= 0 {
		suffix = "\n\n\n\n" + strings.TrimSpace(after[sfx:])
	}
	return base[:idx] + marker + "\n\n\n\n" + value + suffix
}

// SpliceIndicator carries two independent values (indicator description and
// formula) into one cell using the two nested marker pairs. When the base
// lacks the markers the cell is composed fresh from labeled fragments.
func SpliceIndicator(base, description, formula string) string {
	if description == "" && formula == "" {
		return base
	}
	descIdx := strings.Index(base, markerIndicatorDesc)
	if descIdx < 0 || !strings.Contains(base, markerFormula) {
		var parts []string
		if description != "" {
			parts = append(parts, markerIndicatorDesc+" "+description)
		}
		if formula != "" {
			parts = append(parts, markerFormula+" "+formula)
		}
		return strings.Join(parts, "\n\n")
	}

	pre := base[:descIdx]
	afterDesc := base[descIdx+len(markerIndicatorDesc):]
	afterFormula := ""
	if idx := strings.Index(afterDesc, markerFormula); idx >= 0 {
		afterFormula = afterDesc[idx+len(markerFormula):]
	}
	suffix := ""
	if idx := strings.Index(afterFormula, suffixIndicator); idx >= 0 {
		suffix = "\n\n" + strings.TrimSpace(afterFormula[idx:])
	}
	return pre + markerIndicatorDesc + "\n" + description + "\n\n" + markerFormula + "\n" + formula + suffix
}

// InjectNarrative fills the narrative template from the parsed document:
// the document-level cells first, then one block per goal. Blocks beyond the
// first are re-stamped from the canonical block before injection so every
// block starts from pristine template text.
func (t *Template) InjectNarrative(doc *parser.Document) error {
	if err := t.injectDocumentCell(generalGoalCell, tokenGeneralGoal, doc.GeneralGoal); err != nil {
		return err
	}
	if err := t.injectDocumentCell(generalIndicatorCell, tokenGeneralIndicator, doc.GeneralIndicator); err != nil {
		return err
	}
	if len(doc.Goals) == 0 {
		return nil
	}

	if err := t.EnsureBlocks(len(doc.Goals)); err != nil {
		return err
	}
	for idx := 2; idx <= len(doc.Goals); idx++ {
		startRow := BlockStartRow + (idx-1)*BlockHeight
		if err := t.unmergeBlockRegion(startRow); err != nil {
			return err
		}
		if err := t.copyBlock(BlockStartRow, startRow); err != nil {
			return err
		}
	}

	for idx, goal := range doc.Goals {
		if err := t.injectBlock(idx+1, goal.Narrative, doc.ReferenceValue); err != nil {
			return err
		}
	}
	return nil
}

func (t *Template) injectDocumentCell(cell, token, value string) error {
	base, err := t.file.GetCellValue(t.sheet, cell)
	if err != nil {
		return fmt.Errorf("failed to read cell %s: %w", cell, err)
	}
	replaced := ReplaceTokenSegment(base, token, value)
	switch {
	case replaced != base:
		if err := t.file.SetCellValue(t.sheet, cell, replaced); err != nil {
			return fmt.Errorf("failed to write cell %s: %w", cell, err)
		}
	case value != "":
		if err := t.file.SetCellValue(t.sheet, cell, value); err != nil {
			return fmt.Errorf("failed to write cell %s: %w", cell, err)
		}
	}
	return t.setCellFontBlack(cell)
}

// injectBlock fills one goal block. blockIndex is 1-based; the label cell is
// numbered by position, not by the goal number the source document used.
func (t *Template) injectBlock(blockIndex int, narrative parser.NarrativeSection, reference string) error {
	startRow := BlockStartRow + (blockIndex-1)*BlockHeight

	goalText := strings.TrimSpace(goalLabelPrefixRe.ReplaceAllString(narrative.GoalText, ""))
	label := ""
	if goalText != "" {
		label = fmt.Sprintf("%d - %s", blockIndex, goalText)
	}
	if err := t.injectCell(fmt.Sprintf("A%d", startRow), tokenGoalLabel, label, func(base string) string {
		return label
	}); err != nil {
		return err
	}

	if err := t.injectCell(fmt.Sprintf("E%d", startRow), tokenReference, reference, func(base string) string {
		return SpliceReference(base, reference)
	}); err != nil {
		return err
	}

	cellF := fmt.Sprintf("F%d", startRow)
	baseF, err := t.file.GetCellValue(t.sheet, cellF)
	if err != nil {
		return fmt.Errorf("failed to read cell %s: %w", cellF, err)
	}
	replacedF := ReplaceTokenSegment(baseF, tokenIndicatorDesc, narrative.IndicatorDescription)
	replacedF = ReplaceTokenSegment(replacedF, tokenFormula, narrative.Formula)
	if replacedF == baseF {
		replacedF = SpliceIndicator(baseF, narrative.IndicatorDescription, narrative.Formula)
	}
	if err := t.file.SetCellValue(t.sheet, cellF, replacedF); err != nil {
		return fmt.Errorf("failed to write cell %s: %w", cellF, err)
	}

	if err := t.injectCell(fmt.Sprintf("G%d", startRow), tokenPESP, narrative.PESPTarget, func(base string) string {
		return SpliceTarget(base, markerTarget, narrative.PESPTarget)
	}); err != nil {
		return err
	}
	if err := t.injectCell(fmt.Sprintf("H%d", startRow), tokenPNSP, narrative.PNSPTarget, func(base string) string {
		return SpliceTarget(base, markerTarget, narrative.PNSPTarget)
	}); err != nil {
		return err
	}
	if err := t.injectCell(fmt.Sprintf("I%d", startRow), tokenPolicy, narrative.PolicyPortfolio, func(base string) string {
		return SpliceTarget(base, markerPolicy, narrative.PolicyPortfolio)
	}); err != nil {
		return err
	}

	return t.setRowFontsBlack(startRow, BlockStartCol, BlockEndCol)
}

// injectCell tries token substitution first and falls back to the given
// splice when the base text carries no token pair.
func (t *Template) injectCell(cell, token, value string, fallback func(base string) string) error {
	base, err := t.file.GetCellValue(t.sheet, cell)
	if err != nil {
		return fmt.Errorf("failed to read cell %s: %w", cell, err)
	}
	replaced := ReplaceTokenSegment(base, token, value)
	if replaced == base {
		replaced = fallback(base)
	}
	if err := t.file.SetCellValue(t.sheet, cell, replaced); err != nil {
		return fmt.Errorf("failed to write cell %s: %w", cell, err)
	}
	return nil
}

// setCellFontBlack forces the cell font to solid black, keeping the rest of
// its style.
func (t *Template) setCellFontBlack(cell string) error {
	styleID, err := t.file.GetCellStyle(t.sheet, cell)
	if err != nil {
		return fmt.Errorf("failed to read cell style: %w", err)
	}
	style, err := t.file.GetStyle(styleID)
	if err != nil {
		return fmt.Errorf("failed to resolve style: %w", err)
	}
	if style == nil {
		style = &excelize.Style{}
	}
	if style.Font == nil {
		style.Font = &excelize.Font{}
	}
	style.Font.Color = "000000"
	newID, err := t.file.NewStyle(style)
	if err != nil {
		return fmt.Errorf("failed to build style: %w", err)
	}
	if err := t.file.SetCellStyle(t.sheet, cell, cell, newID); err != nil {
		return fmt.Errorf("failed to apply style: %w", err)
	}
	return nil
}

// setRowFontsBlack normalizes the font color across a block's top row.
func (t *Template) setRowFontsBlack(row, startCol, endCol int) error {
	for col := startCol; col <= endCol; col++ {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return fmt.Errorf("failed to build cell name: %w", err)
		}
		if err := t.setCellFontBlack(cell); err != nil {
			return err
		}
	}
	return nil
}
