package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// FillRows writes one row per record starting at startRow, clearing any
// previously written values first. Only the mapped columns are touched;
// styles are left alone on clear so manual formatting survives re-runs. Newly
// written rows below the first data row inherit its style and height when
// they have none of their own.
func (t *Template) FillRows(rows []Row, headerMap map[string]int, startRow int) error {
	if len(headerMap) == 0 {
		return nil
	}
	maxCol := 0
	for _, col := range headerMap {
		if col > maxCol {
			maxCol = col
		}
	}
	lastRow, err := t.maxRow()
	if err != nil {
		return err
	}

	for row := startRow; row <= lastRow; row++ {
		for col := 1; col <= maxCol; col++ {
			cell, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				return fmt.Errorf("failed to build cell name: %w", err)
			}
			if err := t.file.SetCellValue(t.sheet, cell, nil); err != nil {
				return fmt.Errorf("failed to clear cell %s: %w", cell, err)
			}
		}
	}

	styleRow := 0
	if startRow <= lastRow {
		styleRow = startRow
	}
	styled, err := t.rowHasCustomStyle(styleRow, headerMap)
	if err != nil {
		return err
	}

	for idx, rowData := range rows {
		row := startRow + idx
		if styled && row != styleRow {
			if err := t.copyRowStyle(styleRow, row, headerMap); err != nil {
				return err
			}
		}
		for header, col := range headerMap {
			cell, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				return fmt.Errorf("failed to build cell name: %w", err)
			}
			value := rowData[header]
			if value == nil {
				value = ""
			}
			if err := t.file.SetCellValue(t.sheet, cell, value); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}
	return nil
}

// rowHasCustomStyle reports whether any mapped cell of the row carries a
// non-default style.
func (t *Template) rowHasCustomStyle(row int, headerMap map[string]int) (bool, error) {
	if row == 0 {
		return false, nil
	}
	for _, col := range headerMap {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return false, fmt.Errorf("failed to build cell name: %w", err)
		}
		styleID, err := t.file.GetCellStyle(t.sheet, cell)
		if err != nil {
			return false, fmt.Errorf("failed to read cell style: %w", err)
		}
		if styleID != 0 {
			return true, nil
		}
	}
	return false, nil
}

// copyRowStyle stamps the template row's style and height onto a target row,
// but only when the target has no style of its own.
func (t *Template) copyRowStyle(srcRow, dstRow int, headerMap map[string]int) error {
	for _, col := range headerMap {
		cell, err := excelize.CoordinatesToCellName(col, dstRow)
		if err != nil {
			return fmt.Errorf("failed to build cell name: %w", err)
		}
		styleID, err := t.file.GetCellStyle(t.sheet, cell)
		if err != nil {
			return fmt.Errorf("failed to read cell style: %w", err)
		}
		if styleID != 0 {
			return nil
		}
	}
	for _, col := range headerMap {
		srcCell, err := excelize.CoordinatesToCellName(col, srcRow)
		if err != nil {
			return fmt.Errorf("failed to build cell name: %w", err)
		}
		dstCell, err := excelize.CoordinatesToCellName(col, dstRow)
		if err != nil {
			return fmt.Errorf("failed to build cell name: %w", err)
		}
		styleID, err := t.file.GetCellStyle(t.sheet, srcCell)
		if err != nil {
			return fmt.Errorf("failed to read cell style: %w", err)
		}
		if err := t.file.SetCellStyle(t.sheet, dstCell, dstCell, styleID); err != nil {
			return fmt.Errorf("failed to copy cell style: %w", err)
		}
	}
	height, err := t.file.GetRowHeight(t.sheet, srcRow)
	if err != nil {
		return fmt.Errorf("failed to read row height: %w", err)
	}
	if height > 0 {
		if err := t.file.SetRowHeight(t.sheet, dstRow, height); err != nil {
			return fmt.Errorf("failed to set row height: %w", err)
		}
	}
	return nil
}

// UpdateActionHeader rewrites the action-column header so it names the
// resolved legal article. The plan-rule article wins; the first item's
// captured number is the fallback. Anything outside {6,7,8} leaves the
// header untouched.
func (t *Template) UpdateActionHeader(rows []Row, headerMap map[string]int, artNumPreferred string, headerRow int) error {
	col, ok := headerMap[ActionHeaderKey]
	if !ok || len(rows) == 0 {
		return nil
	}
	artNum := artNumPreferred
	if artNum == "" {
		if v, ok := rows[0][ActionHeaderNumKey].(string); ok {
			artNum = v
		}
	}
	switch artNum {
	case "6", "7", "8":
	default:
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(col, headerRow)
	if err != nil {
		return fmt.Errorf("failed to build cell name: %w", err)
	}
	header := fmt.Sprintf("Ação conforme Art. %sº da portaria nº 685", artNum)
	if err := t.file.SetCellValue(t.sheet, cell, header); err != nil {
		return fmt.Errorf("failed to update action header: %w", err)
	}
	return nil
}
