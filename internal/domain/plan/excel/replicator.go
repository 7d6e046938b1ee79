package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// rect is a merged-cell rectangle in 1-based sheet coordinates.
type rect struct {
	minRow, minCol, maxRow, maxCol int
}

func (r rect) overlaps(other rect) bool {
	return !(r.maxRow < other.minRow ||
		other.maxRow < r.minRow ||
		r.maxCol < other.minCol ||
		other.maxCol < r.minCol)
}

func (r rect) singleCell() bool {
	return r.minRow == r.maxRow && r.minCol == r.maxCol
}

// mergedRects returns the sheet's merged ranges as rectangles.
func (t *Template) mergedRects() ([]rect, error) {
	merged, err := t.file.GetMergeCells(t.sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read merged cells: %w", err)
	}
	rects := make([]rect, 0, len(merged))
	for _, mc := range merged {
		startCol, startRow, err := excelize.CellNameToCoordinates(mc.GetStartAxis())
		if err != nil {
			return nil, fmt.Errorf("failed to parse merge range: %w", err)
		}
		endCol, endRow, err := excelize.CellNameToCoordinates(mc.GetEndAxis())
		if err != nil {
			return nil, fmt.Errorf("failed to parse merge range: %w", err)
		}
		rects = append(rects, rect{minRow: startRow, minCol: startCol, maxRow: endRow, maxCol: endCol})
	}
	return rects, nil
}

func (t *Template) merge(r rect) error {
	topLeft, err := excelize.CoordinatesToCellName(r.minCol, r.minRow)
	if err != nil {
		return fmt.Errorf("failed to build cell name: %w", err)
	}
	bottomRight, err := excelize.CoordinatesToCellName(r.maxCol, r.maxRow)
	if err != nil {
		return fmt.Errorf("failed to build cell name: %w", err)
	}
	if err := t.file.MergeCell(t.sheet, topLeft, bottomRight); err != nil {
		return fmt.Errorf("failed to merge %s:%s: %w", topLeft, bottomRight, err)
	}
	return nil
}

func (t *Template) unmerge(r rect) error {
	topLeft, err := excelize.CoordinatesToCellName(r.minCol, r.minRow)
	if err != nil {
		return fmt.Errorf("failed to build cell name: %w", err)
	}
	bottomRight, err := excelize.CoordinatesToCellName(r.maxCol, r.maxRow)
	if err != nil {
		return fmt.Errorf("failed to build cell name: %w", err)
	}
	if err := t.file.UnmergeCell(t.sheet, topLeft, bottomRight); err != nil {
		return fmt.Errorf("failed to unmerge %s:%s: %w", topLeft, bottomRight, err)
	}
	return nil
}

// CountBlocks counts the replicated narrative blocks already present. A
// single-column merge in column A spanning exactly BlockHeight rows at
// BlockStartRow + k*BlockHeight is evidence of one block. A template always
// has at least the canonical block.
func (t *Template) CountBlocks() (int, error) {
	rects, err := t.mergedRects()
	if err != nil {
		return 0, err
	}
	count := 0
	for _, r := range rects {
		if r.minCol == BlockStartCol && r.maxCol == BlockStartCol &&
			r.maxRow-r.minRow+1 == BlockHeight &&
			r.minRow >= BlockStartRow &&
			(r.minRow-BlockStartRow)%BlockHeight == 0 {
			count++
		}
	}
	if count < 1 {
		count = 1
	}
	return count, nil
}

// EnsureBlocks grows the block region until at least required blocks exist.
// Blank rows already sitting between the block region and the item-table
// title are reused before new rows are inserted; one row is kept back as a
// visual separator.
func (t *Template) EnsureBlocks(required int) error {
	existing, err := t.CountBlocks()
	if err != nil {
		return err
	}
	if required <= existing {
		return nil
	}

	titleRow, err := t.findItemsTitleRow()
	if err != nil {
		return err
	}

	additionalRows := (required - existing) * BlockHeight
	insertAt := BlockStartRow + existing*BlockHeight
	reusableGapRows := 0
	if titleRow > insertAt {
		reusableGapRows = (titleRow - insertAt) - 1
		if reusableGapRows < 0 {
			reusableGapRows = 0
		}
	}
	rowsToInsert := additionalRows - reusableGapRows
	if rowsToInsert > 0 {
		if err := t.insertRowsPreservingMerges(insertAt, rowsToInsert); err != nil {
			return err
		}
	}

	for block := existing + 1; block <= required; block++ {
		dstStart := BlockStartRow + (block-1)*BlockHeight
		if err := t.copyBlock(BlockStartRow, dstStart); err != nil {
			return err
		}
	}
	return nil
}

// insertRowsPreservingMerges inserts rows without ever leaving a merged range
// with an internal gap: every merge is removed first, the rows are inserted,
// and the ranges are rebuilt from scratch. Ranges above the insertion point
// are kept, ranges at or below are shifted, and ranges straddling it are
// split into a pre part and a post part. The band of a straddling range that
// falls inside the inserted gap is dropped, not duplicated into both halves.
// On overlap between rebuilt ranges the first one added wins; later
// candidates are skipped rather than merged.
func (t *Template) insertRowsPreservingMerges(insertAt, amount int) error {
	if amount <= 0 {
		return nil
	}
	original, err := t.mergedRects()
	if err != nil {
		return err
	}
	for _, r := range original {
		if err := t.unmerge(r); err != nil {
			return err
		}
	}
	if err := t.file.InsertRows(t.sheet, insertAt, amount); err != nil {
		return fmt.Errorf("failed to insert rows: %w", err)
	}

	var rebuilt []rect
	add := func(r rect) {
		if r.minRow > r.maxRow || r.minCol > r.maxCol || r.singleCell() {
			return
		}
		for _, existing := range rebuilt {
			if r.overlaps(existing) {
				return
			}
		}
		rebuilt = append(rebuilt, r)
	}

	for _, r := range original {
		switch {
		case r.maxRow < insertAt:
			add(r)
		case r.minRow >= insertAt:
			add(rect{r.minRow + amount, r.minCol, r.maxRow + amount, r.maxCol})
		default:
			add(rect{r.minRow, r.minCol, insertAt - 1, r.maxCol})
			add(rect{insertAt + amount, r.minCol, r.maxRow + amount, r.maxCol})
		}
	}

	for _, r := range rebuilt {
		if err := t.merge(r); err != nil {
			return err
		}
	}
	return nil
}

// copyBlock duplicates the canonical block's values, styles, row heights and
// intra-block merges into the destination rows.
func (t *Template) copyBlock(srcStart, dstStart int) error {
	for offset := 0; offset < BlockHeight; offset++ {
		srcRow := srcStart + offset
		dstRow := dstStart + offset
		height, err := t.file.GetRowHeight(t.sheet, srcRow)
		if err != nil {
			return fmt.Errorf("failed to read row height: %w", err)
		}
		if err := t.file.SetRowHeight(t.sheet, dstRow, height); err != nil {
			return fmt.Errorf("failed to set row height: %w", err)
		}
		for col := BlockStartCol; col <= BlockEndCol; col++ {
			srcCell, err := excelize.CoordinatesToCellName(col, srcRow)
			if err != nil {
				return fmt.Errorf("failed to build cell name: %w", err)
			}
			dstCell, err := excelize.CoordinatesToCellName(col, dstRow)
			if err != nil {
				return fmt.Errorf("failed to build cell name: %w", err)
			}
			value, err := t.file.GetCellValue(t.sheet, srcCell)
			if err != nil {
				return fmt.Errorf("failed to read cell %s: %w", srcCell, err)
			}
			styleID, err := t.file.GetCellStyle(t.sheet, srcCell)
			if err != nil {
				return fmt.Errorf("failed to read cell style: %w", err)
			}
			if err := t.file.SetCellStyle(t.sheet, dstCell, dstCell, styleID); err != nil {
				return fmt.Errorf("failed to copy cell style: %w", err)
			}
			if err := t.file.SetCellValue(t.sheet, dstCell, value); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", dstCell, err)
			}
		}
	}

	shift := dstStart - srcStart
	rects, err := t.mergedRects()
	if err != nil {
		return err
	}
	for _, r := range rects {
		if r.minRow >= srcStart && r.maxRow < srcStart+BlockHeight &&
			r.minCol >= BlockStartCol && r.maxCol <= BlockEndCol {
			shifted := rect{r.minRow + shift, r.minCol, r.maxRow + shift, r.maxCol}
			if err := t.merge(shifted); err != nil {
				return err
			}
		}
	}
	return nil
}

// unmergeBlockRegion removes every merge lying fully inside one block region,
// so the block can be re-stamped from the canonical one.
func (t *Template) unmergeBlockRegion(blockStart int) error {
	blockEnd := blockStart + BlockHeight - 1
	rects, err := t.mergedRects()
	if err != nil {
		return err
	}
	for _, r := range rects {
		if r.minRow >= blockStart && r.maxRow <= blockEnd &&
			r.minCol >= BlockStartCol && r.maxCol <= BlockEndCol {
			if err := t.unmerge(r); err != nil {
				return err
			}
		}
	}
	return nil
}
