// Package excel discovers the shape of a spreadsheet template and mutates it
// in place: flat item tables get one row per item, narrative templates get
// their 11-row goal block replicated and injected with parsed prose. One
// Template owns one workbook for the duration of one fill operation; nothing
// here is safe for concurrent use.
package excel

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Narrative template geometry. The block anchor and height are fixed by the
// template layout; everything else is discovered by content.
const (
	AnalysisTitle = "ANÁLISE DOS ELEMENTOS DO PLANO DE APLICAÇÃO"
	ItemsTitle    = "ITENS DE CONTRATAÇÃO"

	BlockStartRow = 14
	BlockHeight   = 11
	BlockStartCol = 1  // A
	BlockEndCol   = 10 // J

	FlatHeaderRow = 2
)

// ActionHeaderKey is the canonical header-map key for the action column. The
// rendered header embeds a legal-article number that changes between runs, so
// the raw text cannot be the key.
const (
	ActionHeaderKey    = "acao_art"
	ActionHeaderNumKey = "acao_art_num"
)

var actionHeaderRe = regexp.MustCompile(`(?i)^Ação conforme Art\.\s*\d+º\s+da portaria nº 685$`)

// OutputHeaders is the canonical flat-table header list, used as fallback
// when a template carries no header row of its own.
var OutputHeaders = []string{
	"Número da Meta Específica",
	"Número do Item",
	"Ação conforme Art. 7º da portaria nº 685",
	"Material/Serviço",
	"Descrição",
	"Destinação",
	"Instituição",
	"Natureza da Despesa",
	"Quantidade Planejada",
	"Unidade de Medida",
	"Valor Planejado Total",
	"Status do Item",
}

// Mode indicates which fill strategy a template requires
type Mode string

const (
	ModeFlat      Mode = "flat"
	ModeNarrative Mode = "narrative"
)

// Row holds one flat output row keyed by header text (canonical keys for the
// action column).
type Row map[string]any

// Template wraps a loaded workbook and its active sheet.
type Template struct {
	file  *excelize.File
	sheet string
}

// Open loads a template workbook from a file path.
func Open(path string) (*Template, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template: %w", err)
	}
	return New(f), nil
}

// OpenReader loads a template workbook from an io.Reader.
func OpenReader(r io.Reader) (*Template, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open template: %w", err)
	}
	return New(f), nil
}

// New wraps an already-loaded workbook, taking ownership of it.
func New(f *excelize.File) *Template {
	return &Template{file: f, sheet: f.GetSheetName(f.GetActiveSheetIndex())}
}

// Close releases the underlying workbook
func (t *Template) Close() error {
	if t.file != nil {
		return t.file.Close()
	}
	return nil
}

// Sheet returns the active sheet name
func (t *Template) Sheet() string {
	return t.sheet
}

// Mode classifies the template by its title cell (A2).
func (t *Template) Mode() (Mode, error) {
	title, err := t.file.GetCellValue(t.sheet, "A2")
	if err != nil {
		return "", fmt.Errorf("failed to read title cell: %w", err)
	}
	if strings.Contains(strings.ToUpper(normalize(title)), AnalysisTitle) {
		return ModeNarrative, nil
	}
	return ModeFlat, nil
}

// HeaderKey maps a header text to its header-map key. Any header matching the
// action-column pattern collapses to ActionHeaderKey regardless of which
// article number it currently displays.
func HeaderKey(header string) string {
	if actionHeaderRe.MatchString(header) {
		return ActionHeaderKey
	}
	return header
}

// HeaderInfo scans one header row and returns the headers in column order
// plus the key → column map (first occurrence wins).
func (t *Template) HeaderInfo(headerRow int) ([]string, map[string]int, error) {
	rows, err := t.file.GetRows(t.sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet rows: %w", err)
	}
	var headers []string
	headerMap := make(map[string]int)
	if headerRow >= 1 && headerRow <= len(rows) {
		for idx, value := range rows[headerRow-1] {
			header := strings.TrimSpace(value)
			if header == "" {
				continue
			}
			headers = append(headers, header)
			key := HeaderKey(header)
			if _, ok := headerMap[key]; !ok {
				headerMap[key] = idx + 1
			}
		}
	}
	return headers, headerMap, nil
}

// FlatHeaderInfo reads the flat-template header row, falling back to the
// canonical header list with positional columns when the row is empty.
func (t *Template) FlatHeaderInfo() ([]string, map[string]int, error) {
	headers, headerMap, err := t.HeaderInfo(FlatHeaderRow)
	if err != nil {
		return nil, nil, err
	}
	if len(headerMap) == 0 {
		headers = append([]string(nil), OutputHeaders...)
		headerMap = make(map[string]int, len(headers))
		for idx, header := range headers {
			key := HeaderKey(header)
			if _, ok := headerMap[key]; !ok {
				headerMap[key] = idx + 1
			}
		}
	}
	return headers, headerMap, nil
}

// ItemsHeaderRow locates the item-table header row of a narrative template:
// the row immediately under the "ITENS DE CONTRATAÇÃO" title. Zero when the
// template has no item table.
func (t *Template) ItemsHeaderRow() (int, error) {
	titleRow, err := t.findItemsTitleRow()
	if err != nil || titleRow == 0 {
		return 0, err
	}
	return titleRow + 1, nil
}

func (t *Template) findItemsTitleRow() (int, error) {
	rows, err := t.file.GetRows(t.sheet)
	if err != nil {
		return 0, fmt.Errorf("failed to read sheet rows: %w", err)
	}
	for idx, row := range rows {
		if len(row) == 0 {
			continue
		}
		if strings.ToUpper(normalize(row[0])) == ItemsTitle {
			return idx + 1, nil
		}
	}
	return 0, nil
}

// maxRow returns the highest populated row index.
func (t *Template) maxRow() (int, error) {
	rows, err := t.file.GetRows(t.sheet)
	if err != nil {
		return 0, fmt.Errorf("failed to read sheet rows: %w", err)
	}
	return len(rows), nil
}

// ResetView scrolls the sheet back to A1 at 100% zoom so the generated file
// opens at the top regardless of where the template was last saved.
func (t *Template) ResetView() error {
	topLeft := "A1"
	zoom := 100.0
	if err := t.file.SetSheetView(t.sheet, 0, &excelize.ViewOptions{
		TopLeftCell: &topLeft,
		ZoomScale:   &zoom,
	}); err != nil {
		return fmt.Errorf("failed to reset sheet view: %w", err)
	}
	return nil
}

// SaveAs writes the workbook to a path
func (t *Template) SaveAs(path string) error {
	if err := t.file.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// Bytes serializes the workbook
func (t *Template) Bytes() ([]byte, error) {
	buf, err := t.file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func normalize(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}
