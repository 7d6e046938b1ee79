// Package service orchestrates one fill run: parse the source text, classify
// the template, build the item rows and write the populated workbook.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marcospaullo18mp-del/Preenche-Planilhas/internal/domain/plan/excel"
	"github.com/marcospaullo18mp-del/Preenche-Planilhas/internal/domain/plan/parser"
	"github.com/marcospaullo18mp-del/Preenche-Planilhas/pkg/money"
	"github.com/marcospaullo18mp-del/Preenche-Planilhas/pkg/storage"
)

var (
	// ErrTemplateNotFound indicates the template workbook path does not exist.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrNoItems indicates the source text yielded no items for a flat template.
	ErrNoItems = errors.New("no items found")
)

// Summary reports what one fill run produced.
type Summary struct {
	RunID        uuid.UUID
	Mode         excel.Mode
	Goals        int
	Items        int
	MissingCells []string
	MissingRows  int
	Total        decimal.Decimal
	OutputPath   string
}

// Filler runs fill operations. The archive is optional; when present every
// generated workbook is also stored under the run ID.
type Filler struct {
	logger  *slog.Logger
	archive storage.Archive
}

// NewFiller creates a new fill service
func NewFiller(logger *slog.Logger, archive storage.Archive) *Filler {
	return &Filler{logger: logger, archive: archive}
}

// BuildRows converts the parsed items into output rows shaped for the given
// header map. Templates without dedicated description/destination columns get
// the folded material text; templates with combined quantity/unit or
// value/status columns get those composites instead of the split values.
func BuildRows(doc *parser.Document, headerMap map[string]int) []excel.Row {
	_, hasDescricao := headerMap["Descrição"]
	_, hasDestinacao := headerMap["Destinação"]
	_, hasQtdUnidade := headerMap["Quantidade/Unidade"]
	_, hasValorStatus := headerMap["Valor/Status"]
	_, hasUnidadeCol := headerMap["Unidade de Medida"]
	_, hasStatusCol := headerMap["Status do Item"]

	items := doc.Items()
	rows := make([]excel.Row, 0, len(items))
	for _, item := range items {
		fields := parser.ExtractFields(item.RawLines)

		material := fields.Bem
		if !hasDescricao && !hasDestinacao {
			material = parser.ComposeMaterial(fields.Bem, fields.Descricao, fields.Destinacao)
		}

		valorTotal := money.Format(fields.ValorTotal)
		var quantidade any
		quantidadeText := ""
		if n, ok := parser.ParseQuantity(fields.Quantidade); ok {
			quantidade = n
			quantidadeText = strconv.Itoa(n)
		} else {
			quantidade = ""
		}
		status := item.Status
		if status == "" {
			status = "Planejado"
		}

		quantidadeUnidade := ""
		if hasQtdUnidade && !hasUnidadeCol {
			switch {
			case quantidadeText != "" && fields.Unidade != "":
				quantidadeUnidade = quantidadeText + " " + fields.Unidade
			case quantidadeText != "":
				quantidadeUnidade = quantidadeText
			default:
				quantidadeUnidade = fields.Unidade
			}
		}
		valorStatus := ""
		if hasValorStatus && !hasStatusCol {
			switch {
			case valorTotal != "" && status != "":
				valorStatus = valorTotal + " | " + status
			case valorTotal != "":
				valorStatus = valorTotal
			default:
				valorStatus = status
			}
		}

		action := fields.Acao
		if action == "" {
			action = fields.Art
		}
		descricao := ""
		if hasDescricao {
			descricao = fields.Descricao
		}
		destinacao := ""
		if hasDestinacao {
			destinacao = fields.Destinacao
		}

		rows = append(rows, excel.Row{
			"Número da Meta Específica": item.Goal,
			"Número do Item":            item.Number,
			excel.ActionHeaderKey:       action,
			excel.ActionHeaderNumKey:    fields.ArtNum,
			"Material/Serviço":          material,
			"Descrição":                 descricao,
			"Destinação":                destinacao,
			"Instituição":               fields.Instituicao,
			"Natureza da Despesa":       fields.Natureza,
			"Quantidade Planejada":      quantidade,
			"Unidade de Medida":         fields.Unidade,
			"Quantidade/Unidade":        quantidadeUnidade,
			"Valor Planejado Total":     valorTotal,
			"Status do Item":            status,
			"Valor/Status":              valorStatus,
		})
	}
	return rows
}

// sumPlannedTotals aggregates the formatted per-item totals back into one
// decimal amount. Unparseable or empty values contribute nothing.
func sumPlannedTotals(rows []excel.Row) decimal.Decimal {
	total := decimal.Zero
	for _, row := range rows {
		value, ok := row["Valor Planejado Total"].(string)
		if !ok {
			continue
		}
		if d, ok := money.Parse(value); ok {
			total = total.Add(d)
		}
	}
	return total
}

// FillToFile fills the template at templatePath from the cleaned source lines
// and writes the result to outputPath.
func (f *Filler) FillToFile(ctx context.Context, templatePath, outputPath string, lines []string) (*Summary, []excel.Row, error) {
	data, summary, rows, err := f.run(ctx, templatePath, lines)
	if err != nil {
		return nil, nil, err
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return nil, nil, fmt.Errorf("failed to write output file: %w", err)
	}
	summary.OutputPath = outputPath

	if f.archive != nil {
		info, err := f.archive.Store(ctx, summary.RunID, filepath.Base(outputPath), bytes.NewReader(data))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to archive output: %w", err)
		}
		f.logger.Info("archived output",
			slog.String("run_id", summary.RunID.String()),
			slog.String("path", info.Path),
			slog.Int64("size", info.Size))
	}
	return summary, rows, nil
}

// FillToBytes fills the template and returns the serialized workbook.
func (f *Filler) FillToBytes(ctx context.Context, templatePath string, lines []string) ([]byte, *Summary, error) {
	data, summary, _, err := f.run(ctx, templatePath, lines)
	if err != nil {
		return nil, nil, err
	}
	return data, summary, nil
}

func (f *Filler) run(ctx context.Context, templatePath string, lines []string) ([]byte, *Summary, []excel.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, nil, err
	}
	if _, err := os.Stat(templatePath); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, templatePath)
	}
	tpl, err := excel.Open(templatePath)
	if err != nil {
		return nil, nil, nil, err
	}
	defer tpl.Close()

	summary, rows, err := f.fill(tpl, lines)
	if err != nil {
		return nil, nil, nil, err
	}
	data, err := tpl.Bytes()
	if err != nil {
		return nil, nil, nil, err
	}
	return data, summary, rows, nil
}

// fill mutates the loaded template in place and reports the run summary.
func (f *Filler) fill(tpl *excel.Template, lines []string) (*Summary, []excel.Row, error) {
	runID := uuid.New()
	doc := parser.Parse(lines)
	mode, err := tpl.Mode()
	if err != nil {
		return nil, nil, err
	}

	f.logger.Info("filling template",
		slog.String("run_id", runID.String()),
		slog.String("mode", string(mode)),
		slog.String("plan", doc.Signature.Sigla),
		slog.Int("year", doc.Signature.Year),
		slog.Int("goals", len(doc.Goals)))

	summary := &Summary{RunID: runID, Mode: mode, Goals: len(doc.Goals)}
	var rows []excel.Row

	switch mode {
	case excel.ModeNarrative:
		if err := tpl.InjectNarrative(doc); err != nil {
			return nil, nil, err
		}
		summary.MissingCells = excel.MissingNarrative(doc)

		headerRow, err := tpl.ItemsHeaderRow()
		if err != nil {
			return nil, nil, err
		}
		if headerRow > 0 {
			_, headerMap, err := tpl.HeaderInfo(headerRow)
			if err != nil {
				return nil, nil, err
			}
			rows = BuildRows(doc, headerMap)
			if len(rows) > 0 {
				if err := tpl.UpdateActionHeader(rows, headerMap, doc.Signature.Article(), headerRow); err != nil {
					return nil, nil, err
				}
				if err := tpl.FillRows(rows, headerMap, headerRow+1); err != nil {
					return nil, nil, err
				}
				cells, missingRows := excel.MissingFlat(rows, headerMap, headerRow+1)
				summary.MissingCells = append(summary.MissingCells, cells...)
				sort.Strings(summary.MissingCells)
				summary.MissingRows = missingRows
			}
		}
		if len(rows) == 0 {
			f.logger.Warn("no items extracted", slog.String("run_id", runID.String()))
		}

	default:
		_, headerMap, err := tpl.FlatHeaderInfo()
		if err != nil {
			return nil, nil, err
		}
		rows = BuildRows(doc, headerMap)
		if len(rows) == 0 {
			return nil, nil, ErrNoItems
		}
		if err := tpl.UpdateActionHeader(rows, headerMap, doc.Signature.Article(), excel.FlatHeaderRow); err != nil {
			return nil, nil, err
		}
		if err := tpl.FillRows(rows, headerMap, excel.FlatHeaderRow+1); err != nil {
			return nil, nil, err
		}
		summary.MissingCells, summary.MissingRows = excel.MissingFlat(rows, headerMap, excel.FlatHeaderRow+1)
	}
	summary.Items = len(rows)
	summary.Total = sumPlannedTotals(rows)

	if err := tpl.ResetView(); err != nil {
		return nil, nil, err
	}

	f.logger.Info("fill complete",
		slog.String("run_id", runID.String()),
		slog.Int("items", summary.Items),
		slog.String("total", money.FormatDecimal(summary.Total)),
		slog.Int("missing_cells", len(summary.MissingCells)))
	return summary, rows, nil
}
