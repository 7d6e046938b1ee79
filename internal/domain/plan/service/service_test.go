package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/marcospaullo18mp-del/Preenche-Planilhas/internal/domain/plan/excel"
	"github.com/marcospaullo18mp-del/Preenche-Planilhas/internal/domain/plan/parser"
	"github.com/marcospaullo18mp-del/Preenche-Planilhas/pkg/money"
	"github.com/marcospaullo18mp-del/Preenche-Planilhas/pkg/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sourceLines() []string {
	return []string{
		"BR - ECV - 2021",
		"META ESPECÍFICA 1",
		"Item 1 Planejado",
		"Ação: Aquisição de mobiliário",
		"Bem/Serviço: Mesa de escritório",
		"Descrição: Mesa em L com gaveteiro",
		"Destinação: Delegacia central",
		"Instituição: Polícia Civil",
		"Natureza (ND): 449052",
		"Unidade de Medida: Unidade",
		"Qtd. Planejada: 10",
		"Valor Total: R$ 1234,5",
		"Item 2",
		"Bem/Serviço: Cadeira giratória",
		"Valor Total: R$ 200,00",
	}
}

func canonicalHeaderMap() map[string]int {
	headerMap := make(map[string]int, len(excel.OutputHeaders))
	for idx, header := range excel.OutputHeaders {
		headerMap[excel.HeaderKey(header)] = idx + 1
	}
	return headerMap
}

func writeFlatTemplate(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	for idx, header := range excel.OutputHeaders {
		cell, err := excelize.CoordinatesToCellName(idx+1, excel.FlatHeaderRow)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, header))
	}
	path := filepath.Join(t.TempDir(), "modelo.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

// writeNarrativeTemplate lays out the analysis title, one goal block at the
// canonical anchor and an item table below it.
func writeNarrativeTemplate(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	require.NoError(t, f.SetCellValue(sheet, "A2", excel.AnalysisTitle))
	require.NoError(t, f.MergeCell(sheet, "A14", "A24"))

	titleRow := excel.BlockStartRow + excel.BlockHeight + 1
	require.NoError(t, f.SetCellValue(sheet, fmt.Sprintf("A%d", titleRow), excel.ItemsTitle))
	headerRow := titleRow + 1
	for idx, header := range excel.OutputHeaders {
		cell, err := excelize.CoordinatesToCellName(idx+1, headerRow)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, header))
	}
	path := filepath.Join(t.TempDir(), "analise.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestBuildRows(t *testing.T) {
	doc := parser.Parse(sourceLines())
	rows := BuildRows(doc, canonicalHeaderMap())
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, 1, first["Número da Meta Específica"])
	assert.Equal(t, 1, first["Número do Item"])
	assert.Equal(t, "6", first[excel.ActionHeaderNumKey])
	assert.Equal(t, "Mesa de escritório", first["Material/Serviço"],
		"dedicated description column keeps the material plain")
	assert.Equal(t, "Mesa em L com gaveteiro", first["Descrição"])
	assert.Equal(t, "Delegacia central", first["Destinação"])
	assert.Equal(t, 10, first["Quantidade Planejada"])
	assert.Equal(t, "R$ 1.234,50", first["Valor Planejado Total"])
	assert.Equal(t, "Planejado", first["Status do Item"])

	second := rows[1]
	assert.Equal(t, "Planejado", second["Status do Item"], "empty status defaults")
	assert.Equal(t, "", second["Quantidade Planejada"])
}

func TestBuildRowsComposedMaterial(t *testing.T) {
	doc := parser.Parse(sourceLines())
	headerMap := map[string]int{
		"Número da Meta Específica": 1,
		"Número do Item":            2,
		"Material/Serviço":          3,
	}
	rows := BuildRows(doc, headerMap)
	require.Len(t, rows, 2)
	assert.Equal(t,
		"Bem/Serviço: Mesa de escritório | Descrição: Mesa em L com gaveteiro | Destinação: Delegacia central",
		rows[0]["Material/Serviço"])
	assert.Equal(t, "", rows[0]["Descrição"], "folded templates leave the split fields blank")
}

func TestBuildRowsCompositeColumns(t *testing.T) {
	doc := parser.Parse(sourceLines())
	headerMap := map[string]int{
		"Número da Meta Específica": 1,
		"Número do Item":            2,
		"Quantidade/Unidade":        3,
		"Valor/Status":              4,
	}
	rows := BuildRows(doc, headerMap)
	require.Len(t, rows, 2)
	assert.Equal(t, "10 Unidade", rows[0]["Quantidade/Unidade"])
	assert.Equal(t, "R$ 1.234,50 | Planejado", rows[0]["Valor/Status"])
	assert.Equal(t, "R$ 200,00 | Planejado", rows[1]["Valor/Status"])
	assert.Equal(t, "", rows[1]["Quantidade/Unidade"], "no quantity and no unit stays empty")
}

func TestBuildRowsCompositeSkippedWhenSplitColumnsExist(t *testing.T) {
	doc := parser.Parse(sourceLines())
	rows := BuildRows(doc, canonicalHeaderMap())
	assert.Equal(t, "", rows[0]["Quantidade/Unidade"])
	assert.Equal(t, "", rows[0]["Valor/Status"])
}

func TestFillToFileFlat(t *testing.T) {
	templatePath := writeFlatTemplate(t)
	outputPath := filepath.Join(t.TempDir(), "saida.xlsx")
	filler := NewFiller(testLogger(), nil)

	summary, rows, err := filler.FillToFile(context.Background(), templatePath, outputPath, sourceLines())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, excel.ModeFlat, summary.Mode)
	assert.Equal(t, 1, summary.Goals)
	assert.Equal(t, 2, summary.Items)
	assert.Equal(t, outputPath, summary.OutputPath)
	assert.NotEmpty(t, summary.MissingCells, "second item has blank fields")
	assert.Equal(t, 1, summary.MissingRows)
	assert.Equal(t, "R$ 1.434,50", money.FormatDecimal(summary.Total),
		"item totals aggregate into the run total")

	out, err := excelize.OpenFile(outputPath)
	require.NoError(t, err)
	defer out.Close()
	sheet := out.GetSheetName(out.GetActiveSheetIndex())

	header, err := out.GetCellValue(sheet, "C2")
	require.NoError(t, err)
	assert.Equal(t, "Ação conforme Art. 6º da portaria nº 685", header,
		"plan signature drives the article header")

	material, err := out.GetCellValue(sheet, "D3")
	require.NoError(t, err)
	assert.Equal(t, "Mesa de escritório", material)
	total, err := out.GetCellValue(sheet, "K3")
	require.NoError(t, err)
	assert.Equal(t, "R$ 1.234,50", total)
	status, err := out.GetCellValue(sheet, "L4")
	require.NoError(t, err)
	assert.Equal(t, "Planejado", status)
}

func TestFillToFileNarrativeScansItemTable(t *testing.T) {
	templatePath := writeNarrativeTemplate(t)
	outputPath := filepath.Join(t.TempDir(), "saida.xlsx")
	filler := NewFiller(testLogger(), nil)

	summary, rows, err := filler.FillToFile(context.Background(), templatePath, outputPath, sourceLines())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, excel.ModeNarrative, summary.Mode)
	assert.Equal(t, 2, summary.Items)
	assert.Equal(t, "R$ 1.434,50", money.FormatDecimal(summary.Total))

	// Structural block slots and the blank item-table cells both surface.
	assert.Contains(t, summary.MissingCells, "F14")
	assert.Contains(t, summary.MissingCells, "C29", "second item has no action text")
	assert.Contains(t, summary.MissingCells, "E29", "second item has no description")
	assert.Equal(t, 1, summary.MissingRows)
	assert.True(t, sort.StringsAreSorted(summary.MissingCells))

	out, err := excelize.OpenFile(outputPath)
	require.NoError(t, err)
	defer out.Close()
	sheet := out.GetSheetName(out.GetActiveSheetIndex())

	header, err := out.GetCellValue(sheet, "C27")
	require.NoError(t, err)
	assert.Equal(t, "Ação conforme Art. 6º da portaria nº 685", header)
	material, err := out.GetCellValue(sheet, "D28")
	require.NoError(t, err)
	assert.Equal(t, "Mesa de escritório", material)
	status, err := out.GetCellValue(sheet, "L29")
	require.NoError(t, err)
	assert.Equal(t, "Planejado", status)
}

func TestFillToBytes(t *testing.T) {
	templatePath := writeFlatTemplate(t)
	filler := NewFiller(testLogger(), nil)

	data, summary, err := filler.FillToBytes(context.Background(), templatePath, sourceLines())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Items)
	assert.NotEmpty(t, data)
}

func TestFillTemplateNotFound(t *testing.T) {
	filler := NewFiller(testLogger(), nil)
	_, _, err := filler.FillToFile(context.Background(), filepath.Join(t.TempDir(), "nao-existe.xlsx"), "out.xlsx", sourceLines())
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestFillNoItemsOnFlatTemplate(t *testing.T) {
	templatePath := writeFlatTemplate(t)
	filler := NewFiller(testLogger(), nil)
	_, _, err := filler.FillToFile(context.Background(), templatePath, filepath.Join(t.TempDir(), "out.xlsx"), []string{"texto sem metas"})
	assert.ErrorIs(t, err, ErrNoItems)
}

func TestFillToFileArchives(t *testing.T) {
	templatePath := writeFlatTemplate(t)
	archiveDir := t.TempDir()
	archive, err := storage.NewLocalArchive(archiveDir)
	require.NoError(t, err)
	filler := NewFiller(testLogger(), archive)

	outputPath := filepath.Join(t.TempDir(), "saida.xlsx")
	summary, _, err := filler.FillToFile(context.Background(), templatePath, outputPath, sourceLines())
	require.NoError(t, err)

	infos, err := archive.List(context.Background(), summary.RunID)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "saida.xlsx", infos[0].Name)

	stat, err := os.Stat(infos[0].Path)
	require.NoError(t, err)
	assert.Equal(t, stat.Size(), infos[0].Size)
}
