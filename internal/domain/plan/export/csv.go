// Package export renders the extracted item rows as CSV for inspection
// without a spreadsheet application.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/marcospaullo18mp-del/Preenche-Planilhas/internal/domain/plan/excel"
)

// ItemRow is the CSV projection of one extracted item. The tags mirror the
// canonical output headers; the action column carries only the article number
// since the rendered header text is spreadsheet-specific.
type ItemRow struct {
	Goal        string `csv:"Número da Meta Específica"`
	Item        string `csv:"Número do Item"`
	Article     string `csv:"Ação conforme Art. Nº da portaria nº 685"`
	Material    string `csv:"Material/Serviço"`
	Description string `csv:"Descrição"`
	Destination string `csv:"Destinação"`
	Institution string `csv:"Instituição"`
	Nature      string `csv:"Natureza da Despesa"`
	Quantity    string `csv:"Quantidade Planejada"`
	Unit        string `csv:"Unidade de Medida"`
	Total       string `csv:"Valor Planejado Total"`
	Status      string `csv:"Status do Item"`
}

// WriteCSV serializes the rows with a semicolon delimiter, the separator
// pt-BR spreadsheet applications expect.
func WriteCSV(w io.Writer, rows []excel.Row) error {
	items := make([]ItemRow, 0, len(rows))
	for _, row := range rows {
		items = append(items, ItemRow{
			Goal:        stringify(row["Número da Meta Específica"]),
			Item:        stringify(row["Número do Item"]),
			Article:     stringify(row[excel.ActionHeaderNumKey]),
			Material:    stringify(row["Material/Serviço"]),
			Description: stringify(row["Descrição"]),
			Destination: stringify(row["Destinação"]),
			Institution: stringify(row["Instituição"]),
			Nature:      stringify(row["Natureza da Despesa"]),
			Quantity:    stringify(row["Quantidade Planejada"]),
			Unit:        stringify(row["Unidade de Medida"]),
			Total:       stringify(row["Valor Planejado Total"]),
			Status:      stringify(row["Status do Item"]),
		})
	}

	writer := csv.NewWriter(w)
	writer.Comma = ';'
	if err := gocsv.MarshalCSV(&items, gocsv.NewSafeCSVWriter(writer)); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
