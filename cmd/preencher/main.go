package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcospaullo18mp-del/Preenche-Planilhas/internal/domain/plan/export"
	"github.com/marcospaullo18mp-del/Preenche-Planilhas/internal/domain/plan/parser"
	"github.com/marcospaullo18mp-del/Preenche-Planilhas/internal/domain/plan/service"
	"github.com/marcospaullo18mp-del/Preenche-Planilhas/pkg/config"
	"github.com/marcospaullo18mp-del/Preenche-Planilhas/pkg/money"
	"github.com/marcospaullo18mp-del/Preenche-Planilhas/pkg/storage"
)

var version = "0.1.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cfg := config.Load()

	var (
		sourcePath   string
		templatePath string
		outputPath   string
		csvPath      string
		archiveDir   string
	)

	cmd := &cobra.Command{
		Use:          "preencher",
		Short:        "Preenche planilhas de Plano de Aplicação a partir do texto extraído",
		Long:         "Lê o texto extraído de um Plano de Aplicação, identifica metas, itens e\nnarrativas e preenche a planilha modelo correspondente.",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cfg.Logging.Level)

			raw, err := os.ReadFile(sourcePath)
			if err != nil {
				return fmt.Errorf("texto de origem não encontrado: %s", sourcePath)
			}
			lines := parser.SplitPageText(string(raw))

			var archive storage.Archive
			if archiveDir != "" {
				local, err := storage.NewLocalArchive(archiveDir)
				if err != nil {
					return fmt.Errorf("failed to open archive directory: %w", err)
				}
				archive = local
			}

			filler := service.NewFiller(logger, archive)
			summary, rows, err := filler.FillToFile(cmd.Context(), templatePath, outputPath, lines)
			switch {
			case errors.Is(err, service.ErrTemplateNotFound):
				return fmt.Errorf("planilha modelo não encontrada: %s", templatePath)
			case errors.Is(err, service.ErrNoItems):
				return errors.New("nenhum item encontrado no texto de origem")
			case err != nil:
				return err
			}

			if csvPath != "" {
				f, err := os.Create(csvPath)
				if err != nil {
					return fmt.Errorf("failed to create csv file: %w", err)
				}
				defer f.Close()
				if err := export.WriteCSV(f, rows); err != nil {
					return err
				}
				fmt.Printf("CSV gerado: %s\n", csvPath)
			}

			fmt.Printf("Itens extraídos: %d\n", summary.Items)
			fmt.Printf("Valor total planejado: %s\n", money.FormatDecimal(summary.Total))
			fmt.Printf("Arquivo gerado: %s\n", summary.OutputPath)
			if len(summary.MissingCells) > 0 {
				fmt.Printf("Células sem dados (%d): %s\n",
					len(summary.MissingCells), strings.Join(summary.MissingCells, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sourcePath, "source", "", "arquivo texto com as linhas extraídas do PDF")
	cmd.Flags().StringVar(&templatePath, "template", cfg.Template.Path, "planilha modelo de entrada")
	cmd.Flags().StringVar(&outputPath, "output", cfg.Output.Path, "planilha de saída")
	cmd.Flags().StringVar(&csvPath, "csv", "", "também exporta os itens como CSV neste caminho")
	cmd.Flags().StringVar(&archiveDir, "archive", cfg.Output.ArchiveDir, "diretório de arquivamento dos resultados por execução")
	_ = cmd.MarkFlagRequired("source")

	return cmd
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
