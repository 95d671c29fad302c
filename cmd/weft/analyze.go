package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/arbored/weft/internal/presentation/tui"
	"github.com/arbored/weft/pkg/analysis"
	"github.com/arbored/weft/pkg/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// analyzeCmd runs the pipeline once for a symbol and prints the report.
var analyzeCmd = &cobra.Command{
	Use:   "analyze <symbol>",
	Short: "Run the full analysis workflow for a ticker symbol",
	Long: `Collects market data for the symbol, runs the financial, news, and
technical analysts in parallel, and prints the combined investment report.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		symbol := strings.ToUpper(args[0])
		raw, _ := cmd.Flags().GetBool("raw")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}

		g, err := buildPipelineGraph(cfg, logger)
		if err != nil {
			fmt.Printf("Error building pipeline: %v\n", err)
			os.Exit(1)
		}

		store, closeStore := buildStore(cfg)
		defer closeStore()

		engine := buildEngine(cfg, logger, domain.LifecycleHooks{})

		if term.IsTerminal(int(os.Stdout.Fd())) && !raw {
			tui.PrintBanner()
		}
		fmt.Printf("Analyzing %s...\n\n", symbol)

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		record := &domain.RunRecord{
			ID:        uuid.NewString(),
			Graph:     g.Name(),
			StartedAt: time.Now().UTC(),
		}

		final, err := engine.Run(ctx, g, map[string]any{
			analysis.FieldSymbol: symbol,
		})
		record.Duration = time.Since(record.StartedAt)

		if err != nil {
			record.Error = err.Error()
			var wfErr *domain.WorkflowError
			if errors.As(err, &wfErr) {
				record.FailedNode = wfErr.Node
				record.Final = wfErr.Partial
			}
			_ = store.Save(cmd.Context(), record)

			fmt.Printf("Analysis failed: %v\n", err)
			os.Exit(1)
		}

		record.Final = final
		if err := store.Save(cmd.Context(), record); err != nil {
			logger.Warn("failed to persist run", "err", err)
		}

		report, _ := final[analysis.FieldReport].(string)
		printReport(report, raw)
		fmt.Printf("\nRun %s completed in %s\n", record.ID, record.Duration.Round(time.Millisecond))
	},
}

func printReport(report string, raw bool) {
	if raw || !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Println(report)
		return
	}

	render := tui.NewRenderer()
	pretty, err := render(report)
	if err != nil {
		fmt.Println(report)
		return
	}
	fmt.Print(pretty)
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().Bool("raw", false, "Print the report as plain markdown without styling")
	analyzeCmd.Flags().Duration("timeout", 10*time.Minute, "Abort the run after this duration")
}
