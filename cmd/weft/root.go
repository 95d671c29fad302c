package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/arbored/weft"
	"github.com/arbored/weft/internal/cli"
	"github.com/arbored/weft/internal/logging"
	"github.com/arbored/weft/pkg/adapters/memory"
	redisAdapter "github.com/arbored/weft/pkg/adapters/redis"
	"github.com/arbored/weft/pkg/analysis"
	"github.com/arbored/weft/pkg/domain"
	"github.com/arbored/weft/pkg/llm"
	"github.com/arbored/weft/pkg/market"
	"github.com/arbored/weft/pkg/ports"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "weft",
	Short: "Weft is a concurrent workflow engine for stock analysis",
	Long: `Weft runs multi-agent analysis workflows as dependency graphs.
The built-in pipeline collects market data for a ticker, runs three analyst
agents in parallel, and combines their findings into an investment report.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "weft.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}

// loadConfig reads the configured file and builds the logger alongside it.
func loadConfig(cmd *cobra.Command) (cli.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := cli.Load(path)
	if err != nil {
		return cfg, nil, err
	}

	level := cfg.Level()
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	logger := logging.New(level)
	slog.SetDefault(logger)

	return cfg, logger, nil
}

// buildStore selects the run store: Redis when configured, memory otherwise.
// The returned closer releases the Redis connection.
func buildStore(cfg cli.Config) (ports.RunStore, func()) {
	if cfg.Redis.Addr == "" {
		return memory.NewStore(), func() {}
	}

	store := redisAdapter.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
		redisAdapter.WithTTL(cfg.Redis.TTL.Std()),
	)
	return store, func() { _ = store.Close() }
}

// buildEngine assembles the workflow engine from config.
func buildEngine(cfg cli.Config, logger *slog.Logger, hooks domain.LifecycleHooks) *weft.Engine {
	opts := []weft.Option{
		weft.WithLogger(logger),
		weft.WithLifecycleHooks(hooks),
	}
	if cfg.MaxConcurrent > 0 {
		opts = append(opts, weft.WithMaxConcurrent(cfg.MaxConcurrent))
	}
	return weft.New(opts...)
}

// buildPipelineGraph compiles the stock-analysis graph over the real data
// source and model.
func buildPipelineGraph(cfg cli.Config, logger *slog.Logger) (*domain.Graph, error) {
	source := market.NewYahooClient(market.WithYahooLogger(logger))
	model := llm.New(cfg.LLM, logger)

	pipeline := analysis.NewPipeline(source, model, analysis.WithPipelineLogger(logger))
	return pipeline.Graph()
}
