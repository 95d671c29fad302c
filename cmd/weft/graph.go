package main

import (
	"fmt"
	"os"

	"github.com/arbored/weft/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the workflow graph visualization",
	Long:  `Outputs a Mermaid diagram (graph TD) representing the analysis pipeline.`,
	Run: func(cmd *cobra.Command, args []string) {
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

		fmt.Print(graph.GenerateMermaid(g, nil))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
