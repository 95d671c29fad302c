package main

import (
	"fmt"
	"os"

	"github.com/arbored/weft"
	"github.com/arbored/weft/internal/runtime"
	"github.com/spf13/cobra"
)

// validateCmd checks the pipeline graph without running it.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the workflow graph structure",
	Long: `Compiles the analysis pipeline and checks it for cycles, unreachable
nodes, and paths that never terminate. With --ownership it also rejects
graphs where two nodes declare the same output field.`,
	Run: func(cmd *cobra.Command, args []string) {
		ownership, _ := cmd.Flags().GetBool("ownership")

		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}

		g, err := buildPipelineGraph(cfg, logger)
		if err != nil {
			fmt.Printf("Graph is invalid: %v\n", err)
			os.Exit(1)
		}

		if err := weft.Validate(g); err != nil {
			fmt.Printf("Graph is invalid: %v\n", err)
			os.Exit(1)
		}
		if ownership {
			if err := runtime.ValidateOwnership(g); err != nil {
				fmt.Printf("Graph is invalid: %v\n", err)
				os.Exit(1)
			}
		}

		fmt.Printf("Graph %q is valid: %d nodes, entry %q\n", g.Name(), len(g.Nodes()), g.Entry())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().Bool("ownership", false, "Also check that no two nodes produce the same field")
}
