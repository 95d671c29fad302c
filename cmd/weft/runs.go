package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/arbored/weft/pkg/analysis"
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect stored analysis runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the IDs of stored runs",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		store, closeStore := buildStore(cfg)
		defer closeStore()

		ids, err := store.List(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing runs: %v\n", err)
			os.Exit(1)
		}
		if len(ids) == 0 {
			fmt.Println("No stored runs.")
			return
		}
		for _, id := range ids {
			fmt.Println(id)
		}
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a stored run",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		reportOnly, _ := cmd.Flags().GetBool("report")

		cfg, _, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		store, closeStore := buildStore(cfg)
		defer closeStore()

		record, err := store.Load(cmd.Context(), args[0])
		if err != nil {
			fmt.Printf("Error loading run: %v\n", err)
			os.Exit(1)
		}

		if reportOnly {
			report, _ := record.Final[analysis.FieldReport].(string)
			printReport(report, false)
			return
		}

		out, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			fmt.Printf("Error encoding run: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
	},
}

var runsRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a stored run",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		store, closeStore := buildStore(cfg)
		defer closeStore()

		if err := store.Delete(cmd.Context(), args[0]); err != nil {
			fmt.Printf("Error deleting run: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Deleted %s\n", args[0])
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsRmCmd)

	runsShowCmd.Flags().Bool("report", false, "Print only the rendered report")
}
