package main

import (
	"fmt"
	"strings"

	"github.com/arbored/weft"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of weft",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("weft version %s\n", strings.TrimSpace(weft.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
