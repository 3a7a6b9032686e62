package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/camino-run/camino"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of camino",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("camino version %s\n", strings.TrimSpace(camino.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
