// Package main is the entry point for the tactics CLI
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tactics",
	Short: "Tactical combat engine",
	Long:  `Tactics runs deterministic grid battles between two armies and stores encounter state in memory or Redis.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}
