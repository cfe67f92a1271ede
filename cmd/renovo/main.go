package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:           "renovo",
	Short:         "AI renovation planner daemon and CLI",
	Long:          "renovo analyzes home photos with generative AI to suggest, visualize, and budget renovation projects.",
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       version,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(visualizeCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(receiptCmd)
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(shopCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
