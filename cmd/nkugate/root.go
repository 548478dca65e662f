package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "nkugate",
	Short: "Nku Gateway - security gateway for clinical inference endpoints",
	Long: `Nku Gateway is a request security gateway that sits in front of
LLM-backed clinical translation and triage endpoints.

Every request passes through a fixed pipeline: client identity resolution,
rate limiting, input validation, safe prompt construction, the model call,
and output guarding. Rejections are generic toward the caller and detailed
in server-side logs and the audit store.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
}
