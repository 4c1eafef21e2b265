package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"organizer/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:           "ledgerctl",
	Short:         "Administer the organizer ledger",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		return cli.LoadEnvFile(envFile)
	},
}

var envFile string

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load before reading configuration.")
	rootCmd.AddCommand(migrateCmd, listCmd, summaryCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ledgerctl:", err)
		os.Exit(1)
	}
}
