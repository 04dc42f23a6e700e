package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"certverify/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "certverify",
	Short: "certverify - verify scanned academic certificates against a registry",
	Long: `certverify checks scanned academic certificates for authenticity.

It extracts text from a certificate image through an external OCR service,
finds candidate registration numbers, looks them up in the local registry
database, fuzzy-matches the remaining fields (name, institution, degree,
year), and produces an AUTHENTIC / SUSPECT / REJECTED decision with
human-readable reasons. An external seal classifier verdict can be folded
into the decision.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("certverify executed")

		fmt.Println("certverify - certificate verification")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
