package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"certverify/internal/logger"
	"certverify/internal/registry"
)

var importCmd = &cobra.Command{
	Use:   "import [csv-file]",
	Short: "Bulk import certificate records into the registry database",
	Long: `Load a CSV export of issued certificates into the registry database.

Column headers are matched loosely: "Serial No.", "Reg No" and "USN" all map
to the identifier, "Son's Name" and "Student Name" to the holder name, and so
on. Records are upserted by registration number, so re-importing a corrected
file replaces the earlier rows. Rows that cannot be mapped are logged and
skipped; the import continues.`,
	Example: `  # Import a student export, creating the database if needed
  certverify import students.csv

  # Supply institution and degree for files that do not carry them
  certverify import students.csv \
    --institution "B.N.M. INSTITUTE OF TECHNOLOGY, BANGALORE" \
    --degree "B.E. Computer Science & Engineering"`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("db", envOr("REGISTRY_DB_PATH", "certs.db"), "Registry database path")
	importCmd.Flags().String("institution", "", "Institution for rows without an institution column")
	importCmd.Flags().String("degree", "", "Degree for rows without a degree column")
	importCmd.Flags().String("type", "Degree Certificate", "Record type for imported rows")
	importCmd.Flags().String("notes", "", "Notes annotation for imported rows")
}

func runImport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("import-cmd")

	dbPath, _ := cmd.Flags().GetString("db")
	institution, _ := cmd.Flags().GetString("institution")
	degree, _ := cmd.Flags().GetString("degree")
	recordType, _ := cmd.Flags().GetString("type")
	notes, _ := cmd.Flags().GetString("notes")

	csvPath := args[0]

	csvFile, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() {
		if closeErr := csvFile.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close CSV file")
		}
	}()

	store, err := registry.OpenSQLite(dbPath, true)
	if err != nil {
		return fmt.Errorf("failed to open registry database: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close registry store")
		}
	}()

	log.Info().
		Str("csv", csvPath).
		Str("db", dbPath).
		Msg("Starting registry import")

	importer := registry.NewImporter(store)
	summary, err := importer.Import(cmd.Context(), csvFile, registry.ImportDefaults{
		Institution: institution,
		Degree:      degree,
		RecordType:  recordType,
		Notes:       notes,
	})
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	total, err := store.Count(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to count records: %w", err)
	}

	fmt.Printf("Imported: %d rows\n", summary.Imported)
	fmt.Printf("Skipped:  %d rows\n", summary.Skipped)
	fmt.Printf("Registry now holds %d certificate records\n", total)
	return nil
}
