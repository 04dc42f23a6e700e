package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"certverify/internal/registry"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect the certificate registry database",
}

var registryStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show registry record count",
	Args:  cobra.NoArgs,
	RunE:  runRegistryStats,
}

var registryLookupCmd = &cobra.Command{
	Use:   "lookup [prefix]",
	Short: "List records whose identifier starts with the given prefix",
	Example: `  # All records for the 2019 CS batch
  certverify registry lookup 1BG19CS`,
	Args: cobra.ExactArgs(1),
	RunE: runRegistryLookup,
}

func init() {
	rootCmd.AddCommand(registryCmd)
	registryCmd.AddCommand(registryStatsCmd)
	registryCmd.AddCommand(registryLookupCmd)

	registryCmd.PersistentFlags().String("db", envOr("REGISTRY_DB_PATH", "certs.db"), "Registry database path")
}

func openRegistry(cmd *cobra.Command) (*registry.SQLiteStore, error) {
	dbPath, _ := cmd.Flags().GetString("db")
	store, err := registry.OpenSQLite(dbPath, false)
	if err != nil {
		if errors.Is(err, registry.ErrStoreUnavailable) {
			return nil, fmt.Errorf("registry database not available at %s. Run 'certverify import' first", dbPath)
		}
		return nil, err
	}
	return store, nil
}

func runRegistryStats(cmd *cobra.Command, _ []string) error {
	store, err := openRegistry(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	count, err := store.Count(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("%d certificate records\n", count)
	return nil
}

func runRegistryLookup(cmd *cobra.Command, args []string) error {
	store, err := openRegistry(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.LookupByPattern(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No matching records")
		return nil
	}

	for _, rec := range records {
		fmt.Printf("%-14s %-30s %-40s %d\n", rec.PrimaryID, rec.HolderName, rec.Institution, rec.Year)
	}
	fmt.Printf("\n%d record(s)\n", len(records))
	return nil
}
