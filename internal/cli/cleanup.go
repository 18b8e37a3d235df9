package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete embeddings produced by a model other than the current one",
	Long: `Cleanup evicts embedding records whose model does not match the
currently configured one. Run it after a model upgrade; the next sweep or
access regenerates the evicted records. Idempotent.`,
	Args: cobra.NoArgs,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, _ []string) error {
	eng, err := connect(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.Close()

	deleted, err := eng.svc.CleanupStale(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Deleted %d stale embeddings (current model: %s)\n", deleted, eng.svc.Model())
	return nil
}
