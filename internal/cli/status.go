package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show embedding coverage and provider availability",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	eng, err := connect(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.Close()

	status, err := eng.svc.Status(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Provider available:  %v\n", status.Available)
	fmt.Printf("Model:               %s\n", status.Model)
	fmt.Printf("Expectations:        %d\n", status.TotalExpectations)
	fmt.Printf("Embedded:            %d\n", status.EmbeddedExpectations)
	fmt.Printf("Missing embeddings:  %d\n", status.MissingEmbeddings)
	return nil
}
