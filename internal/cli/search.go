package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daybook-edu/daybook/internal/semantic"
)

var (
	searchLimit     int
	searchThreshold float64
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find expectations similar to free text",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum results (default from config)")
	searchCmd.Flags().Float64VarP(&searchThreshold, "threshold", "t", -1, "minimum similarity (default from config)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	eng, err := connect(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.Close()

	query := strings.Join(args, " ")

	opts := semantic.SearchOptions{Limit: searchLimit}
	if cmd.Flags().Changed("threshold") {
		opts.Threshold = &searchThreshold
	}

	matches, err := eng.svc.SearchByText(cmd.Context(), query, opts)
	if err != nil {
		return err
	}

	if len(matches) == 0 {
		fmt.Println("No matches")
		return nil
	}

	for _, m := range matches {
		fmt.Printf("%.4f  %-12s %s\n", m.Similarity, m.Expectation.Code, m.Expectation.Description)
	}
	return nil
}
