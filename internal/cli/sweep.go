package cli

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var sweepForce bool

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Generate embeddings for expectations that lack them",
	Long: `Sweep finds curriculum expectations without a stored embedding and
generates them in provider-sized batches. With --force, every expectation
is re-embedded, replacing stored vectors (use after changing the model).

Failed batches reduce the yield without aborting the run; re-run the sweep
to pick up stragglers.`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().BoolVar(&sweepForce, "force", false, "re-embed all expectations, replacing stored vectors")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, _ []string) error {
	eng, err := connect(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.Close()

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = progressbar.Default(int64(total), "embedding")
		}
		_ = bar.Set(done)
	}

	generated, err := eng.svc.GenerateMissing(cmd.Context(), sweepForce, progress)
	if err != nil {
		return err
	}
	if bar != nil {
		_ = bar.Finish()
	}

	fmt.Printf("Generated %d embeddings\n", generated)
	return nil
}
