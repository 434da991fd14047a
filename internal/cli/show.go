package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JunkyDeveloper/flint-core/internal/results"
)

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	var database string

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a recorded run report",
		Long: `Print the full report of a recorded run, including passed steps.

With --format json the stored report is printed together with its digest.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, rootOpts, database, args[0])
		},
	}

	cmd.Flags().StringVar(&database, "db", "", "run database path (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runShow(cmd *cobra.Command, opts *RootOptions, database, id string) error {
	formatter := opts.formatter(cmd)

	st, err := openExistingStore(formatter, database)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.GetRun(cmd.Context(), id)
	if err != nil {
		return lookupError(formatter, id, err)
	}

	if formatter.JSON() {
		return formatter.Success(run)
	}

	fmt.Fprintf(formatter.Writer, "Run %s (%s)\n", run.ID, run.Server)
	fmt.Fprintf(formatter.Writer, "Digest: %s\n\n", run.Digest)
	if err := results.WriteText(formatter.Writer, run.Report, true); err != nil {
		return err
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
