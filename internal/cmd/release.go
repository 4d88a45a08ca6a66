package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Return claimed tasks to the queue",
	Long: `Reset every claimed task back to free so workers pick it up again.
Use this after workers crashed or were killed while holding tasks.
Completed tasks are not touched.`,
	Args: cobra.NoArgs,
	RunE: runRelease,
}

func init() {
	rootCmd.AddCommand(releaseCmd)
}

func runRelease(cmd *cobra.Command, args []string) error {
	_, q, logger, err := openQueue("")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	released, err := q.Release()
	if err != nil {
		return fmt.Errorf("release: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "released %d tasks\n", released)
	return nil
}
