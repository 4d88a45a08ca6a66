package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/sweepq/internal/sweep"
	"github.com/Iron-Ham/sweepq/internal/taskqueue"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Expand the sweep file and queue new experiments",
	Long: `Expand the parameter sweep into task records and append every record
that is not already queued. Running generate twice with the same sweep
queues nothing the second time.

Examples:
  sweepq generate
  sweepq generate --sweep grid.yaml --shuffle
  sweepq generate --clear --release-tasks`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

var (
	generateClear        bool
	generateShuffle      bool
	generateNoWarnings   bool
	generateReleaseTasks bool
)

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().BoolVar(&generateClear, "clear", false, "truncate the queue and rebuild it instead of appending")
	generateCmd.Flags().BoolVar(&generateShuffle, "shuffle", false, "shuffle new records with the configured seed before queueing")
	generateCmd.Flags().BoolVar(&generateNoWarnings, "no-warnings", false, "do not print a notice for keys discovered in sweep groups")
	generateCmd.Flags().BoolVar(&generateReleaseTasks, "release-tasks", false, "release all claimed tasks after generating")
	generateCmd.Flags().String("sweep", "", "sweep file (default sweep.yaml)")
	_ = viper.BindPFlag("generate.sweep_file", generateCmd.Flags().Lookup("sweep"))
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, q, logger, err := openQueue(uuid.NewString())
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	spec, err := sweep.Load(cfg.Generate.SweepFile)
	if err != nil {
		return err
	}

	warn := cfg.Generate.Warnings && !generateNoWarnings
	sw, err := sweep.Compile(spec, sweep.WithDiscoveryFunc(func(key string, pos int) {
		logger.Warn("key discovered in sweep group", "key", key, "position", pos)
		if warn {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %q is not in defaults, it is disabled where a group does not set it\n", key)
		}
	}))
	if err != nil {
		return err
	}

	res, err := q.Generate(sw.Records(), taskqueue.GenerateOptions{
		Clear:   generateClear,
		Shuffle: generateShuffle,
		Seed:    cfg.Generate.ShuffleSeed,
	})
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	logger.Info("generate finished",
		"sweep", cfg.Generate.SweepFile,
		"candidates", res.Candidates,
		"duplicates", res.Duplicates,
		"created", res.Created)

	if res.TransLogErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: tasks were queued but the translation log was not updated: %v\n", res.TransLogErr)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "created %d experiments\n", res.Created)
	if res.Duplicates > 0 {
		fmt.Fprintf(out, "skipped %d already queued\n", res.Duplicates)
	}

	if generateReleaseTasks {
		released, err := q.Release()
		if err != nil {
			return fmt.Errorf("release: %w", err)
		}
		fmt.Fprintf(out, "released %d tasks\n", released)
	}
	return nil
}
