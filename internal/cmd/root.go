package cmd

import (
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/sweepq/internal/config"
	"github.com/Iron-Ham/sweepq/internal/logging"
	"github.com/Iron-Ham/sweepq/internal/taskqueue"
)

var rootCmd = &cobra.Command{
	Use:   "sweepq",
	Short: "File-backed task queue for parameter sweeps",
	Long: `sweepq expands a YAML parameter sweep into concrete experiment records
and queues them in a shared work directory. Any number of processes may
generate, claim and release tasks concurrently; all coordination happens
through advisory file locks.`,
	SilenceUsage: true,
}

// stopSignals end the long-running --watch and --follow modes.
var stopSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/sweepq/config.yaml)")
	rootCmd.PersistentFlags().StringP("work-dir", "w", "", "queue work directory (default .sweepq)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("queue.work_dir", rootCmd.PersistentFlags().Lookup("work-dir"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/sweepq")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("SWEEPQ")
	// e.g., SWEEPQ_QUEUE_WORK_DIR for queue.work_dir
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// openQueue loads the configuration and returns a Queue over the configured
// work directory with its logger. A non-empty runID tags every line the
// logger and the Queue write. The caller closes the logger.
func openQueue(runID string) (*config.Config, *taskqueue.Queue, *logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	logger := logging.NopLogger()
	if cfg.Logging.Enabled {
		logger, err = logging.NewLoggerWithRotation(cfg.Queue.WorkDir, logging.ParseLevel(cfg.Logging.Level), logging.RotationConfig{
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
		})
		if err != nil {
			return nil, nil, nil, err
		}
	}

	if runID != "" {
		logger = logger.WithRun(runID)
	}

	q := taskqueue.New(cfg.Queue.Paths(), taskqueue.WithLogger(logger))
	return cfg, q, logger, nil
}
