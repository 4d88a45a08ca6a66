// Package logging provides structured logging for sweepq runs.
//
// It wraps Go's log/slog JSON handler. A [Logger] writes to a file in the
// queue work directory, or to stderr when no directory is given, and carries
// persistent attributes such as the run id and the task store path so that
// interleaved logs from several generator processes can be told apart.
//
// # Thread Safety
//
// [Logger] and [RotatingWriter] are safe for concurrent use. Child loggers
// created with the With* methods share the parent's writer.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger(".sweepq", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	run := logger.WithRun("1f3a")
//	run.Info("appended tasks", "created", 12, "duplicates", 3)
//
// # Rotation
//
// [NewLoggerWithRotation] backs the logger with a [RotatingWriter] that
// renames the file to .1, .2, ... once it exceeds the configured size:
//
//	logger, err := logging.NewLoggerWithRotation(dir, "DEBUG", logging.RotationConfig{
//	    MaxSizeMB:  10,
//	    MaxBackups: 3,
//	})
package logging
