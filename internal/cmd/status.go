package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
		"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Iron-Ham/sweepq/internal/taskqueue"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show queue status",
	Long: `Display the number of queued tasks, how many are free, claimed and done,
the free id ranges and the progress counters.

With --watch the status is redrawn whenever a queue file changes, until
interrupted.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var statusWatch bool

// maxShownRanges caps how many free ranges are listed.
const maxShownRanges = 8

var (
	statusTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A78BFA"))
	statusLabel   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).Width(12)
	statusFree    = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	statusClaimed = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	statusDone    = lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA"))
	statusError   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171"))
)

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusWatch, "watch", false, "redraw whenever the queue changes")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, q, logger, err := openQueue("")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	out := cmd.OutOrStdout()
	styled := isTerminal(out)

	render := func() error {
		st, err := q.Status()
		if err != nil {
			return err
		}
		if statusWatch && styled {
			// Clear screen and home the cursor.
			fmt.Fprint(out, "\x1b[H\x1b[2J")
		}
		fmt.Fprint(out, formatStatus(cfg.Queue.WorkDir, st, styled))
		return nil
	}

	if err := render(); err != nil {
		return err
	}
	if !statusWatch {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), stopSignals...)
	defer stop()
	return watchQueue(ctx, q.Paths(), render)
}

// isTerminal reports whether w is a terminal file.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// formatStatus renders a queue snapshot. Styling is applied only when
// styled is set so piped output stays plain.
func formatStatus(dir string, st taskqueue.Status, styled bool) string {
	style := func(s lipgloss.Style, v string) string {
		if !styled {
			return v
		}
		return s.Render(v)
	}
	label := func(v string) string {
		if !styled {
			return fmt.Sprintf("%-12s", v)
		}
		return statusLabel.Render(v)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", style(statusTitle, "Queue: "+dir))
	fmt.Fprintf(&sb, "%s%d\n", label("tasks"), st.Tasks)
	fmt.Fprintf(&sb, "%s%s  %s  %s\n", label("markers"),
		style(statusFree, fmt.Sprintf("%d free", st.Markers.Free)),
		style(statusClaimed, fmt.Sprintf("%d claimed", st.Markers.Claimed)),
		style(statusDone, fmt.Sprintf("%d done", st.Markers.Done)))
	if st.Markers.Other > 0 {
		fmt.Fprintf(&sb, "%s%s\n", label(""), style(statusError, fmt.Sprintf("%d unrecognized markers", st.Markers.Other)))
	}

	ranges := make([]string, 0, min(len(st.FreeRanges), maxShownRanges))
	for i, r := range st.FreeRanges {
		if i == maxShownRanges {
			ranges = append(ranges, fmt.Sprintf("... %d more", len(st.FreeRanges)-maxShownRanges))
			break
		}
		ranges = append(ranges, r.String())
	}
	if len(ranges) == 0 {
		ranges = append(ranges, "none")
	}
	fmt.Fprintf(&sb, "%s%s\n", label("free ranges"), strings.Join(ranges, " "))

	counters := make([]string, 0, 4)
	for c := taskqueue.CounterClaimed; c <= taskqueue.CounterReleased; c++ {
		counters = append(counters, fmt.Sprintf("%s=%d", c, st.Progress.Get(c)))
	}
	fmt.Fprintf(&sb, "%s%s\n", label("progress"), strings.Join(counters, " "))
	return sb.String()
}

// watchQueue calls render after changes to any queue file settle, until ctx
// is done. The directory is watched rather than the files so atomically
// created files are seen too.
func watchQueue(ctx context.Context, paths taskqueue.Paths, render func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	watched := make(map[string]bool)
	for _, p := range []string{paths.Store, paths.Tracker, paths.Progress} {
		dir := filepath.Dir(p)
		if !watched[dir] {
			// The queue may not have been generated yet.
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create %s: %w", dir, err)
			}
			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
			watched[dir] = true
		}
	}
	relevant := map[string]bool{
		filepath.Clean(paths.Store):    true,
		filepath.Clean(paths.Tracker):  true,
		filepath.Clean(paths.Progress): true,
	}

	// Debounce: a generate touches several files in quick succession.
	debounce := time.NewTimer(0)
	<-debounce.C

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || !relevant[filepath.Clean(event.Name)] {
				continue
			}
			debounce.Reset(100 * time.Millisecond)

		case <-debounce.C:
			if err := render(); err != nil {
				return err
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch: %w", err)
		}
	}
}
