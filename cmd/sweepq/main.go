// Command sweepq expands parameter sweeps into a shared, file-backed task
// queue.
package main

import (
	"os"

	"github.com/Iron-Ham/sweepq/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
