package tui

import (
	"os"
	"path/filepath"
)

// GetLogFilePath returns the default log file location: inside the git
// directory when there is one, otherwise ~/.stacks/logs/stacks.log.
func GetLogFilePath(gitDir string) string {
	if gitDir != "" {
		return filepath.Join(gitDir, "stacks", "logs", "stacks.log")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "stacks.log"
	}
	return filepath.Join(homeDir, ".stacks", "logs", "stacks.log")
}
