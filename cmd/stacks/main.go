package main

import (
	"os"

	"stackit.dev/stacks/internal/cli"
	"stackit.dev/stacks/internal/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := cli.NewRootCmd(version, commit, date)
	if err := rootCmd.Execute(); err != nil {
		splog, _ := tui.NewSplogWithWriter(os.Stderr, tui.LogFileOptions{})
		splog.Error("%v", err)
		os.Exit(1)
	}
}
