// Package main is the entry point for the docker-revive CLI.
//
// This binary restores Docker containers whose restart policy should
// have kept them running, after an environment restart in which the
// daemon was not yet available when the policy would normally apply.
// All functionality lives in the internal/cli package.
//
// Build-time variables (version, commit, date) are injected via ldflags
// during the release process. During development, they default to
// "dev", "none", and "unknown" respectively.
package main

import (
	"github.com/shinji-kodama/docker-revive/internal/cli"
)

// version, commit, and date are set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	rootCmd := cli.NewRootCommand()
	cli.Execute(rootCmd)
}
