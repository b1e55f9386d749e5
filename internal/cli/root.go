// Package cli implements the cobra command for docker-revive.
//
// docker-revive is a one-purpose tool, so the root command itself is the
// action: wait for the Docker runtime to become available, then run one
// restore pass over all containers and exit. There are no subcommands.
//
// Flags are bound through viper so every option can also be supplied via
// DOCKER_REVIVE_* environment variables or a YAML/JSONC config file;
// precedence is flag > environment > file > built-in default.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shinji-kodama/docker-revive/internal/config"
	"github.com/shinji-kodama/docker-revive/internal/model"
)

// Version, Commit and Date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
// Each invocation gets its own viper instance, so tests can build and
// run commands without sharing global state.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	config.SetDefaults(v)

	var configFile string

	cmd := &cobra.Command{
		Use:   "docker-revive",
		Short: "Restart Docker containers their restart policy should have kept running",
		Long: `docker-revive restores containers whose restart policy ("always" or
"unless-stopped") should have kept them running, after an environment
restart in which the Docker daemon was not yet available when the policy
would normally apply — typically right after a WSL or system boot.

It waits for the Docker runtime to become available (bounded by
--max-wait), then makes a single pass over all containers, starts the
eligible ones, reports a summary and exits.`,

		// Errors are formatted by Execute; cobra's automatic usage and
		// error printing would duplicate that.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runRevive(cmd.Context(), v, configFile)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "Path to a YAML or JSONC config file")

	cmd.Flags().Bool("retry", true, "Poll for Docker availability instead of failing immediately")
	cmd.Flags().Duration("retry-interval", config.DefaultRetryInterval, "Sleep between availability polls")
	cmd.Flags().Duration("max-wait", config.DefaultMaxWait, "Wall-clock budget per readiness group")
	cmd.Flags().Bool("force", false, "Also start stopped unless-stopped containers that exited cleanly")
	cmd.Flags().Duration("container-pause", config.DefaultContainerPause, "Pause after each processed container")
	cmd.Flags().BoolP("verbose", "v", false, "Enable debug-level log lines")
	cmd.Flags().String("log-file", "", "Log file location (default: ~/.docker-revive.log)")
	cmd.Flags().Int64("log-max-size", config.DefaultLogMaxSize, "Truncate the log file at startup if larger than this many bytes")
	cmd.Flags().Bool("no-log", false, "Disable the durable log entirely")

	// Bind each flag onto its viper key. BindPFlag only applies the
	// flag value when the flag was actually set, which preserves the
	// env/file/default fallthrough.
	bind := func(key, flag string) {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", flag, err))
		}
	}
	bind(config.KeyRetry, "retry")
	bind(config.KeyRetryInterval, "retry-interval")
	bind(config.KeyMaxWait, "max-wait")
	bind(config.KeyForce, "force")
	bind(config.KeyContainerPause, "container-pause")
	bind(config.KeyVerbose, "verbose")
	bind(config.KeyLogFile, "log-file")
	bind(config.KeyLogMaxSize, "log-max-size")
	bind(config.KeyLogDisabled, "no-log")

	return cmd
}

// Execute runs the root command and handles exit codes. CLIError values
// carry their own exit code; anything else maps to the generic fatal
// code. Normal completion — including "nothing eligible" — exits 0.
func Execute(cmd *cobra.Command) {
	if err := cmd.Execute(); err != nil {
		if cliErr, ok := err.(*model.CLIError); ok {
			printError(cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}

		printError(err.Error(), nil)
		os.Exit(int(model.ExitFatal))
	}
}

// printError writes "Error: <message>" to stderr, appending the
// underlying cause when present.
func printError(message string, underlying error) {
	if underlying != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, underlying)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", message)
	}
}
