// run.go implements the restore pass: configuration loading, log sink
// setup, the availability gate, and the decision engine, in that order.
//
// Control flows strictly gate → engine. All fatal conditions (invalid
// configuration, missing tools with retry disabled, gate timeout) are
// detected before any container is processed; once the engine starts it
// runs to completion.
package cli

import (
	"context"

	"github.com/spf13/viper"

	"github.com/shinji-kodama/docker-revive/internal/config"
	"github.com/shinji-kodama/docker-revive/internal/docker"
	"github.com/shinji-kodama/docker-revive/internal/engine"
	"github.com/shinji-kodama/docker-revive/internal/gate"
	"github.com/shinji-kodama/docker-revive/internal/logging"
	"github.com/shinji-kodama/docker-revive/internal/model"
	"github.com/shinji-kodama/docker-revive/internal/notify"
)

// runRevive is the RunE body of the root command.
func runRevive(ctx context.Context, v *viper.Viper, configFile string) error {
	// Step 1: Build the immutable configuration. Anything wrong here is
	// fatal before any external system is touched.
	cfg, err := config.Load(v, configFile)
	if err != nil {
		return model.WrapCLIError(model.ExitFatal, "invalid configuration", err)
	}

	console := notify.NewConsole()

	// Step 2: Set up the durable log sink. Sink trouble degrades, never
	// aborts; the degradation is surfaced as a console warning so the
	// user knows where (or whether) the run was recorded.
	sink := logging.New(logging.Options{
		Path:         cfg.Log.Path,
		MaxSizeBytes: cfg.Log.MaxSizeBytes,
		Disabled:     cfg.Log.Disabled,
		Verbose:      cfg.Verbose,
	})
	defer func() { _ = sink.Close() }()

	switch {
	case sink.Fallback:
		console.Warnf("log file %s is not writable, logging to %s instead", cfg.Log.Path, sink.Path)
	case sink.Disabled && !cfg.Log.Disabled:
		console.Warnf("no log location is writable, logging disabled for this run")
	}

	logger := sink.Logger
	logger.Info("restore pass starting",
		"retry", cfg.Retry,
		"retry_interval", cfg.RetryInterval,
		"max_wait", cfg.MaxWait,
		"force", cfg.Force)

	// Step 3: Wait for the Docker runtime. The client connects lazily,
	// so constructing it before the endpoint exists is fine.
	client := docker.NewClient()
	defer func() { _ = client.Close() }()

	g := &gate.Gate{
		RetryEnabled:  cfg.Retry,
		RetryInterval: cfg.RetryInterval,
		MaxWait:       cfg.MaxWait,
		Notifier:      console,
		Logger:        logger,
	}
	if err := g.AwaitAll(ctx, gate.DefaultGroups(client)); err != nil {
		return model.WrapCLIError(model.ExitFatal, "Docker runtime is not available", err)
	}

	// Step 4: Take the container snapshot. The gate just verified the
	// query path, so a failure here is unexpected and fatal.
	records, err := client.Snapshot(ctx, logger)
	if err != nil {
		return model.WrapCLIError(model.ExitFatal, "failed to enumerate containers", err)
	}
	logger.Info("snapshot taken", "containers", len(records))

	// Step 5: Run the decision engine. From here everything is
	// per-container recoverable; the pass always completes.
	eng := &engine.Engine{
		Starter:  client,
		Notifier: console,
		Logger:   logger,
		Pause:    cfg.ContainerPause,
	}
	eng.Process(ctx, records, cfg.Force)

	return nil
}
