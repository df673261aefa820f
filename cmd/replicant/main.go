package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zpdzap/replicant/internal/config"
	"github.com/zpdzap/replicant/internal/logging"
	"github.com/zpdzap/replicant/internal/replicate"
	"github.com/zpdzap/replicant/internal/sandbox"
	"github.com/zpdzap/replicant/internal/status"
	"github.com/zpdzap/replicant/internal/tui"
)

// Process exit statuses — an external contract, not ours to reinvent.
const (
	codeConfig         = 10
	codeNotInitialized = 2
	codeConfinement    = 3
	codeReplicate      = 4
	codeCleanup        = 5
)

// exitError carries a distinct process exit status alongside the cause.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	var (
		configPath string
		logLevel   string
	)

	root := &cobra.Command{
		Use:          "replicant",
		Short:        "Safety-railed, sandboxed self-replication demo for security training",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, log, err := setup(configPath, logLevel)
			if err != nil {
				return err
			}
			defer log.Close()
			mgr.AttachLog()
			return tui.Run(mgr, replicate.NewEngine(mgr, log))
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to replicant.yaml (defaults apply when absent)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(
		initCmd(&configPath, &logLevel),
		replicateCmd(&configPath, &logLevel),
		statusCmd(&configPath, &logLevel),
		cleanupCmd(&configPath, &logLevel),
	)

	if err := root.Execute(); err != nil {
		code := 1
		var ee *exitError
		if errors.As(err, &ee) {
			code = ee.code
		}
		os.Exit(code)
	}
}

// setup loads and validates configuration and builds the sandbox manager with
// its injected logger. Validation runs before any filesystem action.
func setup(configPath, logLevel string) (*sandbox.Manager, *logging.Logger, error) {
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return nil, nil, &exitError{code: codeConfig, err: err}
	}
	log := logging.New(level)

	cfg := config.Default()
	path := configPath
	if path == "" && config.Exists(config.ConfigFile) {
		path = config.ConfigFile
	}
	if path != "" {
		cfg, err = config.Load(path)
		if err != nil {
			log.Error("configuration unreadable", "path", path, "error", err)
			return nil, nil, &exitError{code: codeConfig, err: err}
		}
	}
	if err := cfg.Validate(); err != nil {
		log.Error("configuration invalid", "error", err)
		return nil, nil, &exitError{code: codeConfig, err: err}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, nil, err
	}
	mgr, err := sandbox.NewManager(cwd, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return mgr, log, nil
}

func initCmd(configPath, logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Prepare the sandbox, kill-switch and mock hosts",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, log, err := setup(*configPath, *logLevel)
			if err != nil {
				return err
			}
			defer log.Close()

			if err := mgr.Init(); err != nil {
				log.Error("init failed", "error", err)
				return &exitError{code: 1, err: err}
			}

			fmt.Printf("Sandbox ready at %s (kill-switch present).\n", mgr.Paths().Root)
			fmt.Printf("Remove %s to allow up to %d harmless copies.\n", mgr.Paths().Marker, mgr.Config().Limit)
			return nil
		},
	}
}

func replicateCmd(configPath, logLevel *string) *cobra.Command {
	var opts replicate.Options
	var source string

	cmd := &cobra.Command{
		Use:   "replicate",
		Short: "Perform one safe replication (no-op while the kill-switch is present)",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, log, err := setup(*configPath, *logLevel)
			if err != nil {
				return err
			}
			defer log.Close()
			mgr.AttachLog()

			eng := replicate.NewEngine(mgr, log)
			eng.Source = source

			res, err := eng.ReplicateOnce(opts)
			if err != nil {
				log.Error("replication failed", "error", err)
				var ce *replicate.ConfinementError
				switch {
				case errors.Is(err, replicate.ErrNotInitialized):
					return &exitError{code: codeNotInitialized, err: err}
				case errors.As(err, &ce):
					return &exitError{code: codeConfinement, err: err}
				default:
					return &exitError{code: codeReplicate, err: err}
				}
			}

			switch res.Outcome {
			case replicate.OutcomeBlocked:
				fmt.Println("Kill-switch present; replication blocked.")
			case replicate.OutcomeLimitReached:
				fmt.Println("Replication limit reached; no action taken.")
			case replicate.OutcomeReplicated:
				fmt.Printf("Replicated -> %s (sha256 %s)\n", res.Dest, res.DestSum)
				for _, h := range res.Hosts {
					if h.Err != nil {
						fmt.Printf("  host_%d skipped: %v\n", h.Host, h.Err)
					} else {
						fmt.Printf("  spread -> %s\n", h.Dest)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Mutate, "mutate", false, "vary each replica's checksum with an inert trailer")
	cmd.Flags().BoolVar(&opts.Spread, "spread", false, "also copy into the mock host directories")
	cmd.Flags().BoolVar(&opts.Payload, "payload", false, "drop the harmless note alongside replicas")
	cmd.Flags().StringVar(&source, "source", "", "artifact to copy (defaults to the running executable)")
	return cmd
}

func statusCmd(configPath, logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report sandbox state, fresh from disk (read-only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, log, err := setup(*configPath, *logLevel)
			if err != nil {
				return err
			}
			defer log.Close()

			r, err := status.Collect(mgr.Paths(), mgr.Config().Limit)
			if err != nil {
				log.Error("status failed", "error", err)
				return &exitError{code: 1, err: err}
			}
			fmt.Print(r.Render())
			return nil
		},
	}
}

func cleanupCmd(configPath, logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove replicas and host trees, restore the kill-switch",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, log, err := setup(*configPath, *logLevel)
			if err != nil {
				return err
			}
			defer log.Close()
			mgr.AttachLog()

			if err := mgr.Cleanup(); err != nil {
				log.Error("cleanup failed", "error", err)
				return &exitError{code: codeCleanup, err: err}
			}
			fmt.Println("Cleanup done. Kill-switch restored.")
			return nil
		},
	}
}
