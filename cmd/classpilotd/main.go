// Command classpilotd runs the Canvas assistant, either as an HTTP
// service or as an interactive terminal chat.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/classpilot/classpilot"
	"github.com/classpilot/classpilot/canvas"
	"github.com/classpilot/classpilot/lmstools"
	"github.com/classpilot/classpilot/providers/anthropic"
	"github.com/classpilot/classpilot/providers/deepseek"
	"github.com/classpilot/classpilot/providers/openai"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:     "classpilotd",
	Short:   "Canvas LMS assistant",
	Long:    "classpilotd is a chat assistant for Canvas LMS.\n\nIt answers questions and carries out course management actions by\ncalling the Canvas API on the user's behalf, with per-role tool\nvisibility and permission checks.",
	Version: version,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
}

func newLogger(cfg *config) zerolog.Logger {
	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

func newProvider(cfg *config) (classpilot.Provider, error) {
	var opts []openai.Option
	if cfg.Debug {
		opts = append(opts, openai.WithDebug("trace.jsonl"))
	}
	switch cfg.Provider {
	case "deepseek":
		return deepseek.New(cfg.Model, opts...), nil
	case "openai":
		return openai.New(cfg.Model, opts...), nil
	case "anthropic":
		aopts := []anthropic.Option{}
		if cfg.Debug {
			aopts = append(aopts, anthropic.WithDebug("trace.jsonl"))
		}
		return anthropic.New(cfg.Model, aopts...), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want deepseek, openai, or anthropic)", cfg.Provider)
	}
}

// newLoop assembles the full tool-calling pipeline from the config.
func newLoop(cfg *config, log zerolog.Logger) (*classpilot.Loop, *classpilot.Catalog, error) {
	userClient := canvas.NewClient(cfg.CanvasBaseURL, cfg.CanvasToken,
		canvas.WithAccountID(cfg.CanvasAccountID))
	adminClient := userClient
	if cfg.CanvasAdminToken != "" {
		adminClient = canvas.NewClient(cfg.CanvasBaseURL, cfg.CanvasAdminToken,
			canvas.WithAccountID(cfg.CanvasAccountID))
	}

	executor := classpilot.NewExecutor()
	lmstools.NewService(userClient, adminClient, log).RegisterAll(executor)

	catalog, err := lmstools.NewCatalog()
	if err != nil {
		return nil, nil, err
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return nil, nil, err
	}

	loop, err := classpilot.NewLoop(provider, executor, catalog, classpilot.LoopConfig{
		MaxSteps:   cfg.MaxSteps,
		PendingTTL: cfg.PendingTTL,
	})
	if err != nil {
		return nil, nil, err
	}
	return loop, catalog, nil
}
