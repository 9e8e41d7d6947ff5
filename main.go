// Command pyramid serves, checks and benchmarks the pyramid puzzle.
//
// Commands:
//  1. "serve" (default) runs the HTTP server exposing the REST API, WebSocket, /metrics and an /mcp HTTP endpoint
//  2. "mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "validate" scores a single path against a scenario
//  4. "check" validates every scenario file
//  5. "solve" prints the cheapest path for each scenario
//  6. "benchmark" evaluates language models on the scenarios through OpenRouter
//
// Settings come from flags, environment variables and an optional .env file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Pyramid Puzzle"
)

func main() {
	// a missing .env is fine
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("error loading .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "pyramid",
		Usage:   AppName + " path validator, server and LLM benchmark",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging with human-readable output",
				Sources: cli.EnvVars("DEBUG"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "scenario-dir",
				Value:   "tasks/scenarios",
				Usage:   "Directory containing scenario YAML files",
				Sources: cli.EnvVars("SCENARIO_DIR", "CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:    "specs-dir",
				Usage:   "Directory overriding Rules.md, Output_Notations.md and Initial_Prompt.md",
				Sources: cli.EnvVars("SPECS_DIR"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			setupLogging(cmd.String("log-level"), cmd.Bool("debug"))
			return ctx, nil
		},
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			serveCommand(),
			mcpCommand(),
			validateCommand(),
			checkCommand(),
			solveCommand(),
			benchmarkCommand(),
		},
	}
}

// setupLogging configures the global zerolog logger
func setupLogging(level string, debug bool) {
	if lvl, err := zerolog.ParseLevel(level); err == nil && level != "" {
		zerolog.SetGlobalLevel(lvl)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func exitf(code int, format string, args ...any) error {
	return cli.Exit(fmt.Sprintf(format, args...), code)
}
