package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	engine "github.com/rxtech-lab/argo-lines/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-lines/internal/indicator"
	"github.com/rxtech-lab/argo-lines/internal/logger"
	"github.com/rxtech-lab/argo-lines/internal/strategy"
	"github.com/rxtech-lab/argo-lines/internal/version"
	"github.com/rxtech-lab/argo-lines/mocks"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
	"github.com/rxtech-lab/argo-lines/pkg/marketdata/writer"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// app holds what the command actions share. Results go to the command
// writer and diagnostics to the logger.
type app struct {
	log *logger.Logger
}

func newApp(log *logger.Logger) *cli.Command {
	a := &app{log: log}

	return &cli.Command{
		Name:    "backtest",
		Usage:   "Run line-based backtests over historical market data",
		Version: version.GetVersion(),
		Writer:  os.Stdout,
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a backtest described by a YAML config",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the engine config `FILE`",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "mode",
						Aliases: []string{"m"},
						Usage:   "Override the configured mode (batch or incremental)",
					},
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Show a progress bar",
						Value: true,
					},
					&cli.StringFlag{
						Name:  "metrics-addr",
						Usage: "Serve Prometheus metrics on `ADDR` while the backtest runs",
					},
				},
				Action: a.runAction,
			},
			{
				Name:  "schema",
				Usage: "Print the JSON schema of the engine config",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the schema to `FILE` instead of stdout",
					},
				},
				Action: a.schemaAction,
			},
			{
				Name:   "indicators",
				Usage:  "List the registered indicators and their parameters",
				Action: indicatorsAction,
			},
			{
				Name:   "strategies",
				Usage:  "List the built-in strategies and their parameters",
				Action: strategiesAction,
			},
			{
				Name:  "generate",
				Usage: "Write a random walk of bars to a CSV or parquet file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Output `FILE`, .csv or .parquet",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "symbol",
						Usage: "Symbol of the generated bars",
						Value: "TEST",
					},
					&cli.IntFlag{
						Name:  "count",
						Usage: "Number of bars",
						Value: 1000,
					},
					&cli.Uint64Flag{
						Name:  "seed",
						Usage: "Random seed",
						Value: 1,
					},
					&cli.DurationFlag{
						Name:  "interval",
						Usage: "Time between bars",
						Value: time.Minute,
					},
				},
				Action: a.generateAction,
			},
		},
	}
}

func (a *app) schemaAction(_ context.Context, cmd *cli.Command) error {
	config := engine.EmptyConfig()

	schemaJSON, err := config.GenerateSchemaJSON()
	if err != nil {
		return err
	}

	output := cmd.String("output")
	if output == "" {
		_, err = fmt.Fprintln(cmd.Root().Writer, schemaJSON)

		return err
	}

	if err := os.WriteFile(output, []byte(schemaJSON), 0644); err != nil {
		return fmt.Errorf("failed to write schema to file: %w", err)
	}

	a.log.Info("Schema generated", zap.String("path", output))

	return nil
}

func indicatorsAction(_ context.Context, cmd *cli.Command) error {
	registry := indicator.NewIndicatorRegistry()
	out := cmd.Root().Writer

	for _, name := range registry.ListIndicators() {
		def, err := registry.GetIndicator(name)
		if err != nil {
			return err
		}

		if err := writeSchema(out, string(name), def.Params.Schema()); err != nil {
			return err
		}
	}

	return nil
}

func strategiesAction(_ context.Context, cmd *cli.Command) error {
	out := cmd.Root().Writer

	for _, name := range strategy.Builtins() {
		def, err := strategy.Lookup(name)
		if err != nil {
			return err
		}

		if err := writeSchema(out, name, def.Params.Schema()); err != nil {
			return err
		}
	}

	return nil
}

func writeSchema(out io.Writer, name string, schema any) error {
	b, err := json.Marshal(schema)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "%s\t%s\n", name, b)

	return err
}

func (a *app) generateAction(_ context.Context, cmd *cli.Command) error {
	config := mocks.DefaultConfig()
	config.Symbol = cmd.String("symbol")
	config.Count = int(cmd.Int("count"))
	config.Interval = cmd.Duration("interval")

	bars := mocks.NewDataGenerator(cmd.Uint64("seed")).Generate(config)

	output, err := writer.WriteFile(cmd.String("output"), bars, nil)
	if err != nil {
		return err
	}

	a.log.Info("Generated bars", zap.Int("count", len(bars)), zap.String("path", output))

	return nil
}

func main() {
	log, err := logger.NewStderrLogger(os.Getenv("BACKTEST_LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	defer func() { _ = log.Sync() }()

	if err := newApp(log).Run(context.Background(), os.Args); err != nil {
		log.Fatal("backtest failed",
			zap.Stringer("category", errors.CategoryOf(err)),
			zap.Int("code", int(errors.GetCode(err))),
			zap.Error(err),
		)
	}
}
