package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rxtech-lab/argo-lines/internal/analyzer"
	engine_types "github.com/rxtech-lab/argo-lines/internal/backtest/engine"
	engine "github.com/rxtech-lab/argo-lines/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-lines/internal/logger"
	"github.com/rxtech-lab/argo-lines/internal/metrics"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func (a *app) runAction(ctx context.Context, cmd *cli.Command) error {
	content, err := os.ReadFile(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	var opts []engine.Option

	if mode := cmd.String("mode"); mode != "" {
		m := engine_types.Mode(mode)
		if m != engine_types.ModeBatch && m != engine_types.ModeIncremental {
			return errors.Newf(errors.ErrCodeBacktestConfigError, "unknown mode %q", mode)
		}

		opts = append(opts, engine.WithMode(m))
	}

	if addr := cmd.String("metrics-addr"); addr != "" {
		reg := prometheus.NewRegistry()

		m, err := metrics.NewMetrics(reg)
		if err != nil {
			return err
		}

		opts = append(opts, engine.WithMetrics(m))

		go serveMetrics(a.log, addr, reg)
	}

	backtest := engine.NewBacktestEngineV1(opts...)

	if err := backtest.Initialize(string(content)); err != nil {
		return err
	}

	if err := backtest.AddAnalyzer(analyzer.NewTimeline()); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	result, err := backtest.Run(ctx, newCallbacks(cmd.Bool("progress")))
	if err != nil {
		return err
	}

	for _, flagged := range result.Flagged {
		a.log.Warn("Node never produced a value",
			zap.String("node", flagged.Node),
			zap.Int("required", flagged.Required),
			zap.Int("actual", flagged.Actual),
		)
	}

	out, err := yaml.Marshal(result)
	if err != nil {
		return err
	}

	_, err = cmd.Root().Writer.Write(out)

	return err
}

func serveMetrics(log *logger.Logger, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	log.Info("Serving metrics", zap.String("addr", addr))

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("Metrics server stopped", zap.String("addr", addr), zap.Error(err))
	}
}

// newCallbacks drives a progress bar from the engine callbacks.
func newCallbacks(progress bool) engine_types.LifecycleCallbacks {
	if !progress {
		return engine_types.LifecycleCallbacks{}
	}

	var bar *progressbar.ProgressBar

	onRunStart := engine_types.OnRunStartCallback(func(runID string, mode engine_types.Mode, totalSteps int) error {
		size := int64(totalSteps)
		if size == 0 {
			size = -1
		}

		bar = progressbar.Default(size, fmt.Sprintf("%s run", mode))

		return nil
	})

	onProcessData := engine_types.OnProcessDataCallback(func(current, total int) error {
		return bar.Set(current)
	})

	onRunEnd := engine_types.OnRunEndCallback(func(_ *engine_types.Result, _ error) {
		if bar != nil {
			_ = bar.Finish()
		}
	})

	return engine_types.LifecycleCallbacks{
		OnRunStart:    &onRunStart,
		OnRunEnd:      &onRunEnd,
		OnProcessData: &onProcessData,
	}
}
