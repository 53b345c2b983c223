package engine

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-lines/internal/backtest/engine"
	"github.com/rxtech-lab/argo-lines/internal/broker"
	"github.com/rxtech-lab/argo-lines/internal/feed"
	"github.com/rxtech-lab/argo-lines/internal/graph"
	"github.com/rxtech-lab/argo-lines/internal/strategy"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
	"go.uber.org/zap"
)

// run holds the state of a single Run call.
type run struct {
	engine    *BacktestEngineV1
	ctx       context.Context
	callbacks engine.LifecycleCallbacks
	mode      engine.Mode
	strategy  strategy.Strategy
	sync      *feed.Synchronizer
	runID     string

	sctx    *strategy.Context
	graph   *graph.Graph
	started bool
	steps   int
	total   int
}

// participant is the part of strategies and analyzers every step calls.
type participant struct {
	name   string
	target interface{ Next() error }
	code   errors.ErrorCode
}

func (p participant) fail(err error, hook string) error {
	return errors.Wrapf(p.code, err, "%s: %s failed", p.name, hook)
}

func (r *run) log() *zap.Logger {
	return r.engine.log.Logger
}

func (r *run) execute(startedAt time.Time) (*engine.Result, error) {
	b := r.engine

	r.sctx = &strategy.Context{
		Feeds:             b.feeds,
		IndicatorRegistry: b.indicatorRegistry,
		Broker:            b.broker,
		Logger:            b.log,
		Clock:             r.sync.Now,
	}

	if err := r.strategy.Init(r.sctx); err != nil {
		r.log().Error("Failed to initialize strategy", zap.String("strategy", r.strategy.Name()), zap.Error(err))

		return nil, err
	}

	for _, a := range b.analyzers {
		if err := a.Start(r.sctx); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeAnalyzerFailed, err, "analyzer %s: start failed", a.Name())
		}
	}

	g, err := graph.Resolve(r.sctx.Declared()...)
	if err != nil {
		return nil, err
	}

	r.graph = g

	var flagged []*errors.InsufficientDataError

	if r.mode == engine.ModeBatch {
		for _, f := range b.feeds {
			if err := f.Preload(); err != nil {
				return nil, err
			}
		}

		flagged = r.flag()

		g.RunBatch()
		g.Home()
		r.total = distinctTimestamps(b.feeds)
		b.metrics.AddEvaluations(string(r.mode), batchEvaluations(g))
	} else {
		r.total = b.expected
	}

	if err := b.broker.Start(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeBrokerUnavailable, "failed to start broker", err)
	}

	r.log().Debug("Running strategy",
		zap.String("run_id", r.runID),
		zap.String("strategy", r.strategy.Name()),
		zap.String("mode", string(r.mode)),
		zap.Int("nodes", len(g.Nodes())),
		zap.Int("min_period", g.MinPeriod()),
	)

	if r.callbacks.OnRunStart != nil {
		if err := (*r.callbacks.OnRunStart)(r.runID, r.mode, r.total); err != nil {
			return nil, errors.Wrap(errors.ErrCodeCallbackFailed, "run start callback failed", err)
		}
	}

	if err := r.loop(); err != nil {
		b.broker.Stop()

		return nil, err
	}

	if r.mode == engine.ModeIncremental {
		flagged = r.flag()
	}

	if err := b.broker.Stop(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeBrokerUnavailable, "failed to stop broker", err)
	}

	analyses := make(map[string]map[string]any, len(b.analyzers))

	for _, a := range b.analyzers {
		if err := a.Stop(); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeAnalyzerFailed, err, "analyzer %s: stop failed", a.Name())
		}

		analyses[a.Name()] = a.GetAnalysis()
	}

	result := &engine.Result{
		RunID:     r.runID,
		Mode:      r.mode,
		Steps:     r.steps,
		MinPeriod: g.MinPeriod(),
		Flagged:   flagged,
		Analyses:  analyses,
		Duration:  time.Since(startedAt),
	}

	r.log().Debug("Run finished",
		zap.String("run_id", r.runID),
		zap.Int("steps", r.steps),
		zap.Int("flagged", len(flagged)),
		zap.Duration("duration", result.Duration),
	)

	return result, nil
}

func (r *run) flag() []*errors.InsufficientDataError {
	flagged := r.graph.Flag()

	for _, f := range flagged {
		r.log().Warn("Node never becomes ready",
			zap.String("node", f.Node),
			zap.Int("min_period", f.Required),
			zap.Int("bars", f.Actual),
		)
	}

	r.engine.metrics.Flagged(len(flagged))

	return flagged
}

func (r *run) participants() []participant {
	ps := make([]participant, 0, len(r.engine.analyzers)+1)
	ps = append(ps, participant{name: r.strategy.Name(), target: r.strategy, code: errors.ErrCodeStrategyRuntimeError})

	for _, a := range r.engine.analyzers {
		ps = append(ps, participant{name: a.Name(), target: a, code: errors.ErrCodeAnalyzerFailed})
	}

	return ps
}

func (r *run) loop() error {
	ps := r.participants()
	nodes := len(r.graph.Nodes())

	for {
		if err := r.ctx.Err(); err != nil {
			return errors.Wrap(errors.ErrCodeRunAborted, "run cancelled", err)
		}

		ok, err := r.sync.Step()
		if err != nil {
			return err
		}

		if !ok {
			return nil
		}

		r.graph.Step()
		r.engine.metrics.Step()

		if r.mode == engine.ModeIncremental {
			r.engine.metrics.AddEvaluations(string(r.mode), nodes)
		}

		events, err := r.engine.broker.Next(r.sync.Now())
		if err != nil {
			return errors.Wrap(errors.ErrCodeBrokerUnavailable, "broker step failed", err)
		}

		if err := notify(ps, events); err != nil {
			return err
		}

		if err := r.phase(ps); err != nil {
			return err
		}

		r.steps++

		if r.callbacks.OnProcessData != nil {
			if err := (*r.callbacks.OnProcessData)(r.steps, r.total); err != nil {
				return errors.Wrap(errors.ErrCodeCallbackFailed, "process data callback failed", err)
			}
		}
	}
}

// phase calls prenext, nextstart or next on every participant.
func (r *run) phase(ps []participant) error {
	if !r.sctx.Ready() {
		for _, p := range ps {
			pn, ok := p.target.(strategy.Prenexter)
			if !ok {
				continue
			}

			if err := pn.Prenext(); err != nil {
				return p.fail(err, "prenext")
			}
		}

		return nil
	}

	if !r.started {
		r.started = true

		for _, p := range ps {
			if ns, ok := p.target.(strategy.NextStarter); ok {
				if err := ns.NextStart(); err != nil {
					return p.fail(err, "nextstart")
				}

				continue
			}

			if err := p.target.Next(); err != nil {
				return p.fail(err, "next")
			}
		}

		return nil
	}

	for _, p := range ps {
		if err := p.target.Next(); err != nil {
			return p.fail(err, "next")
		}
	}

	return nil
}

// notify delivers broker events: orders, then trades, then the fund.
func notify(ps []participant, events broker.Events) error {
	if events.Empty() {
		return nil
	}

	for _, p := range ps {
		if n, ok := p.target.(strategy.OrderNotifiee); ok {
			for _, order := range events.Orders {
				if err := n.NotifyOrder(order); err != nil {
					return p.fail(err, "notify order")
				}
			}
		}

		if n, ok := p.target.(strategy.TradeNotifiee); ok {
			for _, trade := range events.Trades {
				if err := n.NotifyTrade(trade); err != nil {
					return p.fail(err, "notify trade")
				}
			}
		}

		if n, ok := p.target.(strategy.FundNotifiee); ok && events.Fund != nil {
			if err := n.NotifyFund(*events.Fund); err != nil {
				return p.fail(err, "notify fund")
			}
		}
	}

	return nil
}

// distinctTimestamps counts the synchronization steps of preloaded feeds.
func distinctTimestamps(feeds []*feed.Feed) int {
	seen := make(map[int64]struct{})

	for _, f := range feeds {
		for i := range f.Size() {
			seen[f.TimeAt(i).UnixNano()] = struct{}{}
		}
	}

	return len(seen)
}

func batchEvaluations(g *graph.Graph) int {
	n := 0

	for _, node := range g.Nodes() {
		if c := node.Clock(); c != nil {
			n += c.Size()
		}
	}

	return n
}
