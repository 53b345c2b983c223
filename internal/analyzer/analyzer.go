// Package analyzer defines observers that follow a run through the same hooks
// as the strategy and report a single analysis at the end.
package analyzer

import (
	"github.com/rxtech-lab/argo-lines/internal/strategy"
)

// Analyzer receives Next on every ready step. Like strategies, analyzers may
// implement strategy.Prenexter, strategy.NextStarter and the notify
// interfaces to receive the other calls.
type Analyzer interface {
	// Name is the key of the analysis in the run result.
	Name() string
	// Start is called once before the first bar.
	Start(ctx *strategy.Context) error
	Next() error
	// Stop is called once after the last bar.
	Stop() error
	// GetAnalysis returns the result. It is read after Stop.
	GetAnalysis() map[string]any
}

// Base implements the lifecycle of Analyzer with no-ops and keeps the
// context passed to Start.
type Base struct {
	Ctx *strategy.Context
}

func (b *Base) Start(ctx *strategy.Context) error {
	b.Ctx = ctx

	return nil
}

func (b *Base) Next() error { return nil }

func (b *Base) Stop() error { return nil }
