package analyzer

import (
	"time"

	"github.com/rxtech-lab/argo-lines/internal/types"
)

// Timeline counts the calls of every phase and notification and checks that
// the clock never moves backwards.
type Timeline struct {
	Base

	prenext   int
	nextstart int
	next      int
	orders    int
	trades    int
	funds     int

	first      time.Time
	last       time.Time
	violations int
}

// NewTimeline creates a timeline analyzer.
func NewTimeline() *Timeline {
	return &Timeline{}
}

func (t *Timeline) Name() string {
	return "timeline"
}

func (t *Timeline) observe() {
	if t.Ctx == nil {
		return
	}

	now := t.Ctx.Now()

	if t.first.IsZero() {
		t.first = now
	}

	if now.Before(t.last) {
		t.violations++
	}

	t.last = now
}

func (t *Timeline) Prenext() error {
	t.prenext++
	t.observe()

	return nil
}

func (t *Timeline) NextStart() error {
	t.nextstart++
	t.observe()

	return nil
}

func (t *Timeline) Next() error {
	t.next++
	t.observe()

	return nil
}

func (t *Timeline) NotifyOrder(order types.Order) error {
	t.orders++

	return nil
}

func (t *Timeline) NotifyTrade(trade types.Trade) error {
	t.trades++

	return nil
}

func (t *Timeline) NotifyFund(fund types.Fund) error {
	t.funds++

	return nil
}

func (t *Timeline) GetAnalysis() map[string]any {
	return map[string]any{
		"prenext":      t.prenext,
		"nextstart":    t.nextstart,
		"next":         t.next,
		"bars":         t.prenext + t.nextstart + t.next,
		"orders":       t.orders,
		"trades":       t.trades,
		"fund_updates": t.funds,
		"first":        t.first,
		"last":         t.last,
		"monotonic":    t.violations == 0,
	}
}
