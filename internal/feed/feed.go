// Package feed turns market data sources into clocked source nodes and keeps
// several of them in lockstep by timestamp.
package feed

import (
	"iter"
	"time"

	"github.com/rxtech-lab/argo-lines/internal/graph"
	"github.com/rxtech-lab/argo-lines/internal/line"
	"github.com/rxtech-lab/argo-lines/internal/logger"
	"github.com/rxtech-lab/argo-lines/internal/types"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
	"go.uber.org/zap"
)

// Lines are the outputs of every feed.
var Lines = line.MustDeclare("open", "high", "low", "close", "volume")

// Indices into Lines.
const (
	Open = iota
	High
	Low
	Close
	Volume
)

// State is the position of a feed in its source.
type State int

const (
	// StateAdvancing means more bars are available in the current period.
	StateAdvancing State = iota
	// StateAtBoundary means the last delivered bar completed a timeframe period.
	StateAtBoundary
	// StateExhausted means the source has no more bars.
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateAtBoundary:
		return "at_boundary"
	case StateExhausted:
		return "exhausted"
	default:
		return "advancing"
	}
}

type mode int

const (
	modeNative mode = iota
	modeResample
	modeReplay
)

// Option configures a Feed.
type Option func(*Feed)

// WithResample aggregates source bars into bars of the given timespan. An
// aggregate is released once the next source bar falls into another period
// (or the source ends) and carries the timestamp of its last source bar.
func WithResample(ts types.Timespan) Option {
	return func(f *Feed) {
		f.mode = modeResample
		f.timespan = ts
	}
}

// WithReplay delivers a partial bar of the given timespan on every source
// bar: the first bar of a period is a new bar, later ones update it in place.
func WithReplay(ts types.Timespan) Option {
	return func(f *Feed) {
		f.mode = modeReplay
		f.timespan = ts
	}
}

// WithExpectedLen announces the number of bars the source will deliver, so
// warm-up periods can be checked before an incremental run.
func WithExpectedLen(n int) Option {
	return func(f *Feed) {
		f.expected = n
	}
}

// WithLogger sets the feed logger.
func WithLogger(l *logger.Logger) Option {
	return func(f *Feed) {
		f.logger = l
	}
}

// Feed is a source node whose lines are filled from a market data iterator.
// It is also the clock of every node computed on it.
type Feed struct {
	*graph.Base
	name     string
	symbol   string
	mode     mode
	timespan types.Timespan
	expected int
	logger   *logger.Logger

	next func() (types.MarketData, error, bool)
	stop func()
	done bool

	pending *types.MarketData
	ready   *types.MarketData
	last    time.Time
	bucket  int64

	times     []time.Time
	event     graph.Event
	state     State
	preloaded bool
	cursor    int
}

// New creates a feed over src. The source is pulled lazily.
func New(name string, src iter.Seq2[types.MarketData, error], opts ...Option) (*Feed, error) {
	if src == nil {
		return nil, errors.Newf(errors.ErrCodeNilInput, "feed %s: source is nil", name)
	}

	f := &Feed{name: name}
	for _, opt := range opts {
		opt(f)
	}

	if f.logger == nil {
		f.logger = logger.NewNopLogger()
	}

	if f.mode != modeNative {
		if err := f.timespan.Validate(); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidTimespan, err, "feed %s", name)
		}
	}

	base, err := graph.NewBase(graph.Spec{Name: name, Lines: Lines, Clock: f, Source: true})
	if err != nil {
		return nil, err
	}

	f.Base = base
	f.next, f.stop = iter.Pull2(src)

	return f, nil
}

// Name returns the feed name.
func (f *Feed) Name() string {
	return f.name
}

// Symbol returns the symbol of the first bar read.
func (f *Feed) Symbol() string {
	return f.symbol
}

// Replay reports whether the feed delivers in-place updates.
func (f *Feed) Replay() bool {
	return f.mode == modeReplay
}

// Len returns the number of bars delivered so far.
func (f *Feed) Len() int {
	if f.preloaded {
		return f.cursor
	}

	return len(f.times)
}

// Size returns the number of known bars: all of them after Preload,
// otherwise the larger of the delivered and the announced count.
func (f *Feed) Size() int {
	if f.preloaded || f.expected < len(f.times) {
		return len(f.times)
	}

	return f.expected
}

// TimeAt returns the timestamp of bar i.
func (f *Feed) TimeAt(i int) time.Time {
	if i < 0 || i >= len(f.times) {
		return time.Time{}
	}

	return f.times[i]
}

// Event reports what the last synchronization step did to this feed.
func (f *Feed) Event() graph.Event {
	return f.event
}

// State returns the feed state after the last delivered bar.
func (f *Feed) State() State {
	return f.state
}

// Now returns the timestamp of the current bar.
func (f *Feed) Now() time.Time {
	return f.TimeAt(f.Len() - 1)
}

// Bar returns the current bar.
func (f *Feed) Bar() types.MarketData {
	lines := f.Lines()

	return types.MarketData{
		Symbol: f.symbol,
		Time:   f.Now(),
		Open:   lines.At(Open).Get(0),
		High:   lines.At(High).Get(0),
		Low:    lines.At(Low).Get(0),
		Close:  lines.At(Close).Get(0),
		Volume: lines.At(Volume).Get(0),
	}
}

// Idle marks the feed as not moving on the current step.
func (f *Feed) Idle() {
	f.event = graph.EventNone
}

// Close releases the underlying source.
func (f *Feed) Close() {
	if f.stop != nil {
		f.stop()
	}
}

// peekSource returns the next source bar without consuming it.
func (f *Feed) peekSource() (*types.MarketData, error) {
	if f.pending != nil || f.done {
		return f.pending, nil
	}

	bar, err, ok := f.next()
	if !ok {
		f.done = true

		return nil, nil
	}

	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "feed %s: read failed", f.name)
	}

	if !f.last.IsZero() && !bar.Time.After(f.last) {
		return nil, errors.Newf(errors.ErrCodeNonMonotonicData,
			"feed %s: bar at %s does not follow %s", f.name, bar.Time.Format(time.RFC3339), f.last.Format(time.RFC3339))
	}

	if f.symbol == "" {
		f.symbol = bar.Symbol
	}

	f.last = bar.Time
	f.pending = &bar

	return f.pending, nil
}

func (f *Feed) takeSource() (*types.MarketData, error) {
	bar, err := f.peekSource()
	f.pending = nil

	return bar, err
}

func (f *Feed) bucketOf(t time.Time) int64 {
	// timespan validated in New
	b, _ := f.timespan.Bucket(t)

	return b
}

// Peek returns the timestamp of the bar the next Advance would deliver. It
// reports false once the feed is exhausted.
func (f *Feed) Peek() (time.Time, bool, error) {
	if f.preloaded {
		if f.cursor >= len(f.times) {
			f.markExhausted()

			return time.Time{}, false, nil
		}

		return f.times[f.cursor], true, nil
	}

	if f.mode == modeResample {
		if f.ready == nil {
			agg, err := f.aggregate()
			if err != nil {
				return time.Time{}, false, err
			}

			if agg == nil {
				f.markExhausted()

				return time.Time{}, false, nil
			}

			f.ready = agg
		}

		return f.ready.Time, true, nil
	}

	bar, err := f.peekSource()
	if err != nil {
		return time.Time{}, false, err
	}

	if bar == nil {
		f.markExhausted()

		return time.Time{}, false, nil
	}

	return bar.Time, true, nil
}

// aggregate consumes one timeframe period from the source.
func (f *Feed) aggregate() (*types.MarketData, error) {
	first, err := f.takeSource()
	if err != nil || first == nil {
		return nil, err
	}

	agg := *first
	bucket := f.bucketOf(first.Time)

	for {
		nx, err := f.peekSource()
		if err != nil {
			return nil, err
		}

		if nx == nil || f.bucketOf(nx.Time) != bucket {
			break
		}

		agg = agg.Merge(*nx)
		f.pending = nil
	}

	return &agg, nil
}

// Advance delivers the next bar. It reports false once the feed is exhausted.
func (f *Feed) Advance() (bool, error) {
	if f.preloaded {
		return f.advancePreloaded(), nil
	}

	switch f.mode {
	case modeResample:
		if _, ok, err := f.Peek(); err != nil || !ok {
			return f.exhaust(err)
		}

		bar := f.ready
		f.ready = nil
		f.push(*bar)
		f.state = StateAtBoundary
	case modeReplay:
		bar, err := f.takeSource()
		if err != nil || bar == nil {
			return f.exhaust(err)
		}

		bucket := f.bucketOf(bar.Time)
		if len(f.times) == 0 || bucket != f.bucket {
			f.bucket = bucket
			f.push(*bar)
		} else {
			f.update(*bar)
		}

		nx, err := f.peekSource()
		if err != nil {
			return false, err
		}

		if nx == nil || f.bucketOf(nx.Time) != f.bucket {
			f.state = StateAtBoundary
		} else {
			f.state = StateAdvancing
		}
	default:
		bar, err := f.takeSource()
		if err != nil || bar == nil {
			return f.exhaust(err)
		}

		f.push(*bar)
		f.state = StateAdvancing
	}

	return true, nil
}

func (f *Feed) exhaust(err error) (bool, error) {
	f.event = graph.EventNone
	if err != nil {
		return false, err
	}

	f.markExhausted()

	return false, nil
}

func (f *Feed) markExhausted() {
	if f.state != StateExhausted {
		f.logger.Debug("feed exhausted", zap.String("feed", f.name), zap.Int("bars", len(f.times)))
	}

	f.state = StateExhausted
}

func (f *Feed) push(bar types.MarketData) {
	lines := f.Lines()
	lines.Forward()
	f.write(bar)
	f.times = append(f.times, bar.Time)
	f.event = graph.EventNewBar
}

// update merges bar into the current replayed bar.
func (f *Feed) update(bar types.MarketData) {
	lines := f.Lines()
	cur := types.MarketData{
		Open:   lines.At(Open).Get(0),
		High:   lines.At(High).Get(0),
		Low:    lines.At(Low).Get(0),
		Close:  lines.At(Close).Get(0),
		Volume: lines.At(Volume).Get(0),
	}

	f.write(cur.Merge(bar))
	f.times[len(f.times)-1] = bar.Time
	f.event = graph.EventUpdate
}

func (f *Feed) write(bar types.MarketData) {
	lines := f.Lines()
	lines.At(Open).Set(bar.Open)
	lines.At(High).Set(bar.High)
	lines.At(Low).Set(bar.Low)
	lines.At(Close).Set(bar.Close)
	lines.At(Volume).Set(bar.Volume)
}

// Preload reads the whole source for a batch run and rewinds the feed.
// Replay feeds cannot be preloaded because their bars change in place.
func (f *Feed) Preload() error {
	if f.mode == modeReplay {
		return errors.Newf(errors.ErrCodeModeUnsupported, "feed %s: replay feeds cannot be preloaded", f.name)
	}

	for {
		ok, err := f.Advance()
		if err != nil {
			return err
		}

		if !ok {
			break
		}
	}

	f.preloaded = true
	f.Home()
	f.logger.Debug("feed preloaded", zap.String("feed", f.name), zap.Int("bars", len(f.times)))

	return nil
}

// Home rewinds a preloaded feed so it can be replayed bar by bar.
func (f *Feed) Home() {
	if !f.preloaded {
		return
	}

	f.cursor = 0
	f.event = graph.EventNone
	f.state = StateAdvancing
	f.Lines().Home()
}

func (f *Feed) advancePreloaded() bool {
	if f.cursor >= len(f.times) {
		f.event = graph.EventNone
		f.markExhausted()

		return false
	}

	f.Lines().Advance()
	f.cursor++
	f.event = graph.EventNewBar

	if f.mode == modeResample {
		f.state = StateAtBoundary
	}

	return true
}
