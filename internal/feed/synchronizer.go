package feed

import (
	"time"

	"github.com/rxtech-lab/argo-lines/internal/logger"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
	"go.uber.org/zap"
)

// Synchronizer advances a set of feeds in timestamp order. On every step it
// finds the earliest next timestamp across all feeds and advances exactly the
// feeds whose next bar carries it; the others keep their current bar.
type Synchronizer struct {
	feeds  []*Feed
	now    time.Time
	steps  int
	logger *logger.Logger
}

// NewSynchronizer creates a synchronizer over feeds.
func NewSynchronizer(log *logger.Logger, feeds ...*Feed) *Synchronizer {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Synchronizer{feeds: feeds, logger: log}
}

// Feeds returns the synchronized feeds.
func (s *Synchronizer) Feeds() []*Feed {
	return append([]*Feed(nil), s.feeds...)
}

// Now returns the timestamp of the last step.
func (s *Synchronizer) Now() time.Time {
	return s.now
}

// Steps returns the number of steps taken.
func (s *Synchronizer) Steps() int {
	return s.steps
}

// Step advances the feeds due next. It returns false once every feed is
// exhausted. A step whose timestamp is earlier than the previous one aborts
// the run with ErrCodeNonMonotonicData.
func (s *Synchronizer) Step() (bool, error) {
	var (
		next  time.Time
		found bool
	)

	due := make([]bool, len(s.feeds))
	peeks := make([]time.Time, len(s.feeds))

	for i, f := range s.feeds {
		t, ok, err := f.Peek()
		if err != nil {
			return false, err
		}

		if !ok {
			continue
		}

		due[i] = true
		peeks[i] = t

		if !found || t.Before(next) {
			next, found = t, true
		}
	}

	if !found {
		for _, f := range s.feeds {
			f.Idle()
		}

		return false, nil
	}

	if s.steps > 0 && next.Before(s.now) {
		return false, errors.Newf(errors.ErrCodeNonMonotonicData,
			"synchronizer: step at %s precedes %s", next.Format(time.RFC3339), s.now.Format(time.RFC3339))
	}

	for i, f := range s.feeds {
		if !due[i] || !peeks[i].Equal(next) {
			f.Idle()

			continue
		}

		if _, err := f.Advance(); err != nil {
			return false, err
		}
	}

	s.now = next
	s.steps++

	if s.logger.Core().Enabled(zap.DebugLevel) {
		s.logger.Debug("synchronizer step", zap.Int("step", s.steps), zap.Time("time", next))
	}

	return true, nil
}

// Home rewinds preloaded feeds for a replay of a batch run.
func (s *Synchronizer) Home() {
	for _, f := range s.feeds {
		f.Home()
	}

	s.now = time.Time{}
	s.steps = 0
}

// Close releases every feed's source.
func (s *Synchronizer) Close() {
	for _, f := range s.feeds {
		f.Close()
	}
}
