package datasource

import (
	"sort"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-lines/internal/types"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
)

// InMemoryDataSource holds bars in chronological order. It serves tests and
// generated data, and backs the CSV source.
type InMemoryDataSource struct {
	data []types.MarketData
	// bySymbol[symbol] = indices into data
	bySymbol map[string][]int
	mu       sync.RWMutex
}

// NewInMemoryDataSource creates a source over a copy of bars, sorted by time.
func NewInMemoryDataSource(bars []types.MarketData) *InMemoryDataSource {
	ds := &InMemoryDataSource{
		data:     nil,
		bySymbol: make(map[string][]int),
		mu:       sync.RWMutex{},
	}
	ds.load(bars)

	return ds
}

// Preload copies every bar of underlying within [start, end] into memory.
func Preload(underlying DataSource, start optional.Option[time.Time], end optional.Option[time.Time]) (*InMemoryDataSource, error) {
	var bars []types.MarketData

	for bar, err := range underlying.ReadAll(start, end) {
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeDataNotFound, "failed to preload data", err)
		}

		bars = append(bars, bar)
	}

	return NewInMemoryDataSource(bars), nil
}

func (ds *InMemoryDataSource) load(bars []types.MarketData) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	data := make([]types.MarketData, len(bars))
	copy(data, bars)

	sort.SliceStable(data, func(i, j int) bool {
		return data[i].Time.Before(data[j].Time)
	})

	ds.data = data
	ds.bySymbol = make(map[string][]int)

	for i, bar := range data {
		ds.bySymbol[bar.Symbol] = append(ds.bySymbol[bar.Symbol], i)
	}
}

// Initialize implements DataSource. The data is already in memory.
func (ds *InMemoryDataSource) Initialize(path string) error {
	return nil
}

// ReadAll implements DataSource.
func (ds *InMemoryDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.MarketData, error) bool) {
	return func(yield func(types.MarketData, error) bool) {
		ds.mu.RLock()
		data := ds.data
		ds.mu.RUnlock()

		for _, bar := range data {
			if !inRange(bar.Time, start, end) {
				continue
			}

			if !yield(bar, nil) {
				return
			}
		}
	}
}

// Count implements DataSource.
func (ds *InMemoryDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	count := 0

	for _, bar := range ds.data {
		if inRange(bar.Time, start, end) {
			count++
		}
	}

	return count, nil
}

// Symbols returns the symbols present in the data in sorted order.
func (ds *InMemoryDataSource) Symbols() []string {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	symbols := make([]string, 0, len(ds.bySymbol))
	for symbol := range ds.bySymbol {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	return symbols
}

// Bars returns the bars of one symbol in time order.
func (ds *InMemoryDataSource) Bars(symbol string) []types.MarketData {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	indices := ds.bySymbol[symbol]
	out := make([]types.MarketData, len(indices))

	for i, idx := range indices {
		out[i] = ds.data[idx]
	}

	return out
}

// Close implements DataSource.
func (ds *InMemoryDataSource) Close() error {
	return nil
}
