package datasource

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-lines/internal/logger"
	"github.com/rxtech-lab/argo-lines/internal/types"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func none() optional.Option[time.Time] {
	return optional.None[time.Time]()
}

func collect(t *testing.T, ds DataSource, start, end optional.Option[time.Time]) []types.MarketData {
	t.Helper()

	var bars []types.MarketData

	for bar, err := range ds.ReadAll(start, end) {
		require.NoError(t, err)

		bars = append(bars, bar)
	}

	return bars
}

func TestSelectQuery(t *testing.T) {
	tests := []struct {
		name     string
		sq       squirrel.StatementBuilderType
		start    optional.Option[time.Time]
		end      optional.Option[time.Time]
		expected string
		args     int
	}{
		{
			name:     "no range",
			sq:       squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
			start:    none(),
			end:      none(),
			expected: "SELECT time, symbol, open, high, low, close, volume FROM market_data ORDER BY time ASC",
		},
		{
			name:     "clickhouse range",
			sq:       squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
			start:    optional.Some(baseTime),
			end:      optional.Some(baseTime.Add(time.Hour)),
			expected: "SELECT time, symbol, open, high, low, close, volume FROM market_data WHERE (time >= ? AND time <= ?) ORDER BY time ASC",
			args:     2,
		},
		{
			name:     "duckdb start only",
			sq:       squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
			start:    optional.Some(baseTime),
			end:      none(),
			expected: "SELECT time, symbol, open, high, low, close, volume FROM market_data WHERE (time >= $1) ORDER BY time ASC",
			args:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := selectQuery(tt.sq, "market_data", tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, query)
			assert.Len(t, args, tt.args)
		})
	}
}

func TestCountQuery(t *testing.T) {
	sq := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

	query, args, err := countQuery(sq, "bars", none(), optional.Some(baseTime))
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM bars WHERE (time <= ?)", query)
	assert.Equal(t, []any{baseTime}, args)
}

func TestInMemoryDataSource(t *testing.T) {
	data := createTestData(6)
	// out of order on input
	data[0], data[5] = data[5], data[0]

	ds := NewInMemoryDataSource(data)
	require.NoError(t, ds.Initialize(""))

	bars := collect(t, ds, none(), none())
	require.Len(t, bars, 6)

	for i := 1; i < len(bars); i++ {
		assert.True(t, bars[i].Time.After(bars[i-1].Time))
	}

	bars = collect(t, ds, optional.Some(baseTime.Add(2*time.Minute)), optional.Some(baseTime.Add(3*time.Minute)))
	require.Len(t, bars, 2)
	assert.Equal(t, 102.5, bars[0].Close)

	count, err := ds.Count(optional.Some(baseTime.Add(4*time.Minute)), none())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.Equal(t, []string{"AAPL", "MSFT"}, ds.Symbols())
	assert.Len(t, ds.Bars("AAPL"), 3)
	assert.NoError(t, ds.Close())
}

func TestPreload(t *testing.T) {
	src := NewInMemoryDataSource(createTestData(10))

	ds, err := Preload(src, optional.Some(baseTime.Add(5*time.Minute)), none())
	require.NoError(t, err)

	count, err := ds.Count(none(), none())
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestCSVDataSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.csv")
	content := "time,symbol,open,high,low,close,volume\n" +
		"2024-01-02T09:01:00Z,AAPL,101,102,100,101.5,1100\n" +
		"2024-01-02T09:00:00Z,AAPL,100,101,99,100.5,1000\n" +
		"2024-01-02T09:02:00Z,AAPL,102,103,101,102.5,1200\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	ds := NewCSVDataSource(logger.NewNopLogger())
	require.NoError(t, ds.Initialize(path))

	bars := collect(t, ds, none(), none())
	require.Len(t, bars, 3)
	assert.True(t, bars[0].Time.Equal(baseTime))
	assert.Equal(t, 100.5, bars[0].Close)
	assert.Equal(t, 1200.0, bars[2].Volume)
	assert.Equal(t, "AAPL", bars[1].Symbol)
}

func TestCSVDataSourceErrors(t *testing.T) {
	dir := t.TempDir()

	ds := NewCSVDataSource(logger.NewNopLogger())
	err := ds.Initialize(filepath.Join(dir, "missing.csv"))
	assert.True(t, errors.HasCode(err, errors.ErrCodeDataSourceUnavailable))

	path := filepath.Join(dir, "broken.csv")
	require.NoError(t, os.WriteFile(path, []byte("time,close\nyesterday,abc\n"), 0o600))

	err = ds.Initialize(path)
	assert.True(t, errors.HasCode(err, errors.ErrCodeMarketDataParseFailed))
}

func TestFilterSymbolPassesErrors(t *testing.T) {
	failing := func(yield func(types.MarketData, error) bool) {
		if !yield(types.MarketData{Symbol: "AAPL"}, nil) {
			return
		}

		yield(types.MarketData{}, errors.New(errors.ErrCodeQueryFailed, "boom"))
	}

	var (
		seen int
		last error
	)

	for _, err := range FilterSymbol(failing, "MSFT") {
		seen++
		last = err
	}

	assert.Equal(t, 1, seen)
	assert.True(t, errors.HasCode(last, errors.ErrCodeQueryFailed))
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path     string
		expected Format
		wantErr  bool
	}{
		{path: "data/AAPL.parquet", expected: FormatParquet},
		{path: "data/AAPL.CSV", expected: FormatCSV},
		{path: "clickhouse://localhost:9000/default", expected: FormatClickHouse},
		{path: "data/AAPL.json", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			format, err := DetectFormat(tt.path)
			if tt.wantErr {
				assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfiguration))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, format)
		})
	}
}

func TestOpenUnsupportedFormat(t *testing.T) {
	_, err := Open("xml", "bars.xml", "", logger.NewNopLogger())
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func TestClickHouseNotInitialized(t *testing.T) {
	ds := NewClickHouseDataSource("", logger.NewNopLogger())
	assert.Equal(t, DefaultClickHouseTable, ds.table)

	_, err := ds.Count(none(), none())
	assert.True(t, errors.HasCode(err, errors.ErrCodeDataSourceUnavailable))

	for _, err := range ds.ReadAll(none(), none()) {
		assert.True(t, errors.HasCode(err, errors.ErrCodeDataSourceUnavailable))
	}

	assert.NoError(t, ds.Close())
}
