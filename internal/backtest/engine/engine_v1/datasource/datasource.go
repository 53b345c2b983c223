// Package datasource reads historical market data for feeds. Every source
// yields bars in ascending time order through ReadAll.
package datasource

import (
	"iter"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-lines/internal/types"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
)

// Format names a data source implementation in configuration.
type Format string

const (
	FormatParquet    Format = "parquet"
	FormatCSV        Format = "csv"
	FormatClickHouse Format = "clickhouse"
	FormatMemory     Format = "memory"
)

type DataSource interface {
	// Initialize initializes the data source with the given data path
	Initialize(path string) error
	// ReadAll reads all the data from the data source and yields it to the caller
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.MarketData, error) bool)
	// Count returns the number of rows in the data source
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close closes the data source and releases any resources
	Close() error
}

// marketDataColumns are the columns every SQL source selects, in scan order.
var marketDataColumns = []string{"time", "symbol", "open", "high", "low", "close", "volume"}

// rangeFilter returns the where clause limiting time to [start, end].
func rangeFilter(start, end optional.Option[time.Time]) squirrel.And {
	where := squirrel.And{}

	if start.IsSome() {
		where = append(where, squirrel.GtOrEq{"time": start.Unwrap()})
	}

	if end.IsSome() {
		where = append(where, squirrel.LtOrEq{"time": end.Unwrap()})
	}

	return where
}

// selectQuery builds the ordered bar query over table.
func selectQuery(sq squirrel.StatementBuilderType, table string, start, end optional.Option[time.Time]) (string, []any, error) {
	builder := sq.Select(marketDataColumns...).From(table).OrderBy("time ASC")
	if where := rangeFilter(start, end); len(where) > 0 {
		builder = builder.Where(where)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	return query, args, nil
}

// countQuery builds the row count query over table.
func countQuery(sq squirrel.StatementBuilderType, table string, start, end optional.Option[time.Time]) (string, []any, error) {
	builder := sq.Select("COUNT(*)").From(table)
	if where := rangeFilter(start, end); len(where) > 0 {
		builder = builder.Where(where)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build count query", err)
	}

	return query, args, nil
}

// inRange reports whether t lies in [start, end].
func inRange(t time.Time, start, end optional.Option[time.Time]) bool {
	if start.IsSome() && t.Before(start.Unwrap()) {
		return false
	}

	if end.IsSome() && t.After(end.Unwrap()) {
		return false
	}

	return true
}

// FilterSymbol keeps the bars of one symbol. An empty symbol keeps every bar.
func FilterSymbol(src iter.Seq2[types.MarketData, error], symbol string) iter.Seq2[types.MarketData, error] {
	if symbol == "" {
		return src
	}

	return func(yield func(types.MarketData, error) bool) {
		for bar, err := range src {
			if err != nil {
				yield(bar, err)

				return
			}

			if bar.Symbol != symbol {
				continue
			}

			if !yield(bar, nil) {
				return
			}
		}
	}
}
