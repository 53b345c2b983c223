package datasource

import (
	"os"

	"github.com/gocarina/gocsv"
	"github.com/rxtech-lab/argo-lines/internal/logger"
	"github.com/rxtech-lab/argo-lines/internal/types"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
	"go.uber.org/zap"
)

// CSVDataSource reads a CSV file with a header row naming the columns
// symbol, time, open, high, low, close and volume. Times are RFC 3339.
type CSVDataSource struct {
	*InMemoryDataSource
	logger *logger.Logger
}

// NewCSVDataSource creates an empty CSV data source. Initialize loads the file.
func NewCSVDataSource(logger *logger.Logger) *CSVDataSource {
	return &CSVDataSource{
		InMemoryDataSource: NewInMemoryDataSource(nil),
		logger:             logger,
	}
}

// Initialize implements DataSource.
func (c *CSVDataSource) Initialize(path string) error {
	c.logger.Debug("Initializing CSV data source", zap.String("path", path))

	file, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to open %s", path)
	}
	defer file.Close()

	var rows []*types.MarketData
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to parse %s", path)
	}

	bars := make([]types.MarketData, 0, len(rows))
	for _, row := range rows {
		bars = append(bars, *row)
	}

	c.load(bars)
	c.logger.Debug("Loaded CSV data", zap.String("path", path), zap.Int("bars", len(bars)))

	return nil
}
