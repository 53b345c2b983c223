// Package writer persists bars in the formats the backtest data sources read.
package writer

import (
	"path/filepath"
	"strings"

	"github.com/rxtech-lab/argo-lines/internal/logger"
	"github.com/rxtech-lab/argo-lines/internal/types"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
)

// MarketDataWriter writes bars to a destination.
type MarketDataWriter interface {
	// Initialize sets up the writer, creating tables or files.
	Initialize() error
	// Write persists a single bar.
	Write(data types.MarketData) error
	// Finalize completes the writing process and returns the output path.
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	GetOutputPath() string
}

// New returns the writer matching the extension of path.
func New(path string, log *logger.Logger) (MarketDataWriter, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return NewParquetWriter(path, log), nil
	case ".csv":
		return NewCSVWriter(path), nil
	}

	return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "no writer for %s", path)
}

// WriteFile writes bars to path with the writer New picks.
func WriteFile(path string, bars []types.MarketData, log *logger.Logger) (string, error) {
	w, err := New(path, log)
	if err != nil {
		return "", err
	}
	defer w.Close()

	if err := w.Initialize(); err != nil {
		return "", err
	}

	for _, bar := range bars {
		if err := w.Write(bar); err != nil {
			return "", err
		}
	}

	return w.Finalize()
}
