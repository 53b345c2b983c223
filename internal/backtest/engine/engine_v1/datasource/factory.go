package datasource

import (
	"path/filepath"
	"strings"

	"github.com/rxtech-lab/argo-lines/internal/logger"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
)

// DetectFormat guesses the format of path from its scheme or extension.
func DetectFormat(path string) (Format, error) {
	if strings.HasPrefix(path, "clickhouse://") {
		return FormatClickHouse, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return FormatParquet, nil
	case ".csv":
		return FormatCSV, nil
	}

	return "", errors.Newf(errors.ErrCodeInvalidConfiguration, "cannot detect data format of %s", path)
}

// Open creates and initializes the data source for format over path. An
// empty format is detected from the path. table only applies to ClickHouse.
func Open(format Format, path, table string, log *logger.Logger) (DataSource, error) {
	if format == "" {
		detected, err := DetectFormat(path)
		if err != nil {
			return nil, err
		}

		format = detected
	}

	var ds DataSource

	switch format {
	case FormatParquet:
		duck, err := NewDataSource(":memory:", log)
		if err != nil {
			return nil, err
		}

		ds = duck
	case FormatCSV:
		ds = NewCSVDataSource(log)
	case FormatClickHouse:
		ds = NewClickHouseDataSource(table, log)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unsupported data format %q", format)
	}

	if err := ds.Initialize(path); err != nil {
		ds.Close()

		return nil, err
	}

	return ds, nil
}
