package writer

import (
	"os"

	"github.com/gocarina/gocsv"
	"github.com/rxtech-lab/argo-lines/internal/types"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
)

// CSVWriter buffers bars and marshals them with a header row on Finalize.
type CSVWriter struct {
	outputPath string
	file       *os.File
	rows       []*types.MarketData
}

func NewCSVWriter(outputPath string) *CSVWriter {
	return &CSVWriter{outputPath: outputPath}
}

// Initialize creates the output file.
func (w *CSVWriter) Initialize() error {
	file, err := os.Create(w.outputPath)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to create %s", w.outputPath)
	}

	w.file = file
	w.rows = nil

	return nil
}

func (w *CSVWriter) Write(data types.MarketData) error {
	if w.file == nil {
		return errors.New(errors.ErrCodeWriteFailed, "writer not initialized")
	}

	w.rows = append(w.rows, &data)

	return nil
}

func (w *CSVWriter) Finalize() (string, error) {
	if w.file == nil {
		return "", errors.New(errors.ErrCodeWriteFailed, "writer not initialized")
	}

	if err := gocsv.MarshalFile(&w.rows, w.file); err != nil {
		return "", errors.Wrap(errors.ErrCodeWriteFailed, "failed to write csv", err)
	}

	return w.outputPath, nil
}

func (w *CSVWriter) Close() error {
	if w.file == nil {
		return nil
	}

	err := w.file.Close()
	w.file = nil

	return err
}

func (w *CSVWriter) GetOutputPath() string {
	return w.outputPath
}
