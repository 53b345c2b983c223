package mocks

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-lines/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-lines/internal/logger"
	"github.com/stretchr/testify/suite"
)

type DataGeneratorTestSuite struct {
	suite.Suite
}

func TestDataGeneratorSuite(t *testing.T) {
	suite.Run(t, new(DataGeneratorTestSuite))
}

func (suite *DataGeneratorTestSuite) TestGenerate() {
	config := DefaultConfig()
	config.Count = 200

	data := NewDataGenerator(42).Generate(config)
	suite.Require().Len(data, 200)

	for i, d := range data {
		suite.Equal(config.Symbol, d.Symbol)
		suite.Positive(d.Open)
		suite.Positive(d.Low)
		suite.GreaterOrEqual(d.High, d.Low)
		suite.GreaterOrEqual(d.High, d.Open)
		suite.GreaterOrEqual(d.High, d.Close)
		suite.LessOrEqual(d.Low, d.Open)
		suite.LessOrEqual(d.Low, d.Close)

		if i > 0 {
			suite.Equal(config.Interval, d.Time.Sub(data[i-1].Time))
		}
	}
}

func (suite *DataGeneratorTestSuite) TestReproducibility() {
	config := DefaultConfig()
	config.Count = 20

	suite.Equal(NewDataGenerator(42).Generate(config), NewDataGenerator(42).Generate(config))
	suite.NotEqual(NewDataGenerator(42).Generate(config), NewDataGenerator(123).Generate(config))
}

func (suite *DataGeneratorTestSuite) TestGenerateMultiSymbol() {
	symbols := []string{"AAPL", "GOOG", "MSFT"}
	config := DefaultConfig()
	config.Count = 50

	data := NewDataGenerator(7).GenerateMultiSymbol(symbols, config)
	suite.Len(data, 150)

	counts := make(map[string]int)
	for _, d := range data {
		counts[d.Symbol]++
	}

	for _, symbol := range symbols {
		suite.Equal(50, counts[symbol])
	}
}

func (suite *DataGeneratorTestSuite) TestWriteCSVRoundTrip() {
	config := DefaultConfig()
	config.Count = 10

	data := NewDataGenerator(1).Generate(config)
	path := filepath.Join(suite.T().TempDir(), "bars.csv")
	suite.Require().NoError(WriteCSV(path, data))

	ds := datasource.NewCSVDataSource(logger.NewNopLogger())
	suite.Require().NoError(ds.Initialize(path))

	count, err := ds.Count(optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Equal(10, count)

	first := ds.Bars("TEST")[0]
	suite.True(first.Time.Equal(data[0].Time))
	suite.Equal(data[0].Close, first.Close)
}
