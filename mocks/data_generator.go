package mocks

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/rxtech-lab/argo-lines/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-lines/internal/types"
	"github.com/rxtech-lab/argo-lines/pkg/marketdata/writer"
	"github.com/shopspring/decimal"
)

// DataGenerator produces deterministic random-walk market data for tests.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a generator. The same seed yields the same bars.
func NewDataGenerator(seed uint64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// GeneratorConfig configures how market data is generated.
type GeneratorConfig struct {
	Symbol    string
	StartTime time.Time
	// Interval is the duration between each bar
	Interval     time.Duration
	Count        int
	InitialPrice float64
	// Volatility is the standard deviation of the per-bar return
	Volatility float64
	// Drift is added to every per-bar return
	Drift      float64
	VolumeBase float64
	// VolumeVariance scales volume by a uniform factor in [1-v, 1+v]
	VolumeVariance float64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:         "TEST",
		StartTime:      time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC),
		Interval:       time.Minute,
		Count:          1000,
		InitialPrice:   100.0,
		Volatility:     0.002,
		Drift:          0.0,
		VolumeBase:     10000,
		VolumeVariance: 0.3,
	}
}

// Generate returns config.Count bars in ascending time order.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.MarketData {
	bars := make([]types.MarketData, config.Count)
	price := config.InitialPrice

	for i := range bars {
		open := price

		ret := config.Volatility*g.rng.NormFloat64() + config.Drift

		closePrice := open * (1 + ret)
		if closePrice <= 0 {
			closePrice = open * 0.99
		}

		wick := config.Volatility * open * 0.5
		high := math.Max(open, closePrice) + g.rng.Float64()*wick

		low := math.Min(open, closePrice) - g.rng.Float64()*wick
		if low <= 0 {
			low = math.Min(open, closePrice) * 0.99
		}

		volume := config.VolumeBase * (1 + (2*g.rng.Float64()-1)*config.VolumeVariance)

		bars[i] = types.MarketData{
			Id:     "",
			Symbol: config.Symbol,
			Time:   config.StartTime.Add(time.Duration(i) * config.Interval),
			Open:   round(open, 4),
			High:   round(high, 4),
			Low:    round(low, 4),
			Close:  round(closePrice, 4),
			Volume: round(math.Max(volume, 0), 2),
		}

		price = closePrice
	}

	return bars
}

// GenerateMultiSymbol generates one series per symbol with a slightly
// different start price and volatility each.
func (g *DataGenerator) GenerateMultiSymbol(symbols []string, base GeneratorConfig) []types.MarketData {
	var all []types.MarketData

	for _, symbol := range symbols {
		config := base
		config.Symbol = symbol
		config.InitialPrice = base.InitialPrice * (0.8 + g.rng.Float64()*0.4)
		config.Volatility = base.Volatility * (0.8 + g.rng.Float64()*0.4)

		all = append(all, g.Generate(config)...)
	}

	return all
}

// DataSource returns the generated bars behind an in-memory data source.
func (g *DataGenerator) DataSource(config GeneratorConfig) *datasource.InMemoryDataSource {
	return datasource.NewInMemoryDataSource(g.Generate(config))
}

// WriteCSV writes bars to path in the format CSVDataSource reads.
func WriteCSV(path string, bars []types.MarketData) error {
	_, err := writer.WriteFile(path, bars, nil)

	return err
}

func round(val float64, decimals int32) float64 {
	return decimal.NewFromFloat(val).Round(decimals).InexactFloat64()
}
