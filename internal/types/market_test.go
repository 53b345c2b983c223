package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type MarketTestSuite struct {
	suite.Suite
}

func TestMarketSuite(t *testing.T) {
	suite.Run(t, new(MarketTestSuite))
}

func (suite *MarketTestSuite) TestMarketDataStruct() {
	now := time.Now()
	data := MarketData{
		Id:     "test-id-123",
		Symbol: "AAPL",
		Time:   now,
		Open:   150.0,
		High:   155.0,
		Low:    148.0,
		Close:  152.5,
		Volume: 1000000.0,
	}

	suite.Equal("test-id-123", data.Id)
	suite.Equal("AAPL", data.Symbol)
	suite.Equal(now, data.Time)
	suite.Equal(152.5, data.Close)
}

func (suite *MarketTestSuite) TestMerge() {
	t0 := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	first := MarketData{Symbol: "AAPL", Time: t0, Open: 10, High: 12, Low: 9, Close: 11, Volume: 100}
	second := MarketData{Symbol: "AAPL", Time: t0.Add(time.Minute), Open: 11, High: 14, Low: 10, Close: 13, Volume: 50}
	third := MarketData{Symbol: "AAPL", Time: t0.Add(2 * time.Minute), Open: 13, High: 13, Low: 8, Close: 9, Volume: 25}

	agg := first.Merge(second).Merge(third)

	suite.Equal(10.0, agg.Open)
	suite.Equal(14.0, agg.High)
	suite.Equal(8.0, agg.Low)
	suite.Equal(9.0, agg.Close)
	suite.Equal(175.0, agg.Volume)
	suite.Equal(third.Time, agg.Time)
}
