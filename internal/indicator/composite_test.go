package indicator_test

import (
	"math"

	"github.com/rxtech-lab/argo-lines/internal/graph"
	"github.com/rxtech-lab/argo-lines/internal/graph/graphtest"
	"github.com/rxtech-lab/argo-lines/internal/indicator"
	"github.com/rxtech-lab/argo-lines/internal/params"
)

// bars returns an OHLC source with the given high, low and close columns.
func bars(high, low, closes []float64) *graphtest.Source {
	return graphtest.NewOHLC("bars", closes, high, low, closes)
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}

	return out
}

func (suite *IndicatorTestSuite) TestTrueRangeAndATR() {
	high := []float64{10, 12, 11}
	low := []float64{8, 9, 7}
	closes := []float64{9, 11, 8}

	res, err := graphtest.Incremental(bars(high, low, closes), func(src *graphtest.Source) (graph.Node, error) {
		return indicator.NewTrueRange(src, nil)
	})
	suite.Require().NoError(err)
	suite.assertSeries([]float64{nan, 3, 4}, res.Values["tr"])

	res, err = graphtest.Batch(bars(high, low, closes), func(src *graphtest.Source) (graph.Node, error) {
		return indicator.NewATR(src, params.Values{"period": 2, "movav": "sma"})
	})
	suite.Require().NoError(err)
	suite.Equal(3, res.Node.MinPeriod())
	suite.assertSeries([]float64{nan, nan, 3.5}, res.Values["atr"])
}

func (suite *IndicatorTestSuite) TestMACD() {
	data := make([]float64, 60)
	for i := range data {
		data[i] = 100 + 5*math.Sin(float64(i)/4)
	}

	res, err := graphtest.Incremental(graphtest.NewSeries("data", data...), func(src *graphtest.Source) (graph.Node, error) {
		return indicator.NewMACD(src, nil)
	})
	suite.Require().NoError(err)

	suite.Equal([]string{"macd", "signal", "histo"}, res.Node.Lines().Declaration().Names())
	suite.Equal(34, res.Node.MinPeriod())
	suite.Equal(25, graphtest.FirstValid(res.Values["macd"]))
	suite.Equal(33, graphtest.FirstValid(res.Values["signal"]))

	last := len(data) - 1
	suite.InDelta(res.Values["macd"][last]-res.Values["signal"][last], res.Values["histo"][last], 1e-12)

	macd := res.Node.(*indicator.MACD)
	suite.Equal(12, macd.Fast.Params().Int("period"))
	suite.Equal(26, macd.Slow.Params().Int("period"))
	suite.Equal(9, macd.Params().Int("period_signal"))
}

func (suite *IndicatorTestSuite) TestBollingerBands() {
	res, err := graphtest.Batch(graphtest.NewSeries("data", 1, 2, 3), func(src *graphtest.Source) (graph.Node, error) {
		return indicator.NewBollingerBands(src, params.Values{"period": 3})
	})
	suite.Require().NoError(err)

	width := 2 * math.Sqrt(2.0/3)
	suite.assertSeries([]float64{nan, nan, 2}, res.Values["mid"])
	suite.assertSeries([]float64{nan, nan, 2 + width}, res.Values["top"])
	suite.assertSeries([]float64{nan, nan, 2 - width}, res.Values["bot"])
}

func (suite *IndicatorTestSuite) TestDMIZeroRange() {
	flat := constant(40, 10)

	res, err := graphtest.Batch(bars(flat, flat, flat), func(src *graphtest.Source) (graph.Node, error) {
		return indicator.NewDMI(src, nil)
	})
	suite.Require().NoError(err)
	suite.Equal(28, res.Node.MinPeriod())

	suite.Equal(0.0, res.Values["plusdi"][39])
	suite.Equal(0.0, res.Values["minusdi"][39])
	suite.Equal(0.0, res.Values["adx"][39])
	suite.Equal(27, graphtest.FirstValid(res.Values["adx"]))
}

func (suite *IndicatorTestSuite) TestDMITrend() {
	n := 40
	high := make([]float64, n)
	low := make([]float64, n)
	closes := make([]float64, n)

	for i := range n {
		low[i] = float64(i)
		closes[i] = float64(i + 1)
		high[i] = float64(i + 2)
	}

	res, err := graphtest.Incremental(bars(high, low, closes), func(src *graphtest.Source) (graph.Node, error) {
		return indicator.NewDMI(src, nil)
	})
	suite.Require().NoError(err)

	suite.InDelta(50.0, res.Values["plusdi"][n-1], 1e-9)
	suite.InDelta(0.0, res.Values["minusdi"][n-1], 1e-9)
	suite.InDelta(100.0, res.Values["adx"][n-1], 1e-9)
}

func (suite *IndicatorTestSuite) TestEnvelope() {
	res, err := graphtest.Incremental(graphtest.NewSeries("data", 1, 2, 3, 4, 5), func(src *graphtest.Source) (graph.Node, error) {
		sma, err := indicator.NewSMA(src, params.Values{"period": 3})
		if err != nil {
			return nil, err
		}

		return indicator.NewEnvelope(sma, params.Values{"perc": 10})
	})
	suite.Require().NoError(err)

	suite.assertSeries([]float64{nan, nan, 2, 3, 4}, res.Values["sma"])
	suite.assertSeries([]float64{nan, nan, 2.2, 3.3, 4.4}, res.Values["top"])
	suite.assertSeries([]float64{nan, nan, 1.8, 2.7, 3.6}, res.Values["bot"])
}

func (suite *IndicatorTestSuite) TestOscillator() {
	res, err := graphtest.Batch(graphtest.NewSeries("data", 1, 2, 4), func(src *graphtest.Source) (graph.Node, error) {
		sma, err := indicator.NewSMA(src, params.Values{"period": 2})
		if err != nil {
			return nil, err
		}

		return indicator.NewOscillator(src, sma)
	})
	suite.Require().NoError(err)
	suite.assertSeries([]float64{nan, 0.5, 1}, res.Values["osc"])
}

// ohlcFixture is a deterministic, trending and oscillating bar series.
func ohlcFixture(n int) *graphtest.Source {
	open := make([]float64, n)
	high := make([]float64, n)
	low := make([]float64, n)
	closes := make([]float64, n)

	for i := range n {
		c := 100 + 10*math.Sin(float64(i)/5) + 0.1*float64(i)
		closes[i] = c
		open[i] = c - 0.5
		high[i] = c + 1 + float64(i%3)
		low[i] = c - 1 - float64(i%2)
	}

	return graphtest.NewOHLC("fixture", open, high, low, closes)
}

// TestModesAgree checks every registered indicator: incremental, one-pass
// batch and split batch runs must produce identical lines, and each line must
// become defined exactly on its minperiod.
func (suite *IndicatorTestSuite) TestModesAgree() {
	registry := indicator.NewIndicatorRegistry()

	for _, name := range registry.ListIndicators() {
		def, err := registry.GetIndicator(name)
		suite.Require().NoError(err)

		suite.assertModesAgree(string(name), func(src *graphtest.Source) (graph.Node, error) {
			inputs := []graph.Node{src}
			if def.Inputs == 2 {
				sma, err := indicator.NewSMA(src, params.Values{"period": 5})
				if err != nil {
					return nil, err
				}

				inputs = append(inputs, sma)
			}

			return registry.NewIndicator(name, inputs, nil)
		})
	}
}

// Operators read only the primary line of a composite operand, so their
// warm-up follows that line rather than the slowest line of the composite.
func (suite *IndicatorTestSuite) TestModesAgreeForOperatorsOverComposites() {
	cases := map[string]graphtest.Builder{
		"scaled_macd": func(src *graphtest.Source) (graph.Node, error) {
			macd, err := indicator.NewMACD(src, nil)
			if err != nil {
				return nil, err
			}

			return graph.MulScalar(macd, 2), nil
		},
		"delayed_macd": func(src *graphtest.Source) (graph.Node, error) {
			macd, err := indicator.NewMACD(src, nil)
			if err != nil {
				return nil, err
			}

			return graph.Delay(macd, 3)
		},
		"bbands_spread": func(src *graphtest.Source) (graph.Node, error) {
			bb, err := indicator.NewBollingerBands(src, params.Values{"period": 20})
			if err != nil {
				return nil, err
			}

			return graph.Sub(graph.MustRef(src, "close"), bb), nil
		},
	}

	for name, build := range cases {
		suite.assertModesAgree(name, build)
	}

	res, err := graphtest.Incremental(ohlcFixture(60), cases["scaled_macd"])
	suite.Require().NoError(err)
	suite.Equal(26, res.Node.MinPeriod())
	suite.Equal(25, graphtest.FirstValid(res.Values["value"]))

	res, err = graphtest.Batch(ohlcFixture(60), cases["delayed_macd"])
	suite.Require().NoError(err)
	suite.Equal(29, res.Node.MinPeriod())
	suite.Equal(28, graphtest.FirstValid(res.Values["value"]))
}

func (suite *IndicatorTestSuite) assertModesAgree(name string, build graphtest.Builder) {
	inc, err := graphtest.Incremental(ohlcFixture(120), build)
	suite.Require().NoError(err, name)

	bat, err := graphtest.Batch(ohlcFixture(120), build)
	suite.Require().NoError(err, name)

	chunked, err := graphtest.Chunked(ohlcFixture(120), build, 17, 60)
	suite.Require().NoError(err, name)

	for i, lineName := range inc.Node.Lines().Declaration().Names() {
		suite.True(graphtest.Equal(inc.Values[lineName], bat.Values[lineName], 0), "%s.%s batch", name, lineName)
		suite.True(graphtest.Equal(inc.Values[lineName], chunked.Values[lineName], 0), "%s.%s chunked", name, lineName)

		mp := inc.Node.Lines().At(i).MinPeriod()
		suite.Equal(mp-1, graphtest.FirstValid(inc.Values[lineName]), "%s.%s first value", name, lineName)
		suite.Equal(mp-1, graphtest.FirstValid(bat.Values[lineName]), "%s.%s first batch value", name, lineName)
	}
}
