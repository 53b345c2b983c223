package types

import "time"

// MarketData is one OHLCV bar as delivered by a data source.
type MarketData struct {
	Id     string    `csv:"id" json:"id" ch:"id"`
	Symbol string    `csv:"symbol" json:"symbol" ch:"symbol"`
	Time   time.Time `csv:"time" json:"time" ch:"time"`
	Open   float64   `csv:"open" json:"open" ch:"open"`
	High   float64   `csv:"high" json:"high" ch:"high"`
	Low    float64   `csv:"low" json:"low" ch:"low"`
	Close  float64   `csv:"close" json:"close" ch:"close"`
	Volume float64   `csv:"volume" json:"volume" ch:"volume"`
}

// Merge folds a finer bar into an aggregate bar: high is the max, low the min,
// close and time come from the finer bar and volume is summed.
func (m MarketData) Merge(next MarketData) MarketData {
	out := m
	if next.High > out.High {
		out.High = next.High
	}

	if next.Low < out.Low {
		out.Low = next.Low
	}

	out.Close = next.Close
	out.Volume += next.Volume
	out.Time = next.Time

	return out
}
