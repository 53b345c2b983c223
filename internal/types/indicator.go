package types

// IndicatorType is the registry name of an indicator.
type IndicatorType string

const (
	IndicatorTypeSMA            IndicatorType = "sma"
	IndicatorTypeEMA            IndicatorType = "ema"
	IndicatorTypeSMMA           IndicatorType = "smma"
	IndicatorTypeWMA            IndicatorType = "wma"
	IndicatorTypeExpSmoothing   IndicatorType = "exp_smoothing"
	IndicatorTypeSum            IndicatorType = "sum"
	IndicatorTypeHighest        IndicatorType = "highest"
	IndicatorTypeLowest         IndicatorType = "lowest"
	IndicatorTypeStdDev         IndicatorType = "stddev"
	IndicatorTypeMomentum       IndicatorType = "momentum"
	IndicatorTypeUpDay          IndicatorType = "upday"
	IndicatorTypeDownDay        IndicatorType = "downday"
	IndicatorTypeRSI            IndicatorType = "rsi"
	IndicatorTypeTrueRange      IndicatorType = "true_range"
	IndicatorTypeATR            IndicatorType = "atr"
	IndicatorTypeMACD           IndicatorType = "macd"
	IndicatorTypeBollingerBands IndicatorType = "bollinger_bands"
	IndicatorTypeDMI            IndicatorType = "dmi"
	IndicatorTypeCrossOver      IndicatorType = "crossover"
)

// Variant suffixes generated for every moving average in the registry.
const (
	VariantEnvelope   = "envelope"
	VariantOscillator = "oscillator"
)
