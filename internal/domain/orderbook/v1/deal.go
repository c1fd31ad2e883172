package orderbookv1

import "github.com/shopspring/decimal"

// MarketAmount expresses a volume cap in either the base or the quote
// asset of a book. Market walks stop once the cap is reached.
type MarketAmount struct {
	IsBase bool
	Amount decimal.Decimal
}

// BaseAmount caps a market walk by base volume.
func BaseAmount(amount decimal.Decimal) MarketAmount {
	return MarketAmount{IsBase: true, Amount: amount}
}

// QuoteAmount caps a market walk by quote volume.
func QuoteAmount(amount decimal.Decimal) MarketAmount {
	return MarketAmount{IsBase: false, Amount: amount}
}

// SwapAmount expresses the caller's intent when quoting a deal: either a
// desired input amount to spend or a desired output amount to receive.
type SwapAmount struct {
	DesiredInput bool
	Amount       decimal.Decimal
}

// DesiredInput quotes a deal by the amount the caller wants to spend.
func DesiredInput(amount decimal.Decimal) SwapAmount {
	return SwapAmount{DesiredInput: true, Amount: amount}
}

// DesiredOutput quotes a deal by the amount the caller wants to receive.
func DesiredOutput(amount decimal.Decimal) SwapAmount {
	return SwapAmount{Amount: amount}
}

// DealInfo is the simulated outcome of a hypothetical market order. It is
// a quote only; nothing is mutated to produce it.
type DealInfo struct {
	InputAsset   AssetID         `json:"inputAsset"`
	InputAmount  decimal.Decimal `json:"inputAmount"`
	OutputAsset  AssetID         `json:"outputAsset"`
	OutputAmount decimal.Decimal `json:"outputAmount"`
	AveragePrice decimal.Decimal `json:"averagePrice"`
	Side         Side            `json:"side"`
}
