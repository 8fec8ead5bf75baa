package domain

import "github.com/shopspring/decimal"

// ExchangeDetails is the conversion breakdown attached to a swap:
// converted = original * rate, fee = converted * feePercent/100,
// final = converted - fee.
type ExchangeDetails struct {
	OriginalAmount  decimal.Decimal `json:"original_amount"`
	ConvertedAmount decimal.Decimal `json:"converted_amount"`
	FeeAmount       decimal.Decimal `json:"fee_amount"`
	FinalAmount     decimal.Decimal `json:"final_amount"`
	Rate            decimal.Decimal `json:"rate"`
	FeePercent      decimal.Decimal `json:"fee_percent"`
}

// ComputeExchange applies an FX rate and the system-wide provider fee to
// a source amount.
func ComputeExchange(amount, rate, feePercent decimal.Decimal) ExchangeDetails {
	converted := amount.Mul(rate)
	fee := converted.Mul(feePercent).Div(decimal.NewFromInt(100))
	return ExchangeDetails{
		OriginalAmount:  amount,
		ConvertedAmount: converted,
		FeeAmount:       fee,
		FinalAmount:     converted.Sub(fee),
		Rate:            rate,
		FeePercent:      feePercent,
	}
}
