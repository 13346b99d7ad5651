package service

import (
	"github.com/shopspring/decimal"

	"github.com/simplecrypto/server/internal/models"
)

// Withdrawal fee schedule, keyed by currency then network label.
// Fees are charged on top of the requested receive amount.
var withdrawalFees = map[models.Currency]map[string]decimal.Decimal{
	models.CurrencyBTC: {
		"Bitcoin": decimal.RequireFromString("0.0005"),
	},
	models.CurrencyETH: {
		"ERC20": decimal.RequireFromString("0.005"),
		"BEP20": decimal.RequireFromString("0.0001"),
	},
	models.CurrencyUSDT: {
		"ERC20": decimal.RequireFromString("10"),
		"TRC20": decimal.RequireFromString("1"),
		"BEP20": decimal.RequireFromString("0.5"),
	},
}

// Minimum withdrawal amounts per currency. Currencies without an entry
// have no minimum.
var minWithdrawals = map[models.Currency]decimal.Decimal{
	models.CurrencyBTC:  decimal.RequireFromString("0.001"),
	models.CurrencyETH:  decimal.RequireFromString("0.01"),
	models.CurrencyUSDT: decimal.RequireFromString("10"),
}

// WithdrawalFee looks up the fee for a currency/network pair.
func WithdrawalFee(coin models.Currency, network string) (decimal.Decimal, bool) {
	networks, ok := withdrawalFees[coin]
	if !ok {
		return decimal.Zero, false
	}
	fee, ok := networks[network]
	return fee, ok
}

// MinWithdrawal returns the minimum requestable amount for a currency.
func MinWithdrawal(coin models.Currency) decimal.Decimal {
	return minWithdrawals[coin]
}
