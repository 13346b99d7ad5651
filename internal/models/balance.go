package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Currency is a supported wallet currency code
type Currency string

const (
	CurrencyBTC  Currency = "BTC"
	CurrencyETH  Currency = "ETH"
	CurrencyUSDT Currency = "USDT"
	CurrencyBNB  Currency = "BNB"
	CurrencySOL  Currency = "SOL"
)

// SettlementCurrency is the currency investment payouts are credited in.
const SettlementCurrency = CurrencyUSDT

// Currencies lists every supported currency in display order.
var Currencies = []Currency{CurrencyBTC, CurrencyETH, CurrencyUSDT, CurrencyBNB, CurrencySOL}

// ValidCurrency reports whether code is a supported currency.
func ValidCurrency(code Currency) bool {
	for _, c := range Currencies {
		if c == code {
			return true
		}
	}
	return false
}

// DefaultBalances returns the seed amounts for a freshly created wallet.
func DefaultBalances() map[Currency]decimal.Decimal {
	return map[Currency]decimal.Decimal{
		CurrencyBTC:  decimal.RequireFromString("1.5"),
		CurrencyETH:  decimal.RequireFromString("10"),
		CurrencyUSDT: decimal.RequireFromString("50000"),
		CurrencyBNB:  decimal.Zero,
		CurrencySOL:  decimal.Zero,
	}
}

// WalletBalance is the per-account snapshot of all currency amounts.
// Every amount is >= 0 at all times; mutations go through the ledger's
// ApplyDelta primitive only.
type WalletBalance struct {
	UpdatedAt  time.Time
	Currencies map[Currency]decimal.Decimal
	AccountID  uuid.UUID
}
