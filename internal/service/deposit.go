package service

import (
	qrcode "github.com/skip2/go-qrcode"

	"github.com/simplecrypto/server/internal/models"
)

// qrSize is the pixel size of generated QR code PNGs.
const qrSize = 256

// DepositOption describes one depositable currency and its networks
type DepositOption struct {
	Code     models.Currency `json:"code"`
	Name     string          `json:"name"`
	Networks []string        `json:"networks"`
}

// DepositAddress is a fixed platform wallet address with its QR payload
type DepositAddress struct {
	Coin    models.Currency
	Network string
	Address string
	QRCode  []byte // PNG
}

// Fixed platform deposit addresses. These are global, not per account.
var depositWallets = map[models.Currency]map[string]string{
	models.CurrencyBTC: {
		"Bitcoin": "bc1q7s06893t08vjzmvlpdd02s75kyhtgg7hd8t936",
	},
	models.CurrencyUSDT: {
		"TRC20": "TD1ZoiURnDSdfpnG366US66xNwFELC5UDT",
		"ERC20": "0x89d3e32c4e3eb08866777e2408bb777fcb3e9e2a",
		"BEP20": "0x89d3e32c4e3eb08866777e2408bb777fcb3e9e2a",
	},
	models.CurrencyETH: {
		"ERC20": "0x89d3e32c4e3eb08866777e2408bb777fcb3e9e2a",
	},
	models.CurrencyBNB: {
		"BEP20": "0x89d3e32c4e3eb08866777e2408bb777fcb3e9e2a",
	},
	models.CurrencySOL: {
		"Solana": "CH62m56Q823rsjRPYn1fNnZXhXE1dZpjZxszty4We8sZ",
	},
}

// DepositService serves deposit options and addresses
type DepositService struct{}

// NewDepositService creates a new DepositService
func NewDepositService() *DepositService {
	return &DepositService{}
}

// Options lists the depositable currencies and their preferred networks.
func (s *DepositService) Options() []DepositOption {
	return []DepositOption{
		{Code: models.CurrencyBTC, Name: "Bitcoin", Networks: []string{"Bitcoin"}},
		{Code: models.CurrencyUSDT, Name: "Tether", Networks: []string{"TRC20"}},
		{Code: models.CurrencyETH, Name: "Ethereum", Networks: []string{"ERC20"}},
		{Code: models.CurrencyBNB, Name: "BNB", Networks: []string{"BEP20"}},
		{Code: models.CurrencySOL, Name: "Solana", Networks: []string{"Solana"}},
	}
}

// Address returns the platform wallet address for a coin/network pair
// together with a scannable QR code.
func (s *DepositService) Address(coin models.Currency, network string) (*DepositAddress, error) {
	networks, ok := depositWallets[coin]
	if !ok {
		return nil, &ServiceError{
			Code:    ErrCodeInvalidRequest,
			Message: "unsupported coin",
		}
	}
	address, ok := networks[network]
	if !ok {
		return nil, &ServiceError{
			Code:    ErrCodeInvalidRequest,
			Message: "unsupported network for this coin",
		}
	}

	png, err := qrcode.Encode(address, qrcode.Medium, qrSize)
	if err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "failed to generate QR code",
			Err:     err,
		}
	}

	return &DepositAddress{
		Coin:    coin,
		Network: network,
		Address: address,
		QRCode:  png,
	}, nil
}
