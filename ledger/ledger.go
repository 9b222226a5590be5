package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ziflex/lecho/v3"
)

// ErrTransactionNotFound is returned when the ledger has no settled
// transaction for the given hash.
var ErrTransactionNotFound = errors.New("transaction not found on ledger")

// Transaction is the ground-truth record of an asset transfer, as reported
// by the ledger. Amount is in stroops (1e-7 of the asset unit).
type Transaction struct {
	Hash      string
	Payer     string
	Recipient string
	Asset     string
	Amount    int64
	Settled   bool
}

type NetworkInfo struct {
	Network        string `json:"network_passphrase"`
	HorizonVersion string `json:"horizon_version"`
	CoreVersion    string `json:"core_version"`
}

// LedgerClientWrapper is the read-only oracle used to verify payments.
// Implementations must never mutate ledger state.
type LedgerClientWrapper interface {
	ResolveTransaction(ctx context.Context, txHash string) (*Transaction, error)
	GetInfo(ctx context.Context) (*NetworkInfo, error)
	GetReceivingAccount() string
}

func InitLedgerClient(c *Config, logger *lecho.Logger, ctx context.Context) (result LedgerClientWrapper, err error) {
	switch c.LedgerClientType {
	case HORIZON_CLIENT_TYPE:
		client := NewHorizonClient(c.HorizonUrl, c.ReceivingAccount, c.AssetCode)
		info, err := client.GetInfo(ctx)
		if err != nil {
			return nil, err
		}
		logger.Infof("Connected to horizon %s: %s", c.HorizonUrl, info.Network)
		return client, nil
	default:
		return nil, fmt.Errorf("Did not recognize ledger client type %s", c.LedgerClientType)
	}
}
