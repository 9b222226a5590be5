package integration_tests

import (
	"context"

	"github.com/pertoken-app/paygate/ledger"
)

const (
	mockReceivingAccount = "GRECEIVER5B4D56E44E32DC64C855"
	mockAssetCode        = "native"
)

type MockLedger struct {
	receivingAccount string
	transactions     map[string]*ledger.Transaction
}

func newDefaultMockLedger() *MockLedger {
	return &MockLedger{
		receivingAccount: mockReceivingAccount,
		transactions:     map[string]*ledger.Transaction{},
	}
}

// AddTransaction makes a settled transaction resolvable through the mock.
func (mock *MockLedger) AddTransaction(tx *ledger.Transaction) {
	mock.transactions[tx.Hash] = tx
}

func (mock *MockLedger) ResolveTransaction(ctx context.Context, txHash string) (*ledger.Transaction, error) {
	tx, found := mock.transactions[txHash]
	if !found {
		return nil, ledger.ErrTransactionNotFound
	}
	result := *tx
	return &result, nil
}

func (mock *MockLedger) GetInfo(ctx context.Context) (*ledger.NetworkInfo, error) {
	return &ledger.NetworkInfo{Network: "Mock Network ; 2024"}, nil
}

func (mock *MockLedger) GetReceivingAccount() string {
	return mock.receivingAccount
}
