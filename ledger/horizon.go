package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

type HorizonClient struct {
	host             string
	receivingAccount string
	assetCode        string
}

type horizonTransaction struct {
	Hash          string `json:"hash"`
	Successful    bool   `json:"successful"`
	SourceAccount string `json:"source_account"`
	Ledger        int64  `json:"ledger"`
	CreatedAt     string `json:"created_at"`
}

type horizonPaymentOp struct {
	Type      string `json:"type"`
	From      string `json:"from"`
	To        string `json:"to"`
	AssetType string `json:"asset_type"`
	AssetCode string `json:"asset_code"`
	Amount    string `json:"amount"`
}

type horizonPaymentsPage struct {
	Embedded struct {
		Records []horizonPaymentOp `json:"records"`
	} `json:"_embedded"`
}

func NewHorizonClient(host, receivingAccount, assetCode string) *HorizonClient {
	return &HorizonClient{
		host:             host,
		receivingAccount: receivingAccount,
		assetCode:        assetCode,
	}
}

// ResolveTransaction fetches a settled transaction and aggregates its payment
// operations that pay the receiving account in the configured asset. If the
// transaction carries no such operation, the returned record reports the
// first payment operation so that callers can surface the mismatch.
func (horizon *HorizonClient) ResolveTransaction(ctx context.Context, txHash string) (*Transaction, error) {
	tx := horizonTransaction{}
	err := horizon.Request(ctx, fmt.Sprintf("/transactions/%s", url.PathEscape(txHash)), &tx)
	if err != nil {
		return nil, err
	}

	page := horizonPaymentsPage{}
	err = horizon.Request(ctx, fmt.Sprintf("/transactions/%s/payments?limit=200", url.PathEscape(txHash)), &page)
	if err != nil {
		return nil, err
	}

	result := &Transaction{
		Hash:    tx.Hash,
		Payer:   tx.SourceAccount,
		Settled: tx.Successful,
	}
	for _, op := range page.Embedded.Records {
		if op.Type != "payment" {
			continue
		}
		if result.Recipient == "" {
			result.Payer = op.From
			result.Recipient = op.To
			result.Asset = horizon.opAssetCode(op)
		}
		if op.To != horizon.receivingAccount || horizon.opAssetCode(op) != horizon.assetCode {
			continue
		}
		amount, err := ParseStroops(op.Amount)
		if err != nil {
			return nil, fmt.Errorf("Could not parse payment amount %q in transaction %s: %w", op.Amount, txHash, err)
		}
		result.Payer = op.From
		result.Recipient = op.To
		result.Asset = horizon.opAssetCode(op)
		result.Amount += amount
	}
	return result, nil
}

func (horizon *HorizonClient) GetInfo(ctx context.Context) (*NetworkInfo, error) {
	info := &NetworkInfo{}
	err := horizon.Request(ctx, "/", info)
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (horizon *HorizonClient) GetReceivingAccount() string {
	return horizon.receivingAccount
}

func (horizon *HorizonClient) opAssetCode(op horizonPaymentOp) string {
	if op.AssetType == "native" {
		return "native"
	}
	return op.AssetCode
}

func (horizon *HorizonClient) Request(ctx context.Context, endpoint string, response interface{}) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s%s", horizon.host, endpoint), nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Accept", "application/json")
	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return ErrTransactionNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Got a bad http response status code from Horizon %d for request %s", resp.StatusCode, httpReq.URL)
	}
	return json.NewDecoder(resp.Body).Decode(response)
}
