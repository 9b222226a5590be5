package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/pertoken-app/paygate/db/models"
	"github.com/pertoken-app/paygate/lib/tokens"
	"github.com/uptrace/bun"
)

// MintProof creates the access proof for a settled invoice inside the
// caller's DB transaction. Minting is the irreversible access-granted event;
// a later payment by the same payer for the same resource refreshes the row.
func (svc *PaygateService) MintProof(ctx context.Context, tx bun.Tx, invoice *models.Invoice, payer string, now time.Time) (*models.AccessProof, error) {
	proofToken, err := tokens.GenerateProofToken(svc.Config.JWTSecret, invoice.PaymentID, invoice.ResourceRef, payer, now, svc.Config.ProofValidity)
	if err != nil {
		return nil, err
	}

	proof := models.AccessProof{
		ResourceRef: invoice.ResourceRef,
		Payer:       payer,
		PaymentID:   invoice.PaymentID,
		ProofToken:  proofToken,
		IssuedAt:    now,
		ExpiresAt:   now.Add(time.Duration(svc.Config.ProofValidity) * time.Second),
	}

	_, err = tx.NewInsert().
		Model(&proof).
		On("CONFLICT (resource_ref, payer) DO UPDATE").
		Set("payment_id = EXCLUDED.payment_id").
		Set("proof_token = EXCLUDED.proof_token").
		Set("issued_at = EXCLUDED.issued_at").
		Set("expires_at = EXCLUDED.expires_at").
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return &proof, nil
}

func (svc *PaygateService) FindProof(ctx context.Context, resourceRef, payer string) (*models.AccessProof, error) {
	var proof models.AccessProof

	err := svc.DB.NewSelect().
		Model(&proof).
		Where("resource_ref = ?", resourceRef).
		Where("payer = ?", payer).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProofNotFound
		}
		return nil, err
	}
	return &proof, nil
}

// CheckAccess is the pure read path behind the content-serving decision.
// It never touches the ledger.
func (svc *PaygateService) CheckAccess(ctx context.Context, resourceRef, payer string, now time.Time) (bool, *models.AccessProof, error) {
	proof, err := svc.FindProof(ctx, resourceRef, payer)
	if err != nil {
		if errors.Is(err, ErrProofNotFound) {
			return false, nil, nil
		}
		return false, nil, err
	}
	if !now.Before(proof.ExpiresAt) {
		return false, nil, nil
	}
	return true, proof, nil
}

// VerifyProof validates a previously issued proof token and returns the
// proof record it is bound to. A token that no longer matches the stored
// proof (because a later payment refreshed it) is rejected.
func (svc *PaygateService) VerifyProof(ctx context.Context, proofToken string) (*models.AccessProof, error) {
	claims, err := tokens.ParseProofToken(svc.Config.JWTSecret, proofToken)
	if err != nil {
		return nil, ErrBadProof
	}

	proof, err := svc.FindProof(ctx, claims.ResourceRef, claims.Payer)
	if err != nil {
		return nil, err
	}
	if proof.PaymentID != claims.PaymentID {
		return nil, ErrProofNotFound
	}
	return proof, nil
}
