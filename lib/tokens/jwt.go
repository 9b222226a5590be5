package tokens

import (
	"time"

	"github.com/golang-jwt/jwt"
)

// ProofClaims bind an access proof to the invoice it settled, the resource
// it unlocks and the payer that paid for it. The signature is the only thing
// that makes the token unforgeable; AccessChecker re-validates it without
// touching the ledger.
type ProofClaims struct {
	PaymentID   string `json:"payment_id"`
	ResourceRef string `json:"resource_ref"`
	Payer       string `json:"payer"`

	jwt.StandardClaims
}

func GenerateProofToken(secret []byte, paymentID, resourceRef, payer string, issuedAt time.Time, expiryInSeconds int64) (string, error) {
	claims := &ProofClaims{
		PaymentID:   paymentID,
		ResourceRef: resourceRef,
		Payer:       payer,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  issuedAt.Unix(),
			ExpiresAt: issuedAt.Unix() + expiryInSeconds,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	t, err := token.SignedString(secret)
	if err != nil {
		return "", err
	}

	return t, nil
}

func ParseProofToken(secret []byte, tokenString string) (*ProofClaims, error) {
	claims := &ProofClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.NewValidationError("unexpected signing method", jwt.ValidationErrorSignatureInvalid)
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.NewValidationError("invalid token", jwt.ValidationErrorClaimsInvalid)
	}
	return claims, nil
}
