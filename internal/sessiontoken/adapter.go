package sessiontoken

import (
	"savora/internal/platform/middleware"
)

// Validator adapts Service to the middleware JWTValidator interface so the
// platform layer does not import this package's claim type.
type Validator struct {
	svc *Service
}

func NewValidator(svc *Service) *Validator {
	return &Validator{svc: svc}
}

func (v *Validator) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := v.svc.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{
		UserID:    claims.UserID,
		SessionID: claims.SessionID,
	}, nil
}
