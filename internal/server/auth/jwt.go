package auth

import (
	"fmt"

	"github.com/dmitrijs2005/pmcloud/internal/common"
	"github.com/dmitrijs2005/pmcloud/internal/server/sessions"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the session token payload: the holder's account and the session
// it acquired. Tokens carry no expiry; a session lives until released.
type Claims struct {
	jwt.RegisteredClaims
	AccountID string `json:"account_id"`
}

// GenerateSessionToken signs h with secretKey (HS256).
func GenerateSessionToken(h *sessions.Handle, secretKey []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       h.SessionID,
			IssuedAt: jwt.NewNumericDate(h.AcquiredAt),
		},
		AccountID: h.AccountID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	return tokenString, nil
}

// ParseSessionToken verifies tokenString and rebuilds the handle it was
// issued for. Any failure is common.ErrInvalidToken.
func ParseSessionToken(tokenString string, secretKey []byte) (*sessions.Handle, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.AccountID == "" || claims.ID == "" {
		return nil, common.ErrInvalidToken
	}

	h := &sessions.Handle{AccountID: claims.AccountID, SessionID: claims.ID}
	if claims.IssuedAt != nil {
		h.AcquiredAt = claims.IssuedAt.Time
	}
	return h, nil
}
