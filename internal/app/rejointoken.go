package app

import (
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

// RejoinTokenService issues and checks short-lived tokens binding a user to a
// match, so a disconnected client can prove it owns a seat when reconnecting.
type RejoinTokenService struct {
	secret string
	issuer string
}

// NewRejoinTokenService constructs a token service signing with the shared secret.
func NewRejoinTokenService(secret, issuer string) *RejoinTokenService {
	return &RejoinTokenService{secret: secret, issuer: issuer}
}

// Generate signs a rejoin token for the user and match, valid for ttl.
func (s *RejoinTokenService) Generate(userID, matchID string, ttl time.Duration) (string, error) {
	if s == nil || s.secret == "" {
		return "", fmt.Errorf("rejoin token service is not configured")
	}
	if userID == "" || matchID == "" {
		return "", fmt.Errorf("user and match are required")
	}

	claims := jwt.MapClaims{
		"iss": s.issuer,
		"sub": userID,
		"mid": matchID,
		"exp": time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// Verify checks the token's signature, expiry and that it binds the given
// user to the given match.
func (s *RejoinTokenService) Verify(tokenString, userID, matchID string) error {
	if s == nil || s.secret == "" {
		return fmt.Errorf("rejoin token service is not configured")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return fmt.Errorf("invalid rejoin token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return fmt.Errorf("invalid rejoin token claims")
	}
	if sub, _ := claims["sub"].(string); sub != userID {
		return fmt.Errorf("rejoin token user mismatch")
	}
	if mid, _ := claims["mid"].(string); mid != matchID {
		return fmt.Errorf("rejoin token match mismatch")
	}
	return nil
}
