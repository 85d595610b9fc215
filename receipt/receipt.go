package receipt

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"card-flip/apperrors"
	"card-flip/config"
	"card-flip/leaderboard"
)

const issuer = "card-flip"

// Claims is the signed summary of a finished run.
type Claims struct {
	Attempts     int    `json:"attempts"`
	TimeSeconds  int    `json:"time"`
	MatchedPairs int    `json:"pairs"`
	TotalPairs   int    `json:"total"`
	SessionID    string `json:"sid"`
	jwt.RegisteredClaims
}

// Score returns the run summary carried by the claims.
func (c *Claims) Score() leaderboard.Score {
	return leaderboard.Score{
		Attempts:     c.Attempts,
		TimeSeconds:  c.TimeSeconds,
		MatchedPairs: c.MatchedPairs,
		TotalPairs:   c.TotalPairs,
	}
}

// Signer issues and checks HS256 receipts for finished runs, so the REST
// score endpoint only records results a session actually produced.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner creates a Signer. An empty secret is replaced by a random one,
// which means receipts do not survive a restart.
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(fmt.Sprintf("receipt: read random secret: %v", err))
		}
		slog.Warn("RECEIPT_SECRET not set, using a per-process secret", "tag", "receipt", "fingerprint", hex.EncodeToString(key[:4]))
	}
	return &Signer{secret: key, ttl: ttl, now: time.Now}
}

// NewSignerFromConfig creates a Signer with the configured secret and lifetime.
func NewSignerFromConfig(cfg *config.Config) *Signer {
	return NewSigner(cfg.Leaderboard.ReceiptSecret, time.Duration(cfg.Leaderboard.ReceiptTTLMin)*time.Minute)
}

// Sign returns a receipt for a complete run.
func (s *Signer) Sign(sessionID string, score leaderboard.Score) (string, error) {
	if score.TotalPairs <= 0 || score.MatchedPairs != score.TotalPairs {
		return "", apperrors.ErrRunNotComplete
	}
	now := s.now()
	claims := Claims{
		Attempts:     score.Attempts,
		TimeSeconds:  score.TimeSeconds,
		MatchedPairs: score.MatchedPairs,
		TotalPairs:   score.TotalPairs,
		SessionID:    sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign receipt: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a receipt. Any failure wraps apperrors.ErrInvalidReceipt.
func (s *Signer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidReceipt, err)
	}
	if !token.Valid {
		return nil, apperrors.ErrInvalidReceipt
	}
	if claims.TotalPairs <= 0 || claims.MatchedPairs != claims.TotalPairs {
		return nil, fmt.Errorf("%w: run not complete", apperrors.ErrInvalidReceipt)
	}
	return claims, nil
}
