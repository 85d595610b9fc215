package receipt

import (
	"errors"
	"strings"
	"testing"
	"time"

	"card-flip/apperrors"
	"card-flip/leaderboard"
)

var fullRun = leaderboard.Score{Attempts: 11, TimeSeconds: 42, MatchedPairs: 8, TotalPairs: 8}

func TestSignVerifyRoundTrip(t *testing.T) {
	s := NewSigner("test-secret", time.Hour)

	token, err := s.Sign("sess-1", fullRun)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	claims, err := s.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.SessionID != "sess-1" {
		t.Errorf("expected sid sess-1, got %q", claims.SessionID)
	}
	if claims.Score() != fullRun {
		t.Errorf("expected %+v, got %+v", fullRun, claims.Score())
	}
}

func TestSignRejectsIncompleteRun(t *testing.T) {
	s := NewSigner("test-secret", time.Hour)

	_, err := s.Sign("sess-1", leaderboard.Score{Attempts: 3, MatchedPairs: 2, TotalPairs: 8})
	if !errors.Is(err, apperrors.ErrRunNotComplete) {
		t.Errorf("expected ErrRunNotComplete, got %v", err)
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	s := NewSigner("test-secret", time.Hour)
	token, err := s.Sign("sess-1", fullRun)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	parts := strings.Split(token, ".")
	payload := []byte(parts[1])
	if payload[5] == 'A' {
		payload[5] = 'B'
	} else {
		payload[5] = 'A'
	}
	parts[1] = string(payload)
	if _, err := s.Verify(strings.Join(parts, ".")); !errors.Is(err, apperrors.ErrInvalidReceipt) {
		t.Errorf("tampered payload: expected ErrInvalidReceipt, got %v", err)
	}

	other := NewSigner("other-secret", time.Hour)
	if _, err := other.Verify(token); !errors.Is(err, apperrors.ErrInvalidReceipt) {
		t.Errorf("wrong secret: expected ErrInvalidReceipt, got %v", err)
	}

	if _, err := s.Verify("not-a-token"); !errors.Is(err, apperrors.ErrInvalidReceipt) {
		t.Errorf("garbage: expected ErrInvalidReceipt, got %v", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	s := NewSigner("test-secret", time.Minute)
	issued := time.Now().Add(-2 * time.Hour)
	s.now = func() time.Time { return issued }
	token, err := s.Sign("sess-1", fullRun)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	s.now = time.Now
	if _, err := s.Verify(token); !errors.Is(err, apperrors.ErrInvalidReceipt) {
		t.Errorf("expected expired receipt to be rejected, got %v", err)
	}
}

func TestRandomSecretWhenUnset(t *testing.T) {
	a := NewSigner("", 0)
	b := NewSigner("", 0)

	token, err := a.Sign("s", fullRun)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := a.Verify(token); err != nil {
		t.Errorf("same signer should verify: %v", err)
	}
	if _, err := b.Verify(token); err == nil {
		t.Error("a different process secret should not verify")
	}
}
