package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/Dan9191/weather-service/internal/models"
)

func TestIssueAndVerify_Success(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("super-secret", time.Hour)

	tok, err := m.Issue(42)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	userID, err := m.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if userID != 42 {
		t.Fatalf("user id mismatch: got %d want 42", userID)
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("secret", -1*time.Second)

	tok, err := m.Issue(1)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = m.Verify(tok)
	if !errors.Is(err, models.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenManager("right-secret", time.Hour).Issue(2)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = NewTokenManager("wrong-secret", time.Hour).Verify(tok)
	if !errors.Is(err, models.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	_, err := NewTokenManager("k", time.Hour).Verify("not.a.jwt")
	if !errors.Is(err, models.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for malformed token, got %v", err)
	}
}
