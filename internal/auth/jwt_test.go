package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/foresightlab/signalhub/internal/models"
)

func TestJWTRoundTrip(t *testing.T) {
	manager := NewJWTManager("test-secret-key-32-bytes-long!!!", time.Hour)

	user := &models.User{ID: 42, Email: "alice@example.org", Role: models.RoleCurator, Unit: "Foresight"}
	token, err := manager.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	identity, err := manager.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if identity.UserID != 42 || identity.Email != "alice@example.org" {
		t.Errorf("Identity mismatch: %+v", identity)
	}
	if identity.Role != models.RoleCurator || identity.Unit != "Foresight" {
		t.Errorf("Role/unit mismatch: %+v", identity)
	}
}

func TestJWTRejectsBadTokens(t *testing.T) {
	manager := NewJWTManager("test-secret-key-32-bytes-long!!!", time.Hour)

	if _, err := manager.Verify("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken, got %v", err)
	}

	other := NewJWTManager("a-different-secret-key-entirely!", time.Hour)
	token, err := other.Generate(&models.User{ID: 1, Email: "x@example.org", Role: models.RoleUser})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := manager.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for wrong key, got %v", err)
	}
}

func TestJWTExpiry(t *testing.T) {
	manager := NewJWTManager("test-secret-key-32-bytes-long!!!", -time.Minute)
	token, err := manager.Generate(&models.User{ID: 1, Email: "x@example.org", Role: models.RoleUser})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := manager.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestAPIKeyVerifier(t *testing.T) {
	hash, err := HashAPIKey("the-shared-key")
	if err != nil {
		t.Fatalf("HashAPIKey failed: %v", err)
	}
	verifier := NewAPIKeyVerifier(hash)

	identity, err := verifier.Verify("the-shared-key")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if identity.Role != models.RoleVisitor {
		t.Errorf("Expected Visitor role, got %s", identity.Role)
	}

	if _, err := verifier.Verify("wrong-key"); !errors.Is(err, ErrInvalidAPIKey) {
		t.Errorf("Expected ErrInvalidAPIKey, got %v", err)
	}

	disabled := NewAPIKeyVerifier("")
	if _, err := disabled.Verify("anything"); !errors.Is(err, ErrInvalidAPIKey) {
		t.Errorf("Expected ErrInvalidAPIKey when disabled, got %v", err)
	}
}
