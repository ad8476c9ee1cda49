package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/foresightlab/signalhub/internal/models"
)

var ErrInvalidAPIKey = errors.New("invalid api key")

// APIKeyVerifier grants the shared read-only Visitor identity to callers
// presenting the platform API key. The key is configured as a bcrypt
// hash so the plaintext never sits in config.
type APIKeyVerifier struct {
	hash []byte
}

// NewAPIKeyVerifier creates a verifier for the given bcrypt hash. An
// empty hash disables API-key access entirely.
func NewAPIKeyVerifier(hash string) *APIKeyVerifier {
	return &APIKeyVerifier{hash: []byte(hash)}
}

// Verify checks the presented key and returns the Visitor identity.
func (v *APIKeyVerifier) Verify(key string) (models.Identity, error) {
	if len(v.hash) == 0 || key == "" {
		return models.Identity{}, ErrInvalidAPIKey
	}
	if err := bcrypt.CompareHashAndPassword(v.hash, []byte(key)); err != nil {
		return models.Identity{}, ErrInvalidAPIKey
	}
	return models.Identity{Role: models.RoleVisitor}, nil
}

// HashAPIKey produces the bcrypt hash to configure for a plaintext key.
func HashAPIKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
