package session

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Verifier decides whether a username/password pair grants admin access.
type Verifier interface {
	Verify(username, password string) bool
}

// CredentialVerifier accepts a single admin account whose password is kept as
// a bcrypt hash.
type CredentialVerifier struct {
	username string
	hash     []byte
}

// NewCredentialVerifier prefers passwordHash; when it is empty the plaintext
// password is hashed once here.
func NewCredentialVerifier(username, password, passwordHash string) (*CredentialVerifier, error) {
	if username == "" {
		return nil, errors.New("admin username is empty")
	}
	if passwordHash != "" {
		if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
			return nil, fmt.Errorf("invalid admin password hash: %w", err)
		}
		return &CredentialVerifier{username: username, hash: []byte(passwordHash)}, nil
	}
	if password == "" {
		return nil, errors.New("admin password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}
	return &CredentialVerifier{username: username, hash: hash}, nil
}

func (v *CredentialVerifier) Verify(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(v.username)) == 1
	passOK := bcrypt.CompareHashAndPassword(v.hash, []byte(password)) == nil
	return userOK && passOK
}
