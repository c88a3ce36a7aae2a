package service

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/soundifyapp/soundify-service/internal/auth"
	"github.com/soundifyapp/soundify-service/internal/repository"
)

// CredentialService orchestrates salt storage and password hashing. For a
// given account there is at most one salt and one hashed password, and both
// are written together at enrollment.
type CredentialService struct {
	salts  repository.SaltRepository
	hasher *auth.PasswordHasher
}

// NewCredentialService builds the service.
func NewCredentialService(salts repository.SaltRepository, hasher *auth.PasswordHasher) *CredentialService {
	return &CredentialService{salts: salts, hasher: hasher}
}

// WithTx returns a view of the service whose salt writes join the given
// transaction, so enrollment commits atomically with the account record.
func (s *CredentialService) WithTx(tx pgx.Tx) *CredentialService {
	return &CredentialService{salts: s.salts.WithTx(tx), hasher: s.hasher}
}

// Enroll generates a salt, persists it for the account, and returns the
// derived password hash for the caller to store on the account record.
func (s *CredentialService) Enroll(ctx context.Context, accountID, password string) (string, error) {
	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return "", err
	}
	hashed := s.hasher.Hash(password, salt)
	if err := s.salts.Put(ctx, accountID, salt); err != nil {
		return "", err
	}
	return hashed, nil
}

// Verify recomputes the hash for the account's stored salt and compares it
// to expectedHash in constant time. A missing salt surfaces as
// pgx.ErrNoRows; the gateway maps it to the same invalid-credentials
// outcome as a wrong password.
func (s *CredentialService) Verify(ctx context.Context, accountID, password, expectedHash string) (bool, error) {
	salt, err := s.salts.Get(ctx, accountID)
	if err != nil {
		return false, err
	}
	return s.hasher.Verify(password, salt, expectedHash), nil
}
