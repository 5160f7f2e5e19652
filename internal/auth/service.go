// Package auth implements the POS login flow: credential lookup, password
// verification and token issuance.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	dErrors "gastro/pkg/domain-errors"
	"gastro/pkg/platform/sentinel"

	"gastro/internal/staff"
)

// CredentialStore resolves a login to its credential and staff rows.
type CredentialStore interface {
	FindByLogin(ctx context.Context, login string) (*staff.Credential, *staff.Member, error)
}

// TokenIssuer mints an access token for an authenticated staff member.
type TokenIssuer interface {
	Issue(subjectID int64, login string) (string, error)
}

type Service struct {
	store  CredentialStore
	tokens TokenIssuer
}

func NewService(store CredentialStore, tokens TokenIssuer) *Service {
	return &Service{store: store, tokens: tokens}
}

// Result is a successful login outcome.
type Result struct {
	StaffID      int64
	Login        string
	FirstName    string
	LastName     string
	PasswordHash string
	Token        string
}

// Login verifies a login/password pair and issues a token. Unknown logins map
// to a not-found domain error and bad passwords to a forbidden one, matching
// what POS terminals display to the operator.
func (s *Service) Login(ctx context.Context, login, password string) (*Result, error) {
	cred, member, err := s.store.FindByLogin(ctx, login)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "Unknown login")
	}
	if err != nil {
		return nil, fmt.Errorf("looking up login: %w", err)
	}
	if !passwordMatches(password, cred.PasswordHash) {
		return nil, dErrors.New(dErrors.CodeForbidden, "Invalid password")
	}
	token, err := s.tokens.Issue(cred.StaffID, cred.Login)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}
	return &Result{
		StaffID:      cred.StaffID,
		Login:        cred.Login,
		FirstName:    member.FirstName,
		LastName:     member.LastName,
		PasswordHash: cred.PasswordHash,
		Token:        token,
	}, nil
}

// passwordMatches accepts either the plaintext password or its SHA-256 hex
// digest against the stored value. Old terminals stored digests, a few
// installations still hold plaintext. Both comparisons always run so timing
// does not reveal which form the store holds.
func passwordMatches(provided, stored string) bool {
	sum := sha256.Sum256([]byte(provided))
	digest := hex.EncodeToString(sum[:])
	plainOK := subtle.ConstantTimeCompare([]byte(provided), []byte(stored)) == 1
	digestOK := subtle.ConstantTimeCompare([]byte(digest), []byte(stored)) == 1
	return plainOK || digestOK
}
