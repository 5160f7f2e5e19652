// Package token issues and verifies the stateless HS256 bearer credentials
// used by POS clients. Tokens are never persisted server-side and cannot be
// revoked before their embedded expiry.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Verification failure taxonomy. Verify returns exactly one of these
// (possibly wrapped) so the transport layer can answer precisely.
var (
	ErrMalformed            = errors.New("malformed token")
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
	ErrBadSignature         = errors.New("bad signature")
	ErrExpired              = errors.New("token expired")
)

// Claims carried by an access token: subject (staff ID), login, issued-at
// and expires-at.
type Claims struct {
	Login string `json:"login"`
	jwt.RegisteredClaims
}

// SubjectID returns the staff ID encoded in the subject claim.
func (c *Claims) SubjectID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse subject claim %q: %w", c.Subject, err)
	}
	return id, nil
}

// Service holds the shared secret and signing configuration, loaded once at
// startup. Verification is pure and needs no locking.
type Service struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
}

// NewService builds a token service for the given HMAC algorithm (HS256,
// HS384 or HS512).
func NewService(secret, algorithm string, ttl time.Duration) (*Service, error) {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing algorithm %q is not an HMAC method", algorithm)
	}
	return &Service{secret: []byte(secret), method: method, ttl: ttl}, nil
}

// Issue creates a signed token for the given staff member, valid from now
// until now plus the configured TTL. Claim timestamps carry whole-second
// precision, so sub-second TTLs can expire immediately.
func (s *Service) Issue(subjectID int64, login string) (string, error) {
	now := time.Now()
	claims := Claims{
		Login: login,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(subjectID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks structure, algorithm, signature (constant-time inside the
// HMAC method) and expiry, in that order, and returns the decoded claims.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != s.method.Alg() {
			return nil, ErrUnsupportedAlgorithm
		}
		return s.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrUnsupportedAlgorithm):
			return nil, ErrUnsupportedAlgorithm
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrBadSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		default:
			return nil, ErrMalformed
		}
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}
	return claims, nil
}
