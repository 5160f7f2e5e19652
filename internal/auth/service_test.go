package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "gastro/pkg/domain-errors"
	"gastro/pkg/platform/sentinel"

	"gastro/internal/staff"
)

type fakeCredStore struct {
	cred   *staff.Credential
	member *staff.Member
}

func (f *fakeCredStore) FindByLogin(_ context.Context, login string) (*staff.Credential, *staff.Member, error) {
	if f.cred == nil || f.cred.Login != login {
		return nil, nil, sentinel.ErrNotFound
	}
	return f.cred, f.member, nil
}

type fakeIssuer struct{}

func (fakeIssuer) Issue(int64, string) (string, error) { return "tok-123", nil }

func storeWithHash(hash string) *fakeCredStore {
	return &fakeCredStore{
		cred:   &staff.Credential{StaffID: 5, Login: "anna", PasswordHash: hash},
		member: &staff.Member{ID: 5, FirstName: "Anna", LastName: "Nowak"},
	}
}

func TestLoginWithHashedPassword(t *testing.T) {
	sum := sha256.Sum256([]byte("secret"))
	svc := NewService(storeWithHash(hex.EncodeToString(sum[:])), fakeIssuer{})

	res, err := svc.Login(context.Background(), "anna", "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.StaffID)
	assert.Equal(t, "Anna", res.FirstName)
	assert.Equal(t, "Nowak", res.LastName)
	assert.Equal(t, "tok-123", res.Token)
}

func TestLoginWithPlaintextStore(t *testing.T) {
	svc := NewService(storeWithHash("secret"), fakeIssuer{})

	res, err := svc.Login(context.Background(), "anna", "secret")
	require.NoError(t, err)
	assert.Equal(t, "anna", res.Login)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := NewService(storeWithHash("secret"), fakeIssuer{})

	_, err := svc.Login(context.Background(), "anna", "nope")
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeForbidden, dErrors.CodeOf(err))
}

func TestLoginUnknownLogin(t *testing.T) {
	svc := NewService(&fakeCredStore{}, fakeIssuer{})

	_, err := svc.Login(context.Background(), "ghost", "x")
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func TestPasswordMatches(t *testing.T) {
	sum := sha256.Sum256([]byte("pw"))
	digest := hex.EncodeToString(sum[:])

	assert.True(t, passwordMatches("pw", "pw"))
	assert.True(t, passwordMatches("pw", digest))
	assert.False(t, passwordMatches("pw", "other"))
	assert.False(t, passwordMatches(digest, "pw"))
}
