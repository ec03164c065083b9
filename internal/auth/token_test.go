package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIssuer(t *testing.T) *Issuer {
	t.Helper()
	i, err := NewIssuer("test-secret", "memobloom", time.Hour)
	require.NoError(t, err)
	return i
}

func TestIssueParseRoundTrip(t *testing.T) {
	i := testIssuer(t)
	want := Session{ID: "sess-1", UserID: "f-1", Role: RoleFamily, PatientID: "p-1", Name: "Sarah"}

	tok, exp, err := i.Issue(want)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	got, err := i.Parse("Bearer " + tok)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, "p-1", got.OwnerID())
}

func TestParseExpired(t *testing.T) {
	i := testIssuer(t)
	i.ttl = -time.Minute

	tok, _, err := i.Issue(Session{ID: "s", UserID: "u", Role: RolePatient, PatientID: "u"})
	require.NoError(t, err)

	_, err = i.Parse(tok)
	assert.True(t, errors.Is(err, ErrExpiredToken), "got %v", err)
}

func TestParseWrongSecret(t *testing.T) {
	tok, _, err := testIssuer(t).Issue(Session{ID: "s", UserID: "u", Role: RolePatient, PatientID: "u"})
	require.NoError(t, err)

	other, err := NewIssuer("other-secret", "memobloom", time.Hour)
	require.NoError(t, err)
	_, err = other.Parse(tok)
	assert.True(t, errors.Is(err, ErrInvalidToken), "got %v", err)
}

func TestParseWrongIssuer(t *testing.T) {
	tok, _, err := testIssuer(t).Issue(Session{ID: "s", UserID: "u", Role: RolePatient, PatientID: "u"})
	require.NoError(t, err)

	other, err := NewIssuer("test-secret", "someone-else", time.Hour)
	require.NoError(t, err)
	_, err = other.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{Role: RolePatient, RegisteredClaims: jwt.RegisteredClaims{Subject: "u", ID: "s", Issuer: "memobloom"}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = testIssuer(t).Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseMissingAndGarbage(t *testing.T) {
	i := testIssuer(t)
	_, err := i.Parse("   ")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = i.Parse("Bearer not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewIssuerRequiresSecretAndTTL(t *testing.T) {
	_, err := NewIssuer("", "x", time.Hour)
	assert.Error(t, err)
	_, err = NewIssuer("s", "x", 0)
	assert.Error(t, err)
}
