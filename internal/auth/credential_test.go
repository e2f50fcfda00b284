package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestParseCredential(t *testing.T) {
	digest, err := bcrypt.GenerateFromPassword([]byte("Summer2024"), bcrypt.MinCost)
	require.NoError(t, err)

	cases := []struct {
		name   string
		stored string
		want   CredentialKind
	}{
		{name: "bcrypt 2a", stored: string(digest), want: CredentialHashed},
		{name: "bcrypt 2b", stored: "$2b$" + string(digest[4:]), want: CredentialHashed},
		{name: "bcrypt 2y", stored: "$2y$" + string(digest[4:]), want: CredentialHashed},
		{name: "plaintext", stored: "Summer2024", want: CredentialPlaintext},
		{name: "empty", stored: "", want: CredentialPlaintext},
		{name: "prefix only", stored: "$2a$10$short", want: CredentialPlaintext},
		{name: "unknown variant", stored: "$2x$" + string(digest[4:]), want: CredentialPlaintext},
		{name: "bad cost", stored: "$2a$1x" + string(digest[6:]), want: CredentialPlaintext},
		{name: "60 chars plaintext", stored: strings.Repeat("a", 60), want: CredentialPlaintext},
		{name: "illegal alphabet", stored: string(digest[:59]) + "!", want: CredentialPlaintext},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseCredential(tc.stored)
			assert.Equal(t, tc.want, got.Kind)
			assert.Equal(t, tc.stored, got.Value)
		})
	}
}

func TestCredentialStringIsRedacted(t *testing.T) {
	c := ParseCredential("Summer2024")
	assert.NotContains(t, c.String(), "Summer2024")
	assert.Equal(t, "plaintext(redacted)", c.String())
}

func TestBcryptHasherRoundTrip(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}
	digest, err := h.Hash("Summer2024")
	require.NoError(t, err)
	assert.True(t, ParseCredential(digest).IsHashed())
	assert.NoError(t, h.Compare(digest, "Summer2024"))
	assert.ErrorIs(t, h.Compare(digest, "summer2024"), ErrInvalidCredentials)
}

func TestValidateNewPassword(t *testing.T) {
	cases := []struct {
		identity string
		secret   string
		want     error
	}{
		{"bob", "short1A", ErrWeakPassword},
		{"bob", "alllowercase1", ErrWeakPassword},
		{"bob", "ALLUPPERCASE1", ErrWeakPassword},
		{"bob", "NoDigitsHere", ErrWeakPassword},
		{"bob", "Baharu2024", nil},
		{"bob", "Aa1" + strings.Repeat("x", 69), nil},
		{"bob", "Aa1" + strings.Repeat("x", 70), ErrWeakPassword},
		{"bob", "Aa1" + strings.Repeat("é", 35), ErrWeakPassword},
		{"Pengguna1A", "pengguna1a", ErrPasswordEqualsUsername},
		{"Pengguna1A", "Pengguna1A", ErrPasswordEqualsUsername},
		{"bob", "bob", ErrPasswordEqualsUsername},
	}
	for _, tc := range cases {
		err := ValidateNewPassword(tc.identity, tc.secret)
		if tc.want == nil {
			assert.NoError(t, err, tc.secret)
			continue
		}
		assert.ErrorIs(t, err, tc.want, tc.secret)
	}
}

func TestStrengthLabels(t *testing.T) {
	cases := []struct {
		secret string
		score  int
		label  string
	}{
		{"", 0, "Sangat Lemah"},
		{"abc", 0, "Sangat Lemah"},
		{"Abc1", 1, "Lemah"},
		{"abcdefgh", 1, "Lemah"},
		{"Abcdefgh", 2, "Sederhana"},
		{"Summer2024", 3, "Kuat"},
		{"Summer2024!Putrajaya", 4, "Sangat Kuat"},
	}
	for _, tc := range cases {
		got := Strength(tc.secret)
		assert.Equal(t, tc.score, got.Score, tc.secret)
		assert.Equal(t, tc.label, got.Label, tc.secret)
	}
}

func TestStrengthIsNotTheGate(t *testing.T) {
	// Scores well on length and symbols yet fails the policy.
	secret := "alllowercase!!!!"
	assert.GreaterOrEqual(t, Strength(secret).Score, 2)
	assert.ErrorIs(t, ValidateNewPassword("bob", secret), ErrWeakPassword)
}
