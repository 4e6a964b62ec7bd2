package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)

	token, expiresAt, err := signer.Generate("auditlogs/2026-08.csv")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	relPath, parsedExpiry, err := signer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "auditlogs/2026-08.csv", relPath)
	assert.Equal(t, expiresAt.Unix(), parsedExpiry.Unix())
}

func TestSignedURLRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)

	token, _, err := signer.Generate("payments/receipt-42.pdf")
	require.NoError(t, err)

	_, _, err = signer.Parse(token + "x")
	assert.Error(t, err)

	other := NewSignedURLSigner("different", time.Minute)
	_, _, err = other.Parse(token)
	assert.Error(t, err)
}

func TestSignedURLRejectsExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", -time.Minute)

	token, _, err := signer.Generate("payments/receipt-42.pdf")
	require.NoError(t, err)

	_, _, err = signer.Parse(token)
	assert.Error(t, err)
}

func TestSignedURLRequiresPath(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)

	_, _, err := signer.Generate("")
	assert.Error(t, err)
}
