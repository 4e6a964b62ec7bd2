package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignedURLSigner creates and validates expiring download tokens for
// generated report files.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SignedURLSigner{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Generate returns a signed token referencing the stored file path.
func (s *SignedURLSigner) Generate(relPath string) (string, time.Time, error) {
	if relPath == "" {
		return "", time.Time{}, fmt.Errorf("relPath required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := time.Now().Add(s.ttl)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	token := strings.Join([]string{
		strconv.FormatInt(expiresAt.Unix(), 10),
		encodedPath,
		s.sign(expiresAt.Unix(), encodedPath),
	}, ".")
	return token, expiresAt, nil
}

// Parse validates a token and returns the embedded file path.
func (s *SignedURLSigner) Parse(token string) (relPath string, expiresAt time.Time, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", time.Time{}, fmt.Errorf("invalid token format")
	}

	ts, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("invalid token timestamp")
	}

	if !hmac.Equal([]byte(s.sign(ts, parts[1])), []byte(parts[2])) {
		return "", time.Time{}, fmt.Errorf("token signature mismatch")
	}

	expiresAt = time.Unix(ts, 0)
	if time.Now().After(expiresAt) {
		return "", time.Time{}, fmt.Errorf("token expired")
	}

	rawPath, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", time.Time{}, fmt.Errorf("invalid token path")
	}

	return string(rawPath), expiresAt, nil
}

func (s *SignedURLSigner) sign(ts int64, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%d|%s", ts, encodedPath)
	return hex.EncodeToString(mac.Sum(nil))
}
