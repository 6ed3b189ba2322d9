// Package auth issues agent API keys. Only the SHA-256 of a key is stored.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	KeyPrefix  = "agora_ak_"
	keyRawSize = 24
)

func GenerateAPIKey() (string, error) {
	raw := make([]byte, keyRawSize)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return KeyPrefix + hex.EncodeToString(raw), nil
}

func HashAPIKey(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:])
}

// WellFormed reports whether key has the shape GenerateAPIKey produces.
func WellFormed(key string) bool {
	body, ok := strings.CutPrefix(key, KeyPrefix)
	if !ok || len(body) != hex.EncodedLen(keyRawSize) {
		return false
	}
	_, err := hex.DecodeString(body)
	return err == nil
}

// BearerToken extracts the credential from an Authorization header. The
// scheme is matched case-insensitively.
func BearerToken(authHeader string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
