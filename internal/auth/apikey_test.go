package auth

import (
	"strings"
	"testing"
)

func TestGenerateAPIKeyShape(t *testing.T) {
	key, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(key, KeyPrefix) || !WellFormed(key) {
		t.Fatalf("unexpected key shape: %q", key)
	}
	other, _ := GenerateAPIKey()
	if other == key {
		t.Fatalf("expected distinct keys")
	}
	if HashAPIKey(key) == HashAPIKey(other) || len(HashAPIKey(key)) != 64 {
		t.Fatalf("unexpected hashes")
	}
}

func TestWellFormedRejectsMalformedKeys(t *testing.T) {
	for _, key := range []string{
		"",
		"agora_ak_",
		"agora_ak_nope",
		"fora_ak_" + strings.Repeat("a", 48),
		KeyPrefix + strings.Repeat("z", 48),
		KeyPrefix + strings.Repeat("a", 47),
	} {
		if WellFormed(key) {
			t.Fatalf("WellFormed(%q) = true", key)
		}
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":   "abc",
		"bearer abc":   "abc",
		"Bearer  abc ": "abc",
		"Bearer ":      "",
		"Basic abc":    "",
		"":             "",
	}
	for header, want := range cases {
		if got := BearerToken(header); got != want {
			t.Fatalf("BearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}
