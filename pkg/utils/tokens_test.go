package utils

import "testing"

func TestCountTokens(t *testing.T) {
	counter, err := NewTokenCounter()
	if err != nil {
		t.Fatalf("Failed to create token counter: %v", err)
	}

	if got := counter.CountTokens(""); got != 0 {
		t.Errorf("Empty string should count 0 tokens, got %d", got)
	}

	got := counter.CountTokens("Hello, world!")
	if got <= 0 {
		t.Errorf("Expected positive token count, got %d", got)
	}
	if got > len("Hello, world!") {
		t.Errorf("Token count %d exceeds character count", got)
	}
}

func TestCountTokensSimple(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog."
	if got := CountTokensSimple(text); got <= 0 {
		t.Errorf("Expected positive token count, got %d", got)
	}
}

func TestFallbackEstimation(t *testing.T) {
	tc := &TokenCounter{} // nil codec forces fallback path
	text := "abcdefgh"
	if got := tc.CountTokens(text); got != 2 {
		t.Errorf("Expected fallback estimate 2, got %d", got)
	}
}
