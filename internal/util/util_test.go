package util

import (
	"bytes"
	"testing"
)

func TestRandom(t *testing.T) {
	t.Run("BytesLength", func(t *testing.T) {
		b, err := RandomBytes(32)
		if err != nil {
			t.Fatalf("RandomBytes failed: %v", err)
		}
		if len(b) != 32 {
			t.Errorf("expected 32 bytes, got %d", len(b))
		}
	})

	t.Run("HexUnique", func(t *testing.T) {
		a, err := RandomHex(16)
		if err != nil {
			t.Fatalf("RandomHex failed: %v", err)
		}
		b, _ := RandomHex(16)
		if len(a) != 32 {
			t.Errorf("expected 32 hex chars, got %d", len(a))
		}
		if a == b {
			t.Error("expected distinct random values")
		}
	})
}

func TestDeriveKey(t *testing.T) {
	k1, err := DeriveKey([]byte("seed"), "label-a")
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	if len(k1) != HKDFKeyLength {
		t.Fatalf("expected %d bytes, got %d", HKDFKeyLength, len(k1))
	}

	k2, _ := DeriveKey([]byte("seed"), "label-a")
	if !bytes.Equal(k1, k2) {
		t.Error("DeriveKey should be deterministic")
	}

	k3, _ := DeriveKey([]byte("seed"), "label-b")
	if bytes.Equal(k1, k3) {
		t.Error("different labels should yield different keys")
	}

	if _, err := DeriveKey(nil, "label-a"); err == nil {
		t.Error("expected error for empty seed")
	}
}

func TestNormalize(t *testing.T) {
	// Fullwidth "Ａ" folds to ASCII "A" under NFKC.
	if got := Normalize("Ａbc"); got != "Abc" {
		t.Errorf("Normalize = %q, want %q", got, "Abc")
	}
	// Precomposed and decomposed "é" normalize to the same string.
	if Normalize("cafe\u0301") != Normalize("caf\u00e9") {
		t.Error("composed and decomposed forms should normalize equal")
	}
}
