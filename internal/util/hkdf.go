package util

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const HKDFKeyLength = 32

// DeriveKey expands seed into a HKDFKeyLength key bound to the info label.
func DeriveKey(seed []byte, info string) ([]byte, error) {
	if len(seed) == 0 {
		return nil, errors.New("hkdf: empty seed")
	}
	h := hkdf.New(sha256.New, seed, nil, []byte(info))
	k := make([]byte, HKDFKeyLength)
	if _, err := io.ReadFull(h, k); err != nil {
		return nil, fmt.Errorf("reading from HKDF: %w", err)
	}
	return k, nil
}
