package util

import (
	"golang.org/x/text/unicode/norm"
)

// Normalize returns the NFKC form of s so that visually identical secrets
// typed on different keyboards compare equal.
func Normalize(s string) string {
	return norm.NFKC.String(s)
}
