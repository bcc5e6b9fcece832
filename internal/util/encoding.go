package util

import (
	"encoding/base64"

	"golang.org/x/text/unicode/norm"
)

// Normalize returns the NFKD form of s so that visually identical
// credentials typed on different keyboards derive the same key.
func Normalize(s string) string {
	return norm.NFKD.String(s)
}

func Base64Encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func Base64Decode(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
