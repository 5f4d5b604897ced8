package fields

import (
	"encoding/base64"
	"encoding/hex"
)

// DecodeBase64 accepts both standard and URL-safe alphabets, with or
// without padding, since upstream log producers are inconsistent about
// which variant they emit.
func DecodeBase64(s string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	if b, err := base64.RawStdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	if b, err := base64.URLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawURLEncoding.DecodeString(s)
}

func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func DecodeHex(s string) ([]byte, error) {
	return hex.DecodeString(s)
}

func EncodeHex(b []byte) string {
	return hex.EncodeToString(b)
}
