package main

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// KeyHasher derives salted hashes of client keys so the delivery log never
// stores a raw IP address.
type KeyHasher struct {
	salt []byte
}

func NewKeyHasher(salt []byte) KeyHasher {
	return KeyHasher{salt: append([]byte(nil), salt...)}
}

// NewRandomKeyHasher uses a per-process salt. Hashes then only correlate
// within a single run.
func NewRandomKeyHasher() (KeyHasher, error) {
	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return KeyHasher{}, err
	}
	return KeyHasher{salt: salt}, nil
}

func (h KeyHasher) Hash(key string) string {
	mac := hmac.New(sha256.New, h.salt)
	mac.Write([]byte(key))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
