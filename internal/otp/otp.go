package otp

import (
	"errors"
	"math/rand/v2"
	"strings"
	"time"
)

const (
	CodeLength = 5
	Expiry     = 4 * time.Minute
)

var ErrExpired = errors.New("otp expired")

// Generate returns length decimal digits. Codes are short lived and single use,
// so a non-cryptographic source is acceptable here.
func Generate(length int) string {
	if length <= 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(length)
	for range length {
		b.WriteByte(byte('0' + rand.IntN(10)))
	}
	return b.String()
}

func CheckExpiry(createdAt, now time.Time) error {
	if now.Sub(createdAt) > Expiry {
		return ErrExpired
	}
	return nil
}
