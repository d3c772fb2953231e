package security

import (
	"crypto/rand"
	"crypto/subtle"
	"math/big"
)

// OTPLength is the number of digits in a login code
const OTPLength = 6

// GenerateOTPCode generates a fixed-length numeric code using a
// cryptographically secure random source
func GenerateOTPCode() (string, error) {
	digits := make([]byte, OTPLength)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

// CodesEqual compares a submitted code against the stored one in constant time
func CodesEqual(submitted, stored string) bool {
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(stored)) == 1
}
