package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	ReferralCodePrefix = "SVH"
	// 36^8 ≈ 2.8e12 possible suffixes
	ReferralCodeSuffixLength = 8
	referralCodeCharset      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateReferralCode creates a random code in the format "SVH-XXXXXXXX".
// Uniqueness against stored codes is the caller's responsibility.
func GenerateReferralCode() (string, error) {
	suffix := make([]byte, ReferralCodeSuffixLength)
	max := big.NewInt(int64(len(referralCodeCharset)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random code character: %w", err)
		}
		suffix[i] = referralCodeCharset[n.Int64()]
	}
	return ReferralCodePrefix + "-" + string(suffix), nil
}

// NormalizeReferralCode trims whitespace and upper-cases user input
func NormalizeReferralCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValidReferralCode reports whether code matches the generated format
func IsValidReferralCode(code string) bool {
	prefix := ReferralCodePrefix + "-"
	if !strings.HasPrefix(code, prefix) {
		return false
	}
	suffix := code[len(prefix):]
	if len(suffix) != ReferralCodeSuffixLength {
		return false
	}
	for _, c := range suffix {
		if !strings.ContainsRune(referralCodeCharset, c) {
			return false
		}
	}
	return true
}
