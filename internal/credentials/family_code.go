package credentials

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// FamilyCodeLength is the number of characters in a family join code
const FamilyCodeLength = 12

const familyCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateFamilyCode generates a random join code of uppercase letters and digits
func GenerateFamilyCode() (string, error) {
	code := make([]byte, FamilyCodeLength)

	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(familyCodeChars))))
		if err != nil {
			return "", err
		}
		code[i] = familyCodeChars[num.Int64()]
	}

	return string(code), nil
}

// NormalizeFamilyCode upper-cases and trims a code typed by a user
func NormalizeFamilyCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsFamilyCode reports whether code has the shape of a join code
func IsFamilyCode(code string) bool {
	if len(code) != FamilyCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(familyCodeChars, rune(code[i])) {
			return false
		}
	}
	return true
}
