package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	ibanCountry       = "NL"
	ibanAccountDigits = 10
)

// NormalizeIBAN upper-cases an IBAN and strips spaces.
func NormalizeIBAN(iban string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(iban), " ", ""))
}

// GenerateIBAN returns a random Dutch IBAN for bankCode with valid check digits.
func GenerateIBAN(bankCode string) (string, error) {
	bankCode = strings.ToUpper(bankCode)
	if len(bankCode) != 4 {
		return "", fmt.Errorf("%w: bank code must be 4 letters", ErrInvalidIBAN)
	}

	var sb strings.Builder
	for i := 0; i < ibanAccountDigits; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generate iban: %w", err)
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}

	bban := bankCode + sb.String()
	check, err := checkDigits(ibanCountry, bban)
	if err != nil {
		return "", err
	}

	return ibanCountry + check + bban, nil
}

// ValidateIBAN checks length, character set and the ISO 7064 mod-97 checksum.
func ValidateIBAN(iban string) error {
	iban = NormalizeIBAN(iban)
	if len(iban) < 15 || len(iban) > 34 {
		return fmt.Errorf("%w: bad length", ErrInvalidIBAN)
	}

	rearranged := iban[4:] + iban[:4]
	rem, err := mod97(rearranged)
	if err != nil {
		return err
	}

	if rem != 1 {
		return fmt.Errorf("%w: checksum mismatch", ErrInvalidIBAN)
	}

	return nil
}

func checkDigits(country, bban string) (string, error) {
	rem, err := mod97(bban + country + "00")
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%02d", 98-rem), nil
}

// mod97 computes the remainder piecewise so arbitrary lengths fit in an int.
func mod97(s string) (int, error) {
	rem := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			rem = (rem*10 + int(r-'0')) % 97
		case r >= 'A' && r <= 'Z':
			v := int(r-'A') + 10
			rem = (rem*100 + v) % 97
		default:
			return 0, fmt.Errorf("%w: unexpected character %q", ErrInvalidIBAN, r)
		}
	}

	return rem, nil
}
