package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestGenerateIBAN(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		iban, err := GenerateIBAN("inho")
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(iban) != 18 || !strings.HasPrefix(iban, "NL") || iban[4:8] != "INHO" {
			t.Fatalf("unexpected shape %q", iban)
		}
		if err := ValidateIBAN(iban); err != nil {
			t.Fatalf("generated iban %q fails validation: %v", iban, err)
		}
		seen[iban] = true
	}

	if len(seen) < 45 {
		t.Fatalf("too many collisions: %d unique of 50", len(seen))
	}
}

func TestGenerateIBAN_BadBankCode(t *testing.T) {
	t.Parallel()

	if _, err := GenerateIBAN("ING"); !errors.Is(err, ErrInvalidIBAN) {
		t.Fatalf("expected ErrInvalidIBAN, got %v", err)
	}
}

func TestValidateIBAN(t *testing.T) {
	t.Parallel()

	valid := []string{"NL91ABNA0417164300", "nl91 abna 0417 1643 00", "DE89370400440532013000"}
	for _, iban := range valid {
		if err := ValidateIBAN(iban); err != nil {
			t.Errorf("%q should be valid: %v", iban, err)
		}
	}

	invalid := []string{"NL92ABNA0417164300", "NL91", "NL91ABNA04171643!0"}
	for _, iban := range invalid {
		if err := ValidateIBAN(iban); !errors.Is(err, ErrInvalidIBAN) {
			t.Errorf("%q: expected ErrInvalidIBAN, got %v", iban, err)
		}
	}
}

func TestNormalizeIBAN(t *testing.T) {
	t.Parallel()

	if got := NormalizeIBAN(" nl91 abna 0417 1643 00 "); got != "NL91ABNA0417164300" {
		t.Fatalf("got %q", got)
	}
}
