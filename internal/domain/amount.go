package domain

import (
	"fmt"
	"strings"
)

// NearNominationExp is the number of decimal places of the NEAR native token:
// 1 NEAR = 10^24 yoctoNEAR.
const NearNominationExp = 24

// FracDigits is the display precision used when formatting yoctoNEAR
// amounts back to a human decimal.
const FracDigits = 5

// ParseNearAmount converts a human decimal NEAR amount ("0.1") into a
// yoctoNEAR integer string ("100000000000000000000000"). The conversion is
// pure string manipulation; no floating point is involved.
func ParseNearAmount(amount string) (string, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return "", fmt.Errorf("empty amount")
	}

	whole, frac := amount, ""
	if i := strings.IndexByte(amount, '.'); i >= 0 {
		whole, frac = amount[:i], amount[i+1:]
		if strings.IndexByte(frac, '.') >= 0 {
			return "", fmt.Errorf("invalid amount %q", amount)
		}
	}
	if whole == "" && frac == "" {
		return "", fmt.Errorf("invalid amount %q", amount)
	}
	if !isDigits(whole) || !isDigits(frac) {
		return "", fmt.Errorf("invalid amount %q", amount)
	}
	if len(frac) > NearNominationExp {
		return "", fmt.Errorf("amount %q has more than %d fractional digits", amount, NearNominationExp)
	}

	yocto := whole + frac + strings.Repeat("0", NearNominationExp-len(frac))
	yocto = strings.TrimLeft(yocto, "0")
	if yocto == "" {
		yocto = "0"
	}
	return yocto, nil
}

// FormatNearAmount converts a yoctoNEAR integer string into a human decimal
// with at most FracDigits fractional digits. Trailing zeros are trimmed.
func FormatNearAmount(yocto string) (string, error) {
	yocto = strings.TrimSpace(yocto)
	if yocto == "" || !isDigits(yocto) {
		return "", fmt.Errorf("invalid yoctoNEAR amount %q", yocto)
	}

	yocto = strings.TrimLeft(yocto, "0")
	if yocto == "" {
		return "0", nil
	}
	if len(yocto) <= NearNominationExp {
		yocto = strings.Repeat("0", NearNominationExp-len(yocto)+1) + yocto
	}

	split := len(yocto) - NearNominationExp
	whole, frac := yocto[:split], yocto[split:]
	if len(frac) > FracDigits {
		frac = frac[:FracDigits]
	}
	frac = strings.TrimRight(frac, "0")
	if frac == "" {
		return whole, nil
	}
	return whole + "." + frac, nil
}

// IsBalanceString reports whether s is a non-negative integer decimal string,
// the representation used for every on-chain amount and balance field.
func IsBalanceString(s string) bool {
	return s != "" && isDigits(s)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
