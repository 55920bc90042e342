package domain

import (
	"fmt"
	"math/big"
	"strings"
)

// AmountDecimals is the number of smallest-unit digits in one whole unit
const AmountDecimals = 18

var amountUnit = new(big.Int).Exp(big.NewInt(10), big.NewInt(AmountDecimals), nil)

// FormatAmount renders a smallest-unit amount as a human decimal string,
// trimming trailing zeros ("1500000000000000000" -> "1.5").
func FormatAmount(amount *big.Int) string {
	if amount == nil {
		return "0"
	}

	sign := ""
	abs := new(big.Int).Abs(amount)
	if amount.Sign() < 0 {
		sign = "-"
	}

	whole := new(big.Int)
	frac := new(big.Int)
	whole.QuoRem(abs, amountUnit, frac)

	if frac.Sign() == 0 {
		return sign + whole.String()
	}

	fracStr := strings.TrimRight(fmt.Sprintf("%0*s", AmountDecimals, frac.String()), "0")
	return fmt.Sprintf("%s%s.%s", sign, whole.String(), fracStr)
}

// ParseAmount parses a human decimal string into a smallest-unit amount
func ParseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	wholeStr, fracStr, _ := strings.Cut(s, ".")
	if wholeStr == "" {
		wholeStr = "0"
	}
	if len(fracStr) > AmountDecimals {
		return nil, fmt.Errorf("amount %q exceeds %d decimal places", s, AmountDecimals)
	}

	whole, ok := new(big.Int).SetString(wholeStr, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %q", s)
	}

	result := new(big.Int).Mul(whole, amountUnit)
	if fracStr != "" {
		// Right-pad the fraction to full precision before adding
		frac, ok := new(big.Int).SetString(fracStr+strings.Repeat("0", AmountDecimals-len(fracStr)), 10)
		if !ok {
			return nil, fmt.Errorf("invalid amount: %q", s)
		}
		result.Add(result, frac)
	}

	if neg {
		result.Neg(result)
	}
	return result, nil
}
