// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts typed by the user.
// Amounts are kept as decimals; nothing here rounds to cents.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string into a positive amount.
//
// It accepts both dot (12.99) and comma (12,99) decimal separators and
// surrounding whitespace. Signs, exponents, thousands separators and anything
// that is not a plain decimal number are rejected, as is zero.
//
// Examples:
//
//	ParseAmount("12.99") -> 12.99, nil
//	ParseAmount("12,99") -> 12.99, nil
//	ParseAmount("0")     -> 0, ErrInvalidAmount
//	ParseAmount("-5")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseIncome converts a decimal string into a non-negative weekly income.
func ParseIncome(s string) (decimal.Decimal, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return decimal.Zero, ErrInvalidIncome
	}
	return d, nil
}

// IncomeOrZero parses s as an income and falls back to zero when s is empty
// or invalid. Used when opening a new week.
func IncomeOrZero(s string) decimal.Decimal {
	d, err := ParseIncome(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return decimal.Zero, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" && fracPart == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	normalized := intPart
	if fracPart != "" {
		normalized += "." + fracPart
	}
	return decimal.NewFromString(normalized)
}
