// Package money normalizes Brazilian Real amounts as they appear in Plano de
// Aplicação documents. Source values arrive loosely formatted ("R$1234,5",
// "1.234,50", "R$ 1.234"); Format renders the single canonical shape used in
// the generated spreadsheets ("R$ 1.234,50").
package money

import (
	"strings"
	"unicode"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// CurrencyCode is the ISO-4217 code of every amount this tool handles.
const CurrencyCode = gomoney.BRL

// Symbol returns the display symbol for CurrencyCode ("R$").
func Symbol() string {
	return gomoney.GetCurrency(CurrencyCode).Grapheme
}

// Strip removes the currency symbol, thousands separators and all whitespace,
// leaving the bare "1234,56"-style amount (or "" for blank input).
func Strip(value string) string {
	value = strings.ReplaceAll(value, Symbol(), "")
	value = strings.ReplaceAll(value, ".", "")
	var b strings.Builder
	for _, r := range value {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Format converts a loosely formatted amount into the canonical grouped form,
// e.g. "R$1234,5" -> "R$ 1.234,50". Empty input yields empty output, not
// "R$ 0,00": a missing value must stay visibly missing in the sheet.
// Format is idempotent on its own output.
func Format(value string) string {
	value = Strip(value)
	if value == "" {
		return ""
	}
	integerPart, decimalPart := value, "00"
	if idx := strings.Index(value, ","); idx >= 0 {
		integerPart, decimalPart = value[:idx], value[idx+1:]
	}
	integerPart = digitsOnly(integerPart)
	decimalPart = digitsOnly(decimalPart)
	if len(decimalPart) > 2 {
		decimalPart = decimalPart[:2]
	}
	for len(decimalPart) < 2 {
		decimalPart += "0"
	}
	integerPart = strings.TrimLeft(integerPart, "0")
	if integerPart == "" {
		integerPart = "0"
	}
	return Symbol() + " " + groupThousands(integerPart) + "," + decimalPart
}

// Parse returns the decimal value of a loosely formatted amount. The boolean
// is false when the input carries no parseable number.
func Parse(value string) (decimal.Decimal, bool) {
	value = Strip(value)
	if value == "" {
		return decimal.Zero, false
	}
	integerPart, decimalPart := value, ""
	if idx := strings.Index(value, ","); idx >= 0 {
		integerPart, decimalPart = value[:idx], value[idx+1:]
	}
	integerPart = digitsOnly(integerPart)
	decimalPart = digitsOnly(decimalPart)
	if integerPart == "" && decimalPart == "" {
		return decimal.Zero, false
	}
	if integerPart == "" {
		integerPart = "0"
	}
	s := integerPart
	if decimalPart != "" {
		s += "." + decimalPart
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// FormatDecimal renders a decimal amount in the canonical grouped form.
func FormatDecimal(d decimal.Decimal) string {
	return Format(strings.Replace(d.StringFixed(2), ".", ",", 1))
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func groupThousands(digits string) string {
	grouped := ""
	for len(digits) > 0 {
		cut := len(digits) - 3
		if cut < 0 {
			cut = 0
		}
		if grouped == "" {
			grouped = digits[cut:]
		} else {
			grouped = digits[cut:] + "." + grouped
		}
		digits = digits[:cut]
	}
	return grouped
}
