package util

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	leadingDecimal = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)
	leadingInteger = regexp.MustCompile(`^[+-]?\d+`)
)

// ParseQuantity reads the leading decimal of an NF-e quantity field such as
// "10.0000". Unparsable input yields zero.
func ParseQuantity(input string) decimal.Decimal {
	token := leadingDecimal.FindString(strings.TrimSpace(input))
	if token == "" {
		return decimal.Zero
	}
	parsed, err := decimal.NewFromString(token)
	if err != nil {
		return decimal.Zero
	}
	return parsed
}

// MaxVolumes bounds the volume count of one invoice. Larger qVol values are
// treated as unreadable, like zero or text, and fall back to 1.
const MaxVolumes = 9999

// ParseVolumes reads the leading integer of a qVol field. The result is always
// between 1 and MaxVolumes, so an invoice never loses its labels.
func ParseVolumes(input string) int {
	token := leadingInteger.FindString(strings.TrimSpace(input))
	if token == "" {
		return 1
	}
	parsed, err := strconv.Atoi(token)
	if err != nil || parsed < 1 || parsed > MaxVolumes {
		return 1
	}
	return parsed
}
