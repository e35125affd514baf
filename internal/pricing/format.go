package pricing

import (
	"fmt"
	"strconv"
)

// CurrencySymbol is appended to formatted prices.
const CurrencySymbol = "SEK"

type formatOptions struct {
	minorUnits bool
	symbol     bool
}

// FormatOption customises FormatPrice.
type FormatOption func(*formatOptions)

// WithMinorUnits keeps two decimals instead of rounding to whole kronor.
func WithMinorUnits() FormatOption {
	return func(o *formatOptions) { o.minorUnits = true }
}

// WithoutSymbol omits the currency suffix.
func WithoutSymbol() FormatOption {
	return func(o *formatOptions) { o.symbol = false }
}

// FormatPrice renders an öre amount as kronor without thousands grouping,
// e.g. 1000 -> "10 SEK", 786 with minor units -> "7.86 SEK".
func FormatPrice(amount int64, opts ...FormatOption) string {
	o := formatOptions{symbol: true}
	for _, opt := range opts {
		opt(&o)
	}

	sign := ""
	abs := amount
	if amount < 0 {
		sign = "-"
		abs = -amount
	}

	var str string
	if o.minorUnits {
		str = fmt.Sprintf("%s%d.%02d", sign, abs/100, abs%100)
	} else {
		whole := (abs + 50) / 100
		if whole == 0 {
			sign = ""
		}
		str = sign + strconv.FormatInt(whole, 10)
	}

	if o.symbol {
		str += " " + CurrencySymbol
	}
	return str
}

// GatewayAmount renders an öre amount the way the payment gateway expects it ("215.50").
func GatewayAmount(amount int64) string {
	return FormatPrice(amount, WithMinorUnits(), WithoutSymbol())
}
