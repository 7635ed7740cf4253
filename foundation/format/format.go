// Package format provides the display formatting used by the dashboard
// for dates, amounts and wallet addresses.
package format

import (
	"math"
	"time"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/en"
)

var translator locales.Translator = en.New()

// Date formats a time as a medium date followed by a short time, such as
// "Jan 2, 2006, 3:04 pm" in the english locale.
func Date(t time.Time) string {
	return translator.FmtDateMedium(t) + ", " + translator.FmtTimeShort(t)
}

// Millis converts a timestamp in milliseconds since the epoch, as sent by
// the wallet API, into a time.
func Millis(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// Currency formats an amount with grouping and no more than two fraction
// digits. Trailing zero fraction digits are dropped.
func Currency(amount float64) string {
	rounded := math.Round(amount*100) / 100

	var digits uint64
	switch cents := math.Abs(math.Round(rounded * 100)); {
	case math.Mod(cents, 100) == 0:
		digits = 0
	case math.Mod(cents, 10) == 0:
		digits = 1
	default:
		digits = 2
	}

	return translator.FmtNumber(rounded, digits)
}

// TruncateAddress shortens an address to its first start and last end
// characters. Addresses that are short enough are returned as is.
func TruncateAddress(address string, start int, end int) string {
	if start < 0 || end < 0 || len(address) <= start+end {
		return address
	}
	return address[:start] + "..." + address[len(address)-end:]
}

// Address shortens an address the way the dashboard displays it.
func Address(address string) string {
	return TruncateAddress(address, 6, 4)
}
