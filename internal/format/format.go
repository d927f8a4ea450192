// Package format renders numbers and timestamps the way Brazilian readers expect.
package format

import (
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// TimestampLayout is dd/mm/aaaa às HH:MM.
const TimestampLayout = "02/01/2006 às 15:04"

var printer = message.NewPrinter(language.BrazilianPortuguese)

// Int formats an integer with "." as thousands separator.
func Int[T ~int | ~int64](n T) string {
	return printer.Sprintf("%d", int64(n))
}

// Decimal formats a float with the given number of decimals and "," as separator.
func Decimal(f float64, decimals int) string {
	return printer.Sprintf("%."+strconv.Itoa(decimals)+"f", f)
}

// Percent formats a share already expressed in percent, with one decimal.
func Percent(f float64) string {
	return Decimal(f, 1) + "%"
}

// Timestamp formats t in local time, or returns "-" for the zero time.
func Timestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(TimestampLayout)
}
