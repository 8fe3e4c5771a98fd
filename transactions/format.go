package transactions

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Currency selects the symbol used by FormatAmount.
type Currency string

const (
	Pesos   Currency = "pesos"
	Dollars Currency = "dolares"
)

var printer = message.NewPrinter(language.MustParse("es-AR"))

// FormatAmount renders an amount the way es-AR formats ARS and USD:
// "$ 1.234,50" and "US$ 1.234,50".
func FormatAmount(amount float64, cur Currency) string {
	symbol := "$"
	if cur == Dollars {
		symbol = "US$"
	}
	sign := ""
	if amount < 0 {
		sign = "-"
	}
	return sign + symbol + " " + printer.Sprint(number.Decimal(math.Abs(amount), number.Scale(2)))
}

var monthsShort = [...]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"}

// FormatDate renders a transaction date as "2 ene 2024, 15:04". Unparseable
// dates are returned unchanged.
func FormatDate(date string, loc *time.Location) string {
	ts := Transaction{Date: date}.Time()
	if ts.IsZero() {
		return date
	}
	if loc != nil {
		ts = ts.In(loc)
	}
	return fmt.Sprintf("%d %s %d, %s", ts.Day(), monthsShort[ts.Month()-1], ts.Year(), ts.Format("15:04"))
}
