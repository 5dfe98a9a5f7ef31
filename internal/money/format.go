// Package money formats decimal amounts for people to read.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Precision is the number of minor-unit digits shown for every currency.
const Precision = 2

// Formatter renders amounts with locale digit grouping.
type Formatter struct {
	printer  *message.Printer
	currency string
}

// NewFormatter returns a Formatter for a BCP 47 locale tag such as "en" or
// "de-DE". An unparseable tag falls back to English.
func NewFormatter(locale, currency string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Formatter{printer: message.NewPrinter(tag), currency: strings.ToUpper(currency)}
}

var defaultFormatter = NewFormatter("en", "")

// Format renders amount with the default English formatter and no currency.
func Format(amount decimal.Decimal) string {
	return defaultFormatter.Format(amount)
}

// Format renders amount rounded to Precision, e.g. "USD 1,180.00".
func (f *Formatter) Format(amount decimal.Decimal) string {
	if f == nil {
		return Format(amount)
	}

	rounded := amount.Abs().Round(Precision)
	intPart, fracPart, _ := strings.Cut(rounded.StringFixed(Precision), ".")

	grouped := intPart
	if whole := rounded.Truncate(0); whole.LessThan(decimal.New(1, 18)) {
		grouped = f.printer.Sprintf("%d", whole.IntPart())
	}

	// Grouping separator and decimal mark follow the printer's locale.
	decimalMark := "."
	if sample := f.printer.Sprintf("%.1f", 0.5); len(sample) == 3 {
		decimalMark = sample[1:2]
	}

	var b strings.Builder
	if f.currency != "" {
		b.WriteString(f.currency)
		b.WriteByte(' ')
	}
	if amount.IsNegative() && !amount.Round(Precision).IsZero() {
		b.WriteByte('-')
	}
	b.WriteString(grouped)
	b.WriteString(decimalMark)
	b.WriteString(fracPart)
	return b.String()
}
