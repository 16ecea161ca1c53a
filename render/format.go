package render

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders money, numbers and dates for one locale/currency pair.
// The exact same formatter output lands in the scene for every medium, so
// exported numbers always match on-screen numbers.
type Formatter struct {
	tag     language.Tag
	printer *message.Printer
	unit    currency.Unit
	symbol  string
	scale   int
}

// narrow currency symbols for common units; anything else falls back to the
// ISO code followed by a space.
var narrowSymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CNY": "¥",
	"INR": "₹",
	"KRW": "₩",
	"AUD": "A$",
	"CAD": "CA$",
	"BRL": "R$",
	"MMK": "K",
}

// NewFormatter builds a formatter for a BCP 47 locale (e.g. "en-US") and an
// ISO 4217 currency code. Unknown locales fall back to English; an invalid
// currency code is reported to the caller.
func NewFormatter(locale, currencyCode string) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return nil, err
	}
	symbol, ok := narrowSymbols[unit.String()]
	if !ok {
		symbol = unit.String() + " "
	}
	scale, _ := currency.Standard.Rounding(unit)
	return &Formatter{
		tag:     tag,
		printer: message.NewPrinter(tag),
		unit:    unit,
		symbol:  symbol,
		scale:   scale,
	}, nil
}

// Money formats d as a currency amount with the unit's standard scale and
// the locale's digit grouping, e.g. 1500 → "$1,500.00" for USD/en-US.
func (f *Formatter) Money(d decimal.Decimal) string {
	v := d.InexactFloat64()
	return f.symbol + f.printer.Sprintf("%v", number.Decimal(v,
		number.MinFractionDigits(f.scale),
		number.MaxFractionDigits(f.scale)))
}

// Number formats a plain quantity with locale grouping and at most two
// fraction digits.
func (f *Formatter) Number(d decimal.Decimal) string {
	return f.printer.Sprintf("%v", number.Decimal(d.InexactFloat64(),
		number.MaxFractionDigits(2)))
}

// Date formats t using a conventional short form of the locale's base
// language.
func (f *Formatter) Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	base, _ := f.tag.Base()
	switch base.String() {
	case "en":
		return t.Format("Jan 2, 2006")
	case "de":
		return t.Format("02.01.2006")
	case "fr", "es", "it", "pt":
		return t.Format("02/01/2006")
	default:
		return t.Format("2006-01-02")
	}
}

// Currency returns the ISO code the formatter was built with.
func (f *Formatter) Currency() string { return f.unit.String() }

// Locale returns the canonical locale tag, e.g. "en-US".
func (f *Formatter) Locale() string { return strings.ReplaceAll(f.tag.String(), "_", "-") }
