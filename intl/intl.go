// Package intl backs the Intl constructors with golang.org/x/text: collation
// for Collator, localized digit and group rendering for NumberFormat, and
// CLDR plural categories for PluralRules. Formatters are built once at
// construction and returned as plain functions so the value layer stays free
// of locale machinery.
package intl

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultLocale is used when a constructor is given no locale argument.
const DefaultLocale = "en-US"

func parseTag(locale string) (language.Tag, error) {
	if locale == "" {
		locale = DefaultLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return language.Und, fmt.Errorf("RangeError: invalid language tag: %s", locale)
	}
	return tag, nil
}

// CollatorOptions mirrors the options bag of Intl.Collator.
type CollatorOptions struct {
	Sensitivity string // "base", "accent", "case", "variant" (default)
	Numeric     bool
}

// NewCollator builds a comparison function for locale.
func NewCollator(locale string, opts CollatorOptions) (func(a, b string) int, error) {
	tag, err := parseTag(locale)
	if err != nil {
		return nil, err
	}
	var copts []collate.Option
	switch opts.Sensitivity {
	case "base":
		copts = append(copts, collate.Loose)
	case "accent":
		copts = append(copts, collate.IgnoreCase)
	case "case":
		copts = append(copts, collate.IgnoreDiacritics)
	}
	if opts.Numeric {
		copts = append(copts, collate.Numeric)
	}
	c := collate.New(tag, copts...)
	return func(a, b string) int {
		return c.CompareString(a, b)
	}, nil
}

// NumberFormatOptions mirrors the options bag of Intl.NumberFormat.
type NumberFormatOptions struct {
	Style                 string // "decimal" (default), "percent", "currency"
	Currency              string
	MinimumFractionDigits int
	MaximumFractionDigits int // -1 for unset
	UseGrouping           bool
}

// NewNumberFormat builds a number rendering function for locale.
func NewNumberFormat(locale string, opts NumberFormatOptions) (func(f float64) string, error) {
	tag, err := parseTag(locale)
	if err != nil {
		return nil, err
	}
	if opts.Style == "currency" && opts.Currency == "" {
		return nil, fmt.Errorf("TypeError: currency style requires a currency option")
	}
	p := message.NewPrinter(tag)
	min := opts.MinimumFractionDigits
	max := opts.MaximumFractionDigits
	if max < 0 {
		max = 3
		if opts.Style == "currency" {
			min, max = 2, 2
		}
	}
	if max < min {
		max = min
	}
	nopts := []number.Option{
		number.MinFractionDigits(min),
		number.MaxFractionDigits(max),
	}
	if !opts.UseGrouping {
		nopts = append(nopts, number.NoSeparator())
	}
	switch opts.Style {
	case "percent":
		return func(f float64) string {
			return p.Sprint(number.Percent(f, nopts...))
		}, nil
	case "currency":
		code := strings.ToUpper(opts.Currency)
		return func(f float64) string {
			return code + " " + p.Sprint(number.Decimal(f, nopts...))
		}, nil
	default:
		return func(f float64) string {
			return p.Sprint(number.Decimal(f, nopts...))
		}, nil
	}
}

// NewPluralRules builds a plural-category selector for locale. typ is
// "cardinal" (default) or "ordinal".
func NewPluralRules(locale, typ string) (func(f float64) string, error) {
	tag, err := parseTag(locale)
	if err != nil {
		return nil, err
	}
	rules := plural.Cardinal
	if typ == "ordinal" {
		rules = plural.Ordinal
	}
	return func(val float64) string {
		i, v, w, f, t := pluralOperands(val)
		return formName(rules.MatchPlural(tag, i, v, w, f, t))
	}, nil
}

// pluralOperands derives the CLDR plural operands (i, v, w, f, t) from a
// number, using its shortest decimal rendering for the fraction digits.
func pluralOperands(val float64) (i, v, w, f, t int) {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return 0, 0, 0, 0, 0
	}
	abs := math.Abs(val)
	i = int(math.Trunc(abs))
	s := strconv.FormatFloat(abs, 'f', -1, 64)
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		frac := s[dot+1:]
		v = len(frac)
		f, _ = strconv.Atoi(frac)
		trimmed := strings.TrimRight(frac, "0")
		w = len(trimmed)
		if trimmed != "" {
			t, _ = strconv.Atoi(trimmed)
		}
	}
	return
}

func formName(form plural.Form) string {
	switch form {
	case plural.Zero:
		return "zero"
	case plural.One:
		return "one"
	case plural.Two:
		return "two"
	case plural.Few:
		return "few"
	case plural.Many:
		return "many"
	default:
		return "other"
	}
}

// DateTimeFormatOptions mirrors the dateStyle/timeStyle options bag.
type DateTimeFormatOptions struct {
	DateStyle string // "", "short", "medium", "long"
	TimeStyle string // "", "short", "medium"
}

var monthShort = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
var monthLong = []string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"}

// NewDateTimeFormat builds a date renderer. Only the en-US patterns are
// carried; other locales fall back to them with the same field order.
func NewDateTimeFormat(locale string, opts DateTimeFormatOptions) (func(ms int64) string, error) {
	if _, err := parseTag(locale); err != nil {
		return nil, err
	}
	if opts.DateStyle == "" && opts.TimeStyle == "" {
		opts.DateStyle = "short"
	}
	return func(ms int64) string {
		ut := time.UnixMilli(ms).UTC()
		var parts []string
		switch opts.DateStyle {
		case "short":
			parts = append(parts, fmt.Sprintf("%d/%d/%d", int(ut.Month()), ut.Day(), ut.Year()))
		case "medium":
			parts = append(parts, fmt.Sprintf("%s %d, %d", monthShort[ut.Month()-1], ut.Day(), ut.Year()))
		case "long":
			parts = append(parts, fmt.Sprintf("%s %d, %d", monthLong[ut.Month()-1], ut.Day(), ut.Year()))
		}
		switch opts.TimeStyle {
		case "short":
			parts = append(parts, clock12(ut, false))
		case "medium":
			parts = append(parts, clock12(ut, true))
		}
		return strings.Join(parts, ", ")
	}, nil
}

func clock12(t time.Time, seconds bool) string {
	h := t.Hour() % 12
	if h == 0 {
		h = 12
	}
	suffix := "AM"
	if t.Hour() >= 12 {
		suffix = "PM"
	}
	if seconds {
		return fmt.Sprintf("%d:%02d:%02d %s", h, t.Minute(), t.Second(), suffix)
	}
	return fmt.Sprintf("%d:%02d %s", h, t.Minute(), suffix)
}
