package intl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollatorOrdering(t *testing.T) {
	cmp, err := NewCollator("en-US", CollatorOptions{})
	require.NoError(t, err)
	assert.Negative(t, cmp("a", "b"))
	assert.Positive(t, cmp("b", "a"))
	assert.Zero(t, cmp("same", "same"))
}

func TestCollatorNumeric(t *testing.T) {
	cmp, err := NewCollator("en-US", CollatorOptions{Numeric: true})
	require.NoError(t, err)
	assert.Negative(t, cmp("2", "10"), "numeric collation orders by value")

	plain, err := NewCollator("en-US", CollatorOptions{})
	require.NoError(t, err)
	assert.Positive(t, plain("2", "10"), "lexical collation orders by digits")
}

func TestCollatorBaseSensitivity(t *testing.T) {
	cmp, err := NewCollator("en-US", CollatorOptions{Sensitivity: "base"})
	require.NoError(t, err)
	assert.Zero(t, cmp("A", "a"), "base sensitivity ignores case")
}

func TestInvalidLocaleRejected(t *testing.T) {
	_, err := NewCollator("no such locale", CollatorOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid language tag")
}

func TestNumberFormatGrouping(t *testing.T) {
	format, err := NewNumberFormat("en-US", NumberFormatOptions{UseGrouping: true, MaximumFractionDigits: -1})
	require.NoError(t, err)
	assert.Equal(t, "1,234,567", format(1234567))

	plain, err := NewNumberFormat("en-US", NumberFormatOptions{MaximumFractionDigits: -1})
	require.NoError(t, err)
	assert.Equal(t, "1234567", plain(1234567))
}

func TestNumberFormatFractionDigits(t *testing.T) {
	format, err := NewNumberFormat("en-US", NumberFormatOptions{MinimumFractionDigits: 2, MaximumFractionDigits: 2})
	require.NoError(t, err)
	assert.Equal(t, "3.50", format(3.5))
	assert.Equal(t, "3.14", format(3.14159))
}

func TestNumberFormatCurrency(t *testing.T) {
	format, err := NewNumberFormat("en-US", NumberFormatOptions{Style: "currency", Currency: "usd", MaximumFractionDigits: -1})
	require.NoError(t, err)
	got := format(9.5)
	assert.True(t, strings.HasPrefix(got, "USD "), "got %q", got)
	assert.True(t, strings.HasSuffix(got, "9.50"), "currency style defaults to two fraction digits, got %q", got)

	_, err = NewNumberFormat("en-US", NumberFormatOptions{Style: "currency"})
	require.Error(t, err, "currency style without a currency code")
}

func TestPluralRulesCardinal(t *testing.T) {
	sel, err := NewPluralRules("en-US", "cardinal")
	require.NoError(t, err)
	assert.Equal(t, "one", sel(1))
	assert.Equal(t, "other", sel(0))
	assert.Equal(t, "other", sel(2))
	assert.Equal(t, "other", sel(1.5))
}

func TestPluralRulesOrdinal(t *testing.T) {
	sel, err := NewPluralRules("en-US", "ordinal")
	require.NoError(t, err)
	assert.Equal(t, "one", sel(1))
	assert.Equal(t, "two", sel(2))
	assert.Equal(t, "few", sel(3))
	assert.Equal(t, "other", sel(4))
	assert.Equal(t, "other", sel(11), "11th is other, not one")
}

func TestDateTimeFormatStyles(t *testing.T) {
	// 2024-02-29T12:34:56Z
	const ms = int64(1709210096000)

	short, err := NewDateTimeFormat("en-US", DateTimeFormatOptions{DateStyle: "short"})
	require.NoError(t, err)
	assert.Equal(t, "2/29/2024", short(ms))

	medium, err := NewDateTimeFormat("en-US", DateTimeFormatOptions{DateStyle: "medium", TimeStyle: "short"})
	require.NoError(t, err)
	assert.Equal(t, "Feb 29, 2024, 12:34 PM", medium(ms))

	long, err := NewDateTimeFormat("en-US", DateTimeFormatOptions{DateStyle: "long", TimeStyle: "medium"})
	require.NoError(t, err)
	assert.Equal(t, "February 29, 2024, 12:34:56 PM", long(ms))

	// no options defaults to a short date
	def, err := NewDateTimeFormat("en-US", DateTimeFormatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "2/29/2024", def(ms))
}
