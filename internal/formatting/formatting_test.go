package formatting

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/donation-receipts/internal/types"
)

func TestNumberToWords(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "Zero"},
		{7, "Seven"},
		{13, "Thirteen"},
		{20, "Twenty"},
		{21, "Twenty-One"},
		{100, "One Hundred"},
		{101, "One Hundred One"},
		{999, "Nine Hundred Ninety-Nine"},
		{1000, "One Thousand"},
		{1001, "One Thousand One"},
		{1234, "One Thousand Two Hundred Thirty-Four"},
		{100000, "One Hundred Thousand"},
		{1500000, "One Million Five Hundred Thousand"},
		{2000000005, "Two Billion Five"},
		{-5, "Minus Five"},
		{math.MinInt64, "Minus Nine Quintillion Two Hundred Twenty-Three Quadrillion Three Hundred Seventy-Two Trillion Thirty-Six Billion Eight Hundred Fifty-Four Million Seven Hundred Seventy-Five Thousand Eight Hundred Eight"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NumberToWords(tt.n), "n=%d", tt.n)
	}
}

func TestAmountInWords_Numbers(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"1500", "INR One Thousand Five Hundred Rupees"},
		{"1500.99", "INR One Thousand Five Hundred Rupees"},
		{" 250 ", "INR Two Hundred Fifty Rupees"},
		{"1e3", "INR One Thousand Rupees"},
		{"0.4", "INR Zero Rupees"},
		{"-0.5", "INR Zero Rupees"},
	}

	for _, tt := range tests {
		got := AmountInWords(tt.raw)
		assert.Equal(t, tt.want, got.Text, "raw=%q", tt.raw)
		assert.False(t, got.Degraded())
	}
}

func TestAmountInWords_AlwaysWrapped(t *testing.T) {
	for _, raw := range []string{"0", "1", "42", "99999", "123456789", "-17", "3.14159", "9e15"} {
		got := AmountInWords(raw)
		assert.True(t, strings.HasPrefix(got.Text, "INR "), raw)
		assert.True(t, strings.HasSuffix(got.Text, " Rupees"), raw)
	}
}

func TestAmountInWords_Fallback(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"abc", "INR abc Rupees"},
		{"  abc  ", "INR abc Rupees"},
		{"1,000", "INR 1,000 Rupees"},
		{"NaN", "INR NaN Rupees"},
		{"inf", "INR inf Rupees"},
		{"1e30", "INR 1e30 Rupees"},
	}

	for _, tt := range tests {
		got := AmountInWords(tt.raw)
		assert.Equal(t, tt.want, got.Text, "raw=%q", tt.raw)
		require.True(t, got.Degraded(), "raw=%q", tt.raw)

		var parseErr *types.ParseError
		require.ErrorAs(t, got.Err, &parseErr)
		assert.Equal(t, types.FieldAmount, parseErr.Field)
	}
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"2024-11-03T18:30:00.000Z", "03/11/24"},
		{"2024-11-03T18:30:00Z", "03/11/24"},
		{"2024-11-03T18:30:00", "03/11/24"},
		{"2024-11-03T23:30:00+05:30", "03/11/24"},
		{"2024-11-03T18:30", "03/11/24"},
		{"2024-11-03", "03/11/24"},
		{" 2025-01-09 ", "09/01/25"},
	}

	for _, tt := range tests {
		got := FormatDate(tt.raw)
		assert.Equal(t, tt.want, got.Text, "raw=%q", tt.raw)
		assert.False(t, got.Degraded(), "raw=%q", tt.raw)
	}
}

func TestFormatDate_PassThrough(t *testing.T) {
	for _, raw := range []string{"not-a-date", "03/11/2024", "TBD", "2024-13-45", "Nov 3, 2024"} {
		got := FormatDate(raw)
		assert.Equal(t, raw, got.Text)
		require.True(t, got.Degraded(), raw)

		var parseErr *types.ParseError
		require.ErrorAs(t, got.Err, &parseErr)
		assert.Equal(t, types.FieldDate, parseErr.Field)
	}
}

func TestFormatDate_Empty(t *testing.T) {
	got := FormatDate("")
	assert.Equal(t, "", got.Text)
	assert.False(t, got.Degraded())
}

func TestSafeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12_A/B: C", "12_AB_C"},
		{`a\b/c:d"e*f?g<h>i|j`, "abcdefghij"},
		{"  7_Asha Rao  ", "7_Asha_Rao"},
		{"plain", "plain"},
		{"Résumé", "Résumé"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SafeFilename(tt.in), "in=%q", tt.in)
	}
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "12_AB_C", BaseName("12", "A/B: C", 0))
	assert.Equal(t, "record_4", BaseName("", "Asha", 4))
	assert.Equal(t, "record_0", BaseName("12", "", 0))
}

func TestBuildContext(t *testing.T) {
	rec := types.NewRecord(0, types.Row{
		types.FieldSerialNo: "12",
		types.FieldDate:     "2024-11-03T18:30:00.000Z",
		types.FieldName:     "Asha Rao",
		types.FieldAddress:  "Pune",
		types.FieldAmount:   "501",
		types.FieldPAN:      "ABCDE1234F",
	})

	ctx, degraded := BuildContext(rec)
	assert.Empty(t, degraded)
	assert.Equal(t, types.RenderContext{
		SerialNo:      "12",
		Date:          "03/11/24",
		Name:          "Asha Rao",
		Address:       "Pune",
		PAN:           "ABCDE1234F",
		AmountInWords: "INR Five Hundred One Rupees",
	}, ctx)
}

func TestBuildContext_Degraded(t *testing.T) {
	rec := types.NewRecord(0, types.Row{
		types.FieldDate:   "someday",
		types.FieldAmount: "lots",
	})

	ctx, degraded := BuildContext(rec)
	assert.Len(t, degraded, 2)
	assert.Equal(t, "someday", ctx.Date)
	assert.Equal(t, "INR lots Rupees", ctx.AmountInWords)
}
