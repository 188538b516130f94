package amount

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.234.567,89", "1234567.89"},
		{"1,234,567.89", "1234567.89"},
		{"$1,200", "1200"},
		{"€ 12,5", "12.5"},
		{"1,234", "1234"},
		{"-3.000,10", "-3000.1"},
		{"USD 250000", "250000"},
		{"75%", "75"},
		{"0.5", "0.5"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Parse(tt.in)
			require.True(t, ok)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestParseRejects(t *testing.T) {
	for _, in := range []string{"", "abc", "-", "1.2.3", "   ", "n/a"} {
		t.Run(in, func(t *testing.T) {
			_, ok := Parse(in)
			assert.False(t, ok)
		})
	}
}

func TestParseNull(t *testing.T) {
	n := ParseNull("1.234,50")
	assert.True(t, n.Valid)
	assert.True(t, decimal.RequireFromString("1234.5").Equal(n.Decimal))

	assert.False(t, ParseNull("").Valid)
	assert.False(t, ParseNull("abc").Valid)
}
