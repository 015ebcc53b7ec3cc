package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRoundMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "1.005", want: "1.01"},
		{in: "1.004", want: "1.00"},
		{in: "2.345", want: "2.35"},
		{in: "-1.005", want: "-1.00"},
		{in: "-1.006", want: "-1.01"},
		{in: "-1.004", want: "-1.00"},
		{in: "-0.005", want: "0"},
		{in: "-30", want: "-30"},
		{in: "0", want: "0"},
		{in: "12.3", want: "12.30"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got := RoundMoney(decimal.RequireFromString(tc.in))
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "got %s", got)
		})
	}
}
