package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidAmount(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"1", true},
		{"2500.50", true},
		{"0.01", true},
		{"1.000", true},
		{"9999999999999999.99", true},
		{"0", false},
		{"-5", false},
		{"0.001", false},
		{"0.004", false},
		{"1e-9", false},
		{"10000000000000000", false},
	}
	for _, tt := range tests {
		if got := ValidAmount(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("ValidAmount(%s) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPackageKeepsDefaultDecimalEncoding(t *testing.T) {
	if decimal.MarshalJSONWithoutQuotes {
		t.Fatalf("importing domain must not change decimal JSON encoding")
	}
}
