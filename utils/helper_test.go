package utils

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"integer", "10", "10", false},
		{"three decimals", "0.125", "0.125", false},
		{"trailing zeros ok", "1.1000", "1.1", false},
		{"max allowed", "999999", "999999", false},
		{"four decimals", "0.0001", "", true},
		{"zero", "0", "", true},
		{"negative", "-5", "", true},
		{"above max", "1000000", "", true},
		{"empty", "", "", true},
		{"garbage", "abc", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseQuantity("quantity", tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %s", tc.input, got)
				}
				if !IsValidationError(err) {
					t.Fatalf("expected a validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", tc.input, err)
			}
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("want %s, got %s", tc.want, got)
			}
		})
	}
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"empty means zero", "", "0", false},
		{"whitespace means zero", "  ", "0", false},
		{"zero allowed", "0", "0", false},
		{"two decimals", "19.99", "19.99", false},
		{"max allowed", "999999999.99", "999999999.99", false},
		{"three decimals", "1.999", "", true},
		{"negative", "-0.01", "", true},
		{"above max", "1000000000", "", true},
		{"garbage", "x", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParsePrice("price", tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %s", tc.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", tc.input, err)
			}
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("want %s, got %s", tc.want, got)
			}
		})
	}
}

func TestUniqueSlice(t *testing.T) {
	got := UniqueSlice([]int{3, 1, 3, 2, 1})
	if len(got) != 3 {
		t.Fatalf("want 3 unique values, got %v", got)
	}
}
