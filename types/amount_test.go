package types

import (
	"math"
	"testing"
)

func TestAmountConstructors(t *testing.T) {
	tests := []struct {
		name    string
		amount  Amount
		raw     int64
		display string
	}{
		{"OneToken", Tokens(1), 1_000_000, "1.000000"},
		{"HundredTokens", Tokens(100), 100_000_000, "100.000000"},
		{"HalfToken", Amount(500_000), 500_000, "0.500000"},
		{"SmallestUnit", Amount(1), 1, "0.000001"},
		{"Zero", Zero, 0, "0.000000"},
		{"Negative", Tokens(-2), -2_000_000, "-2.000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.amount.Int64() != tt.raw {
				t.Errorf("Int64: got %d, want %d", tt.amount.Int64(), tt.raw)
			}
			if tt.amount.String() != tt.display {
				t.Errorf("String: got %s, want %s", tt.amount.String(), tt.display)
			}
		})
	}
}

func TestAmountArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func() Amount
		expected Amount
	}{
		{"Add", func() Amount { return Tokens(1).Add(Tokens(2)) }, Tokens(3)},
		{"Subtract", func() Amount { return Tokens(5).Subtract(Tokens(2)) }, Tokens(3)},
		{"Multiply", func() Amount { return Tokens(1).Multiply(3) }, Tokens(3)},
		{"Divide", func() Amount { return Tokens(9).Divide(3) }, Tokens(3)},
		{"Negate", func() Amount { return Tokens(3).Negate() }, Tokens(-3)},
		{"Abs", func() Amount { return Tokens(-3).Abs() }, Tokens(3)},
		{"Min", func() Amount { return Tokens(3).Min(Tokens(5)) }, Tokens(3)},
		{"Max", func() Amount { return Tokens(3).Max(Tokens(5)) }, Tokens(5)},
		{"Sum", func() Amount { return Sum(Tokens(1), Tokens(2), Zero) }, Tokens(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.op(); got != tt.expected {
				t.Errorf("got %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestMultiplyChecked(t *testing.T) {
	tests := []struct {
		name string
		a    Amount
		qty  int64
		want Amount
		ok   bool
	}{
		{"Simple", Tokens(1), 3, Tokens(3), true},
		{"ZeroAmount", Zero, math.MaxInt64, Zero, true},
		{"ZeroQty", Tokens(5), 0, Zero, true},
		{"NegativeQty", Tokens(2), -1, Tokens(-2), true},
		{"OverflowLargeQty", Tokens(1), math.MaxInt64, Zero, false},
		{"OverflowLargeAmount", Amount(math.MaxInt64), 2, Zero, false},
		{"MinByMinusOne", Amount(math.MinInt64), -1, Zero, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.a.MultiplyChecked(tt.qty)
			if ok != tt.ok {
				t.Fatalf("ok: got %v, want %v", ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAmountComparison(t *testing.T) {
	if !Tokens(1).LessThan(Tokens(2)) {
		t.Error("expected 1 < 2")
	}
	if !Tokens(2).GreaterThan(Tokens(1)) {
		t.Error("expected 2 > 1")
	}
	if !Zero.IsZero() {
		t.Error("expected zero")
	}
	if !Tokens(1).IsPositive() {
		t.Error("expected positive")
	}
	if !Tokens(-1).IsNegative() {
		t.Error("expected negative")
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    Amount
		wantErr bool
	}{
		{"1", Tokens(1), false},
		{"1.5", Amount(1_500_000), false},
		{"0.000001", Amount(1), false},
		{"-2.25", Amount(-2_250_000), false},
		{" 3 ", Tokens(3), false},
		{"", 0, true},
		{".", 0, true},
		{"1.0000001", 0, true},
		{"abc", 0, true},
		{"1,5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDivideByZeroPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on division by zero")
		}
	}()
	_ = Tokens(1).Divide(0)
}
