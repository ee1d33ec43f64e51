package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"0", 0, true},
		{"0,00", 0, true},
		{"1.005", 101, true}, // half-up rounding
		{"1.004", 100, true},
		{" 2.50 ", 250, true},
		{"1234.50", 123450, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestBRL(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "R$ 0,00"},
		{5, "R$ 0,05"},
		{100, "R$ 1,00"},
		{123450, "R$ 1.234,50"},
		{100000000, "R$ 1.000.000,00"},
		{-5000, "R$ -50,00"},
		{-123450, "R$ -1.234,50"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).BRL(); got != tc.want {
			t.Fatalf("%d cents: expected %q, got %q", tc.cents, tc.want, got)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := Money{Cents: 100000}
	b := Money{Cents: 25000}
	if got := a.Sub(b); got.Cents != 75000 {
		t.Fatalf("sub: expected 75000, got %d", got.Cents)
	}
	if got := b.Sub(a); got.Cents != -75000 {
		t.Fatalf("overspend sub: expected -75000, got %d", got.Cents)
	}
	if got := a.Add(b); got.Cents != 125000 {
		t.Fatalf("add: expected 125000, got %d", got.Cents)
	}
	if (Money{Cents: 0}).IsPositive() {
		t.Fatal("zero must not be positive")
	}
}
