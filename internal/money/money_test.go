package money

import "testing"

func TestRound(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{57.75000000000001, 57.75},
		{0.005, 0.01},
		{-0.005, -0.01},
		{115.499999, 115.5},
		{0, 0},
	}

	for _, tt := range tests {
		if got := Round(tt.in); got != tt.want {
			t.Errorf("Round(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatBRL(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want string
	}{
		{"zero", 0, "R$ 0,00"},
		{"small", 9.5, "R$ 9,50"},
		{"hundreds", 210.15, "R$ 210,15"},
		{"thousands", 1234.56, "R$ 1.234,56"},
		{"millions", 1234567.891, "R$ 1.234.567,89"},
		{"exact group", 100000, "R$ 100.000,00"},
		{"negative", -1500, "-R$ 1.500,00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatBRL(tt.in); got != tt.want {
				t.Errorf("FormatBRL(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
