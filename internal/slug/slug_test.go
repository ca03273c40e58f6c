package slug

import "testing"

func TestMake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Sala de Estar", "sala-de-estar"},
		{"Iluminação", "iluminacao"},
		{"  Área Gourmet & Piscina!! ", "area-gourmet-piscina"},
		{"Quarto 2", "quarto-2"},
		{"ÇÃÉÍÕÜ", "caeiou"},
		{"---", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Make(tt.in); got != tt.want {
				t.Fatalf("Make(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
