package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Dana Levi", "Dana Levi"},
		{"leading and trailing", "  Dana Levi  ", "Dana Levi"},
		{"interior runs", "Dana   \t Levi", "Dana Levi"},
		{"only whitespace", "   \t\n ", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeMobile(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"+972 54-123-4567", "+972541234567"},
		{"+972541234567", "+972541234567"},
		{"  +1 202 555 0175 ", "+12025550175"},
	}

	for _, tt := range tests {
		if got := NormalizeMobile(tt.input); got != tt.want {
			t.Errorf("NormalizeMobile(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeNotes_KeepsNewlines(t *testing.T) {
	got := NormalizeNotes("  first line\nsecond line\t(tabbed)  ")
	want := "first line\nsecond line\t(tabbed)"
	if got != want {
		t.Errorf("NormalizeNotes = %q, want %q", got, want)
	}
}
