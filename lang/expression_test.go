package lang

import "testing"

func TestIsExpression(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", false},
		{"   ", false},
		{"\t\n", false},
		{"${}", true},
		{"#{}", true},
		{"   ${}", true},
		{" \n${}", true},
		{"{}", false},
		{"  {}", false},
		{"$", true},
		{"#lazy", true},
		{"text ${x}", false},
		{"@{x}", false},
		{"\u2003${x}", true},
		{"\u2028#{x}", true},
		{"\u001F${x}", true},
		{"\u00A0${x}", false},
		{"\u202F${x}", false},
		{"\u0085${x}", false},
	}

	for _, tt := range tests {
		if got := IsExpression(tt.input); got != tt.want {
			t.Errorf("IsExpression(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
