package normalize

import "testing"

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"lider@videira.app", "lider@videira.app"},
		{"LIDER@VIDEIRA.APP", "lider@videira.app"},
		{"  Pastor@Videira.App  ", "pastor@videira.app"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Email(tt.input); got != tt.want {
				t.Errorf("Email(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"João Silva", "João Silva"},
		{"  João Silva  ", "João Silva"},
		{"", ""},
		{"   ", ""},
		{"MARIA DAS DORES", "MARIA DAS DORES"}, // Name preserves case
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Name(tt.input); got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"+55 (81) 99999-0000", "+5581999990000"},
		{"81 99999 0000", "81999990000"},
		{"", ""},
		{"abc", ""},
		{"9 9 9+", "999"}, // "+" only kept in the leading position
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Phone(tt.input); got != tt.want {
				t.Errorf("Phone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
