package protocol

import "testing"

func TestEscapeLuaPlainTextUnchanged(t *testing.T) {
	got := EscapeLua("hello frame")
	if got != "hello frame" {
		t.Errorf("EscapeLua(plain) = %q, want unchanged", got)
	}
}

func TestEscapeLuaReservedCharacters(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"newline", "a\nb", `a\nb`},
		{"tab", "a\tb", `a\tb`},
		{"single quote", "a'b", `a\'b`},
		{"double quote", `a"b`, `a\"b`},
		{"backslash", `a\b`, `a\\b`},
		{"carriage return dropped", "a\r\nb", `a\nb`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeLua(tt.in); got != tt.want {
				t.Errorf("EscapeLua(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEscapeLuaSinglePass(t *testing.T) {
	// A backslash followed by n must become escaped-backslash + n, not a
	// doubly-escaped newline.
	got := EscapeLua(`\n`)
	if got != `\\n` {
		t.Errorf("EscapeLua(`\\n`) = %q, want %q", got, `\\n`)
	}
}
