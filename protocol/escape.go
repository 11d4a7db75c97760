// Package protocol implements the pure encoding layer for the Frame BLE
// protocol: Lua string escaping, escape-aware chunking, and message framing.
// Nothing in this package performs I/O.
package protocol

import "strings"

// Marker is the escape marker byte. Every escape sequence in an encoded
// payload is Marker followed by exactly one literal byte.
const Marker = '\\'

// luaEscaper encodes text for embedding in a double-quoted Lua string
// literal. Carriage returns are dropped rather than escaped, matching the
// firmware's decoder. strings.Replacer is single-pass, so the backslash
// rule cannot re-escape output of the other rules.
var luaEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"\r", "",
	"\n", "\\n",
	"\t", "\\t",
	"'", "\\'",
	"\"", "\\\"",
)

// EscapeLua encodes s so it can be placed inside a double-quoted Lua string
// literal sent to the device. The result contains only two-byte escape
// sequences (Marker plus one literal byte) for the reserved characters.
func EscapeLua(s string) string {
	return luaEscaper.Replace(s)
}
