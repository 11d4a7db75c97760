package protocol

import (
	"fmt"
	"iter"
)

// Chunks splits an escaped payload into chunks of at most maxChunkSize
// bytes. Concatenating the chunks reproduces payload exactly, and no chunk
// boundary falls between the two bytes of a Marker+literal escape sequence:
// a boundary that would split a pair is backed off to just before the
// Marker, even when that yields a shorter chunk.
//
// A pair that starts at the beginning of a chunk when maxChunkSize is 1 is
// emitted whole as a two-byte oversized chunk rather than split.
//
// The returned sequence is lazy and can be iterated more than once.
func Chunks(payload string, maxChunkSize int) (iter.Seq[string], error) {
	if maxChunkSize <= 0 {
		return nil, fmt.Errorf("protocol: chunk size must be positive, got %d", maxChunkSize)
	}
	return func(yield func(string) bool) {
		for start := 0; start < len(payload); {
			limit := start + maxChunkSize
			if limit >= len(payload) {
				yield(payload[start:])
				return
			}
			cut := limit
			// Walk the candidate chunk pair-by-pair. A Marker with a
			// following byte starts a sequence; a Marker as the very last
			// byte of the payload is a plain byte.
			for i := start; i < limit; {
				if payload[i] != Marker || i+1 >= len(payload) {
					i++
					continue
				}
				if i+1 >= limit {
					// The pair straddles the boundary.
					if i == start {
						cut = i + 2 // oversized chunk, keep the pair whole
					} else {
						cut = i // back off to before the marker
					}
					break
				}
				i += 2
			}
			if !yield(payload[start:cut]) {
				return
			}
			start = cut
		}
	}, nil
}
