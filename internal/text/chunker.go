// Package text splits fetched documents into bounded pieces for summarization.
package text

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

var ErrInvalidChunkSize = errors.New("chunk size must be positive")

type Chunk struct {
	Index   int
	Content string
}

// Split cuts s into contiguous chunks of exactly size characters, the last
// one possibly shorter. Sizes count runes, so multi-byte characters are never
// split. Joining the chunks in order yields s.
func Split(s string, size int) ([]Chunk, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChunkSize, size)
	}
	if s == "" {
		return nil, nil
	}

	chunks := make([]Chunk, 0, Count(s, size))
	start, runes := 0, 0
	for i := range s {
		if runes == size {
			chunks = append(chunks, Chunk{Index: len(chunks), Content: s[start:i]})
			start, runes = i, 0
		}
		runes++
	}
	chunks = append(chunks, Chunk{Index: len(chunks), Content: s[start:]})

	return chunks, nil
}

// Count reports how many chunks Split produces for s, ceil(runes/size).
func Count(s string, size int) int {
	if size <= 0 {
		return 0
	}
	n := utf8.RuneCountInString(s)
	return (n + size - 1) / size
}
