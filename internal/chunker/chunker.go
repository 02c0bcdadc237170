// Package chunker splits extracted document text into overlapping,
// bounded-size segments along sentence and paragraph boundaries.
package chunker

import (
	"regexp"
	"strings"
)

// DefaultChunkSize is the default maximum chunk length in characters.
const DefaultChunkSize = 512

// DefaultOverlap is the default overlap budget in characters.
// The actual overlap is word-based: the last k words of the closed chunk,
// k = max(1, floor(word_count * overlap/chunk_size)).
const DefaultOverlap = 64

// Span is one emitted chunk: content plus positional metadata.
type Span struct {
	// Content is the chunk text.
	Content string

	// Index is the zero-based chunk position.
	Index int

	// CharCount is len(Content).
	CharCount int
}

// Chunker packs sentence-like units into overlapping chunks.
// Chunking is deterministic: identical input yields identical output.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the maximum chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap budget in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Keep the overlap ratio meaningful
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

var (
	excessNewlines = regexp.MustCompile(`\n{3,}`)
	excessSpaces   = regexp.MustCompile(` {2,}`)
)

// Chunk splits text into ordered spans. Empty or whitespace-only input
// yields an empty slice, not an error.
func (c *Chunker) Chunk(text string) []Span {
	text = cleanText(text)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	sentences := splitSentences(text)
	chunks := c.buildChunks(sentences)

	spans := make([]Span, len(chunks))
	for i, chunk := range chunks {
		spans[i] = Span{
			Content:   chunk,
			Index:     i,
			CharCount: len(chunk),
		}
	}
	return spans
}

// cleanText normalises whitespace: collapses runs of 3+ newlines to two,
// runs of spaces to one, strips NUL bytes, and trims.
func cleanText(text string) string {
	text = excessNewlines.ReplaceAllString(text, "\n\n")
	text = excessSpaces.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, "\x00", "")
	return strings.TrimSpace(text)
}

// splitSentences segments text into sentence-like units. Units are split on
// sentence-terminating punctuation followed by whitespace, then any unit
// still containing a blank-line paragraph break is split again.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)
		if isTerminator(r) && i+1 < len(runes) && isWhitespace(runes[i+1]) {
			sentences = append(sentences, current.String())
			current.Reset()
			// Consume the whitespace run separating sentences
			for i+1 < len(runes) && isWhitespace(runes[i+1]) {
				i++
			}
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}

	// Second pass: split units on paragraph breaks, trim, drop empties
	var result []string
	for _, s := range sentences {
		if strings.Contains(s, "\n\n") {
			for _, part := range strings.Split(s, "\n\n") {
				if p := strings.TrimSpace(part); p != "" {
					result = append(result, p)
				}
			}
		} else if t := strings.TrimSpace(s); t != "" {
			result = append(result, t)
		}
	}
	return result
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// buildChunks greedily packs sentences into chunks. When appending the next
// sentence would push a non-empty buffer past the size limit, the buffer is
// closed and the next chunk is seeded with an overlap tail: the last k words
// of the closed chunk, k = max(1, floor(words * overlap/chunkSize)).
func (c *Chunker) buildChunks(sentences []string) []string {
	var chunks []string
	var current string

	ratio := float64(c.overlap) / float64(c.chunkSize)

	for _, sentence := range sentences {
		if len(current)+len(sentence) > c.chunkSize && current != "" {
			chunks = append(chunks, strings.TrimSpace(current))

			words := strings.Fields(current)
			k := int(float64(len(words)) * ratio)
			if k < 1 {
				k = 1
			}
			tail := strings.Join(words[len(words)-k:], " ")
			current = tail + " " + sentence
		} else {
			if current == "" {
				current = sentence
			} else {
				current += " " + sentence
			}
		}
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}

	return chunks
}
