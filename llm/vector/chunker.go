package vector

import (
	"fmt"
	"os"
	"strings"
	"unicode"
)

// avgWordLen approximates one word plus the following space. The chunk
// overlap is seeded by word count, not by exact characters: the tail
// floor(ChunkOverlap/avgWordLen) words of a flushed chunk open the next one.
const avgWordLen = 6

// ChunkConfig configures how documents are split into chunks
type ChunkConfig struct {
	ChunkSize    int // Maximum chunk size in characters
	ChunkOverlap int // Approximate overlap between chunks in characters
}

// DefaultChunkConfig returns the default chunk configuration
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		ChunkSize:    getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),
	}
}

// getEnvInt reads an integer from environment variable
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return defaultVal
}

// ChunkText splits text into overlapping, bounded-size chunks. Sentences are
// never split mid-way: a single sentence longer than ChunkSize becomes its
// own chunk. The returned slice contains no empty chunks.
func ChunkText(text string, config ChunkConfig) []string {
	if config.ChunkSize <= 0 {
		config.ChunkSize = 1000
	}
	if config.ChunkOverlap < 0 {
		config.ChunkOverlap = 0
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	sentences := splitIntoSentences(text)

	var chunks []string
	var current strings.Builder

	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		// Flush the buffer when the next sentence would push it past the
		// size bound, then seed the next buffer with the tail words of the
		// chunk just flushed.
		if current.Len() > 0 && current.Len()+len(sentence)+1 > config.ChunkSize {
			chunk := strings.TrimSpace(current.String())
			if chunk != "" {
				chunks = append(chunks, chunk)
			}
			current.Reset()

			if config.ChunkOverlap > 0 {
				overlap := tailWords(chunk, config.ChunkOverlap/avgWordLen)
				if overlap != "" {
					current.WriteString(overlap)
					current.WriteString(" ")
				}
			}
		}

		current.WriteString(sentence)
		current.WriteString(" ")
	}

	// Flush the final partial buffer
	if current.Len() > 0 {
		chunk := strings.TrimSpace(current.String())
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	return chunks
}

// splitIntoSentences splits text into sentence-like units
func splitIntoSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		current.WriteRune(runes[i])

		// Check for sentence endings
		if isSentenceEnd(runes[i]) {
			// Only break when the ending is followed by whitespace, a quote,
			// a closing bracket, or the end of the text
			next := runeAt(runes, i+1)
			if next == 0 || unicode.IsSpace(next) || next == '"' || next == '\'' || next == ')' || next == ']' {
				sentence := strings.TrimSpace(current.String())
				if sentence != "" {
					sentences = append(sentences, sentence)
				}
				current.Reset()
			}
		}
	}

	// Add remaining text
	if current.Len() > 0 {
		sentence := strings.TrimSpace(current.String())
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
	}

	return sentences
}

// isSentenceEnd checks if a rune is a sentence ending punctuation
func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '。' || r == '！' || r == '？'
}

// runeAt safely returns a rune at index or 0 if out of bounds
func runeAt(runes []rune, i int) rune {
	if i < 0 || i >= len(runes) {
		return 0
	}
	return runes[i]
}

// tailWords returns the last n whitespace-separated words of text.
func tailWords(text string, n int) string {
	if n <= 0 {
		return ""
	}
	words := strings.Fields(text)
	if len(words) <= n {
		return text
	}
	return strings.Join(words[len(words)-n:], " ")
}
