package textproc

import "strings"

// DefaultChunkWords bounds one prompt window.
const DefaultChunkWords = 400

// Chunk splits text into consecutive windows of at most maxWords
// whitespace-delimited words. Empty input yields no chunks.
func Chunk(text string, maxWords int) []string {
	if maxWords <= 0 {
		maxWords = DefaultChunkWords
	}

	words := strings.Fields(text)
	chunks := make([]string, 0, (len(words)+maxWords-1)/maxWords)
	for start := 0; start < len(words); start += maxWords {
		end := min(start+maxWords, len(words))
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}

// Prepare cleans text and chunks it.
func Prepare(text string, maxWords int) []string {
	return Chunk(Clean(text), maxWords)
}
