// Package chunk splits long documents into overlapping pieces for per-chunk
// extraction.
package chunk

import "strings"

// Options controls the splitter. Size and Overlap are in characters.
type Options struct {
	Size    int
	Overlap int
}

// DefaultOptions match the pipeline defaults.
func DefaultOptions() Options {
	return Options{Size: 1000, Overlap: 200}
}

// separators in preference order: paragraph break, line break, word break,
// then hard character cut.
var separators = []string{"\n\n", "\n", " ", ""}

// Split cuts text into chunks of at most opts.Size characters with
// opts.Overlap characters carried between consecutive chunks. It prefers to
// cut on paragraph boundaries, then lines, then words. Text at or under the
// size comes back as a single chunk.
func Split(text string, opts Options) []string {
	if opts.Size <= 0 {
		opts = DefaultOptions()
	}
	if opts.Overlap < 0 || opts.Overlap >= opts.Size {
		opts.Overlap = 0
	}
	if len(text) == 0 {
		return nil
	}
	if len(text) <= opts.Size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + opts.Size
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}

		cut := findCut(text, start, end)
		chunks = append(chunks, text[start:cut])

		next := cut - opts.Overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}

// findCut picks the best split point in (start, end], scanning backwards for
// the highest-preference separator that still leaves a reasonably sized
// chunk. Falls back to a hard cut at end.
func findCut(text string, start, end int) int {
	// Keep chunks at least half full to avoid degenerate tiny pieces.
	minCut := start + (end-start)/2
	for _, sep := range separators {
		if sep == "" {
			break
		}
		idx := strings.LastIndex(text[minCut:end], sep)
		if idx >= 0 {
			return minCut + idx + len(sep)
		}
	}
	return end
}
