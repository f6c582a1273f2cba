package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEmpty(t *testing.T) {
	assert.Nil(t, Split("", DefaultOptions()))
}

func TestSplitShortTextIsSingleChunk(t *testing.T) {
	text := "a short invoice"
	chunks := Split(text, DefaultOptions())
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplitExactSizeIsSingleChunk(t *testing.T) {
	text := strings.Repeat("x", 1000)
	chunks := Split(text, Options{Size: 1000, Overlap: 200})
	require.Len(t, chunks, 1)
}

func TestSplitRespectsMaxSize(t *testing.T) {
	text := strings.Repeat("word ", 2000)
	chunks := Split(text, Options{Size: 500, Overlap: 100})
	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.LessOrEqualf(t, len(c), 500, "chunk %d exceeds size", i)
		assert.NotEmpty(t, c)
	}
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	para := strings.Repeat("a", 400)
	text := para + "\n\n" + para + "\n\n" + para

	chunks := Split(text, Options{Size: 500, Overlap: 0})
	require.Greater(t, len(chunks), 1)
	// The first cut lands on the paragraph break, not mid-paragraph.
	assert.True(t, strings.HasSuffix(chunks[0], "\n\n"), "expected cut at paragraph boundary")
}

func TestSplitOverlapCarriesText(t *testing.T) {
	text := strings.Repeat("0123456789", 100)
	chunks := Split(text, Options{Size: 300, Overlap: 50})
	require.Greater(t, len(chunks), 1)

	// Consecutive chunks share the overlap region.
	tail := chunks[0][len(chunks[0])-50:]
	assert.True(t, strings.HasPrefix(chunks[1], tail))
}

func TestSplitCoversWholeText(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor sit amet ", 200)
	chunks := Split(text, Options{Size: 400, Overlap: 80})

	// Every chunk is a substring and the last one reaches the end.
	for _, c := range chunks {
		assert.Contains(t, text, c)
	}
	require.NotEmpty(t, chunks)
	assert.True(t, strings.HasSuffix(text, chunks[len(chunks)-1]))
}

func TestSplitInvalidOptionsFallBack(t *testing.T) {
	text := strings.Repeat("x", 5000)
	chunks := Split(text, Options{Size: 0, Overlap: -1})
	assert.NotEmpty(t, chunks)

	// Overlap >= size degrades to no overlap rather than looping forever.
	chunks = Split(text, Options{Size: 100, Overlap: 100})
	assert.NotEmpty(t, chunks)
}
