// Package chunk splits long text into overlapping, boundary-aware segments
// for embedding. Segments are character windows; a window that would cut a
// word in half is retracted to the last space when that space falls past the
// window's midpoint.
package chunk

// Default chunking parameters.
const (
	// DefaultSize is the maximum characters per chunk.
	DefaultSize = 4000

	// DefaultOverlap is how many characters consecutive chunks share.
	DefaultOverlap = 200
)

// Split cuts text into overlapping chunks of at most size characters.
// Empty text yields nil. Text that fits in one chunk is returned unchanged.
// Overlap must be strictly less than size or the window would never advance;
// invalid parameters fall back to the defaults.
func Split(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultOverlap
		if overlap >= size {
			overlap = size / 20
		}
	}

	if text == "" {
		return nil
	}
	if len(text) <= size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		// end is intentionally not clamped: the next window starts at
		// end-overlap, so a short tail advances start past len(text) and
		// the loop terminates instead of re-emitting the tail.
		end := start + size
		sliceEnd := min(end, len(text))
		window := text[start:sliceEnd]

		if end < len(text) {
			// Retract to the last space when it lies past the midpoint,
			// keeping the break on a word boundary.
			if last := lastSpace(window); last > size/2 {
				end = start + last + 1
				window = text[start:end]
			}
		}

		chunks = append(chunks, window)
		start = end - overlap
	}

	return chunks
}

// SplitDefault chunks text with the default size and overlap.
func SplitDefault(text string) []string {
	return Split(text, DefaultSize, DefaultOverlap)
}

// lastSpace returns the index of the last ASCII space in s, or -1.
func lastSpace(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ' ' {
			return i
		}
	}
	return -1
}
