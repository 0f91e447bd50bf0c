package extractor

import "strings"

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// wordWindow is an ordered buffer of whole words with a running rendered
// length (words joined by single spaces).
type wordWindow struct {
	words    []string
	rendered int
}

func (w *wordWindow) count() int { return len(w.words) }

// grows returns the rendered length after appending word.
func (w *wordWindow) grows(word string) int {
	n := w.rendered + len(word)
	if len(w.words) > 0 {
		n++
	}
	return n
}

func (w *wordWindow) append(word string) {
	w.rendered = w.grows(word)
	w.words = append(w.words, word)
}

func (w *wordWindow) render() string { return strings.Join(w.words, " ") }

func (w *wordWindow) reset() {
	w.words = w.words[:0]
	w.rendered = 0
}

// trimToSuffix keeps the longest suffix of whole words whose rendered length
// fits within budget, greedy from the tail.
func (w *wordWindow) trimToSuffix(budget int) {
	kept := 0
	keptLen := 0
	for i := len(w.words) - 1; i >= 0; i-- {
		add := len(w.words[i])
		if kept > 0 {
			add++
		}
		if keptLen+add > budget {
			break
		}
		keptLen += add
		kept++
	}
	w.words = append(w.words[:0], w.words[len(w.words)-kept:]...)
	w.rendered = keptLen
}

// SplitWords splits text into overlapping chunks of whitespace-delimited
// words. A word is never split; a single word longer than maxSize still lands
// in its own chunk because the size check only fires on a non-empty window.
func SplitWords(text string, maxSize, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	win := &wordWindow{}

	for _, word := range words {
		if win.count() > 0 && win.grows(word) > maxSize {
			chunks = append(chunks, win.render())
			if overlap > 0 && maxSize > 0 {
				win.trimToSuffix(overlap)
			} else {
				win.reset()
			}
		}
		win.append(word)
	}
	if win.count() > 0 {
		chunks = append(chunks, win.render())
	}

	out := chunks[:0]
	for _, c := range chunks {
		if strings.TrimSpace(c) != "" {
			out = append(out, c)
		}
	}
	return out
}
