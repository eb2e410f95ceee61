package segment

import "strings"

// windowSeparators are tried in priority order so that window splits land on
// natural boundaries: paragraph, line, word, then single characters.
var windowSeparators = []string{"\n\n", "\n", " ", ""}

// Window splits text into chunks of at most size characters with the given
// overlap carried between consecutive chunks. It is the fallback for the
// structural segmenter and the sole splitter for the plain chunking path.
func Window(text string, size, overlap int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if size <= 0 {
		size = 4000
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return splitRecursive(text, size, overlap, windowSeparators)
}

func splitRecursive(text string, size, overlap int, separators []string) []string {
	if len(text) <= size {
		return []string{text}
	}

	sep := separators[len(separators)-1]
	rest := separators
	for i, s := range separators {
		if s == "" || strings.Contains(text, s) {
			sep, rest = s, separators[i+1:]
			break
		}
	}

	var pieces []string
	if sep == "" {
		for i := 0; i < len(text); i += size {
			end := min(i+size, len(text))
			pieces = append(pieces, text[i:end])
		}
	} else {
		for _, p := range strings.Split(text, sep) {
			if p == "" {
				continue
			}
			if len(p) > size && len(rest) > 0 {
				pieces = append(pieces, splitRecursive(p, size, overlap, rest)...)
			} else {
				pieces = append(pieces, p)
			}
		}
	}

	return mergePieces(pieces, sep, size, overlap)
}

// mergePieces packs pieces back into chunks of at most size characters,
// rejoining with the separator they were split on and carrying overlap
// characters of trailing context into the next chunk.
func mergePieces(pieces []string, sep string, size, overlap int) []string {
	var chunks []string
	var window []string
	total := 0

	joinedLen := func(n, pieceLen int) int {
		if n == 0 {
			return pieceLen
		}
		return total + len(sep) + pieceLen
	}

	flush := func() {
		if len(window) == 0 {
			return
		}
		chunk := strings.Join(window, sep)
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
	}

	for _, p := range pieces {
		if joinedLen(len(window), len(p)) > size && len(window) > 0 {
			flush()
			// Retain trailing pieces up to the overlap budget.
			for len(window) > 0 && total > overlap {
				total -= len(window[0])
				if len(window) > 1 {
					total -= len(sep)
				}
				window = window[1:]
			}
			if overlap == 0 {
				window, total = nil, 0
			}
		}
		if len(window) > 0 {
			total += len(sep)
		}
		window = append(window, p)
		total += len(p)
	}
	flush()

	return chunks
}
