package chunker

import (
	"strings"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// defaultSeparators is ordered coarse to fine: paragraph break, line break,
// sentence boundary, word boundary, then arbitrary character positions.
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter cuts raw extracted text into overlapping segments sized for
// embedding. A coarser separator is only abandoned for a segment that still
// exceeds the target size after splitting on it.
type Splitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultChunkOverlap
	}
	return &Splitter{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: defaultSeparators,
	}
}

// Split returns the ordered chunk contents for text. Empty or whitespace-only
// input yields no chunks; callers treat that as an ingestion error.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.split(text, s.separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	sep := ""
	var rest []string
	for i, candidate := range separators {
		if candidate == "" {
			sep = ""
			rest = nil
			break
		}
		if strings.Contains(text, candidate) {
			sep = candidate
			rest = separators[i+1:]
			break
		}
	}
	if sep == "" {
		return s.windowSplit(text)
	}

	pieces := splitKeepSeparator(text, sep)
	var chunks []string
	var fitting []string
	for _, piece := range pieces {
		if len(piece) <= s.chunkSize {
			fitting = append(fitting, piece)
			continue
		}
		chunks = append(chunks, s.merge(fitting)...)
		fitting = nil
		if len(rest) == 0 {
			chunks = append(chunks, s.windowSplit(piece)...)
		} else {
			chunks = append(chunks, s.split(piece, rest)...)
		}
	}
	chunks = append(chunks, s.merge(fitting)...)
	return chunks
}

// merge packs already-fitting pieces into chunks up to chunkSize, carrying a
// tail of up to overlap characters into the next chunk.
func (s *Splitter) merge(pieces []string) []string {
	var chunks []string
	var current []string
	total := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		doc := strings.TrimSpace(strings.Join(current, ""))
		if doc != "" {
			chunks = append(chunks, doc)
		}
	}

	for _, piece := range pieces {
		if total > 0 && total+len(piece) > s.chunkSize {
			flush()
			kept := 0
			var keep []string
			for i := len(current) - 1; i >= 0; i-- {
				if kept+len(current[i]) > s.overlap {
					break
				}
				kept += len(current[i])
				keep = append([]string{current[i]}, keep...)
			}
			current = keep
			total = kept
			for total > 0 && total+len(piece) > s.chunkSize {
				total -= len(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += len(piece)
	}
	flush()
	return chunks
}

// windowSplit is the last-resort splitter for a run of text with no usable
// separator: fixed windows of chunkSize stepping by chunkSize-overlap.
func (s *Splitter) windowSplit(text string) []string {
	runes := []rune(text)
	step := s.chunkSize - s.overlap
	if step <= 0 {
		step = s.chunkSize
	}
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + s.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// splitKeepSeparator splits text on sep, keeping sep attached to the end of
// the preceding piece so concatenating the pieces reproduces text exactly.
func splitKeepSeparator(text, sep string) []string {
	parts := strings.Split(text, sep)
	pieces := make([]string, 0, len(parts))
	for i, part := range parts {
		if i < len(parts)-1 {
			part += sep
		}
		if part == "" {
			continue
		}
		pieces = append(pieces, part)
	}
	return pieces
}
