package service

import (
	"strings"
	"unicode/utf8"

	"github.com/cloo-solutions/docchat/internal/domain"
)

const (
	DefaultChunkSize    = 2000
	DefaultChunkOverlap = 200
)

// DefaultSeparators splits on paragraphs, then lines, then words, then
// single characters.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// ChunkConfig controls how document text is cut into chunks. Size and
// Overlap are measured in characters (runes).
type ChunkConfig struct {
	Size       int
	Overlap    int
	Separators []string
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Size:       DefaultChunkSize,
		Overlap:    DefaultChunkOverlap,
		Separators: DefaultSeparators,
	}
}

// Chunker splits text recursively, falling through to a finer separator only
// for pieces that still exceed the chunk size, and merges small pieces back
// into overlapping windows.
type Chunker struct {
	cfg ChunkConfig
}

func NewChunker(cfg ChunkConfig) (*Chunker, error) {
	if cfg.Size <= 0 || cfg.Overlap < 0 || cfg.Overlap >= cfg.Size {
		return nil, domain.ErrInvalidChunkConfig
	}
	if len(cfg.Separators) == 0 {
		cfg.Separators = DefaultSeparators
	}
	return &Chunker{cfg: cfg}, nil
}

// Config returns the chunker's effective configuration.
func (c *Chunker) Config() ChunkConfig {
	return c.cfg
}

// Split chunks a single text. Empty text yields no chunks.
func (c *Chunker) Split(text, source string) []domain.Chunk {
	return c.SplitSections(source, []domain.Section{{Text: text}})
}

// SplitSections chunks each section in order. Positions run from 0 across
// the whole document and every chunk keeps its section's page.
func (c *Chunker) SplitSections(source string, sections []domain.Section) []domain.Chunk {
	var chunks []domain.Chunk
	for _, section := range sections {
		for _, piece := range c.splitText(section.Text, c.cfg.Separators) {
			chunks = append(chunks, domain.NewChunk(source, len(chunks), piece, section.Page))
		}
	}
	return chunks
}

func (c *Chunker) splitText(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var finer []string
	for i, s := range separators {
		if s == "" {
			separator = s
			break
		}
		if strings.Contains(text, s) {
			separator = s
			finer = separators[i+1:]
			break
		}
	}

	var out, small []string
	for _, piece := range splitNonEmpty(text, separator) {
		if runeLen(piece) < c.cfg.Size {
			small = append(small, piece)
			continue
		}

		if len(small) > 0 {
			out = append(out, c.merge(small, separator)...)
			small = nil
		}

		if len(finer) == 0 {
			// nothing finer to split on: emit oversized as-is
			if trimmed := strings.TrimSpace(piece); trimmed != "" {
				out = append(out, trimmed)
			}
			continue
		}
		out = append(out, c.splitText(piece, finer)...)
	}

	if len(small) > 0 {
		out = append(out, c.merge(small, separator)...)
	}
	return out
}

// merge packs pieces into windows of at most Size characters. When a window
// is emitted, pieces are dropped from its head until no more than Overlap
// characters remain; those start the next window.
func (c *Chunker) merge(pieces []string, separator string) []string {
	sepLen := runeLen(separator)
	joinCost := func(n int) int {
		if n > 0 {
			return sepLen
		}
		return 0
	}

	var docs, window []string
	total := 0
	for _, piece := range pieces {
		n := runeLen(piece)
		if total+n+joinCost(len(window)) > c.cfg.Size && len(window) > 0 {
			if doc := strings.TrimSpace(strings.Join(window, separator)); doc != "" {
				docs = append(docs, doc)
			}
			for total > c.cfg.Overlap || (total > 0 && total+n+joinCost(len(window)) > c.cfg.Size) {
				total -= runeLen(window[0]) + joinCost(len(window)-1)
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += n + joinCost(len(window)-1)
	}

	if doc := strings.TrimSpace(strings.Join(window, separator)); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

func splitNonEmpty(text, separator string) []string {
	parts := strings.Split(text, separator)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
