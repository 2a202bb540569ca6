package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Chunk is a contiguous, bounded slice of a document's extracted text.
type Chunk struct {
	ID       string
	Source   string
	Position int
	Content  string
	Page     int
	Metadata map[string]string
}

// IndexEntry is a chunk paired with its embedding, ready for the index.
type IndexEntry struct {
	Chunk
	Embedding []float32
}

// RetrievedHit is a chunk returned by a search, best-first.
type RetrievedHit struct {
	ChunkID  string
	Source   string
	Position int
	Page     int
	Content  string
	Score    float64
	Rank     int
}

// ChunkID derives a stable identifier from the chunk's source, position and
// content, so processing the same document twice yields the same IDs.
func ChunkID(source string, position int, content string) string {
	h := sha256.New()
	h.Write([]byte(source))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(position)))
	h.Write([]byte{0})
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// NewChunk builds a chunk and assigns its deterministic ID.
func NewChunk(source string, position int, content string, page int) Chunk {
	return Chunk{
		ID:       ChunkID(source, position, content),
		Source:   source,
		Position: position,
		Content:  content,
		Page:     page,
	}
}
