package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/cloo-solutions/docchat/internal/domain"
)

const (
	defaultCandidateMultiplier = 4
	defaultMinCandidates       = 20
	defaultMaxCandidates       = 200

	rrfK           = 60
	semanticWeight = 1.0
	lexicalWeight  = 0.85
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "of": {}, "to": {}, "for": {}, "with": {}, "by": {},
	"in": {}, "on": {}, "at": {}, "from": {}, "as": {}, "is": {}, "are": {}, "was": {}, "were": {}, "be": {},
	"been": {}, "it": {}, "this": {}, "that": {}, "these": {}, "those": {}, "we": {}, "our": {}, "you": {},
	"your": {}, "i": {}, "me": {}, "my": {}, "us": {}, "them": {}, "they": {}, "their": {}, "do": {},
	"does": {}, "did": {}, "what": {}, "how": {}, "why": {}, "when": {}, "where": {}, "which": {}, "can": {},
	"could": {}, "should": {}, "would": {}, "may": {}, "might": {}, "will": {}, "shall": {},
}

// SearchIndex is the read side of the chunk index.
type SearchIndex interface {
	SearchSemantic(ctx context.Context, embedding []float32, limit int) ([]domain.RetrievedHit, error)
	SearchLexical(ctx context.Context, query string, limit int) ([]domain.RetrievedHit, error)
}

// HybridStrategy fuses semantic and lexical candidates with weighted
// reciprocal rank fusion.
type HybridStrategy struct {
	index SearchIndex
}

func NewHybridStrategy(index SearchIndex) *HybridStrategy {
	return &HybridStrategy{index: index}
}

func (s *HybridStrategy) Name() string { return StrategyHybrid }

func (s *HybridStrategy) Search(ctx context.Context, query string, embedding []float32, topK int) ([]domain.RetrievedHit, error) {
	limit := candidateLimit(topK)

	semantic, err := s.index.SearchSemantic(ctx, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("semantic search failed: %w", err)
	}

	var lexical []domain.RetrievedHit
	if keywords := keywordQuery(query); keywords != "" {
		lexical, err = s.index.SearchLexical(ctx, keywords, limit)
		if err != nil {
			return nil, fmt.Errorf("lexical search failed: %w", err)
		}
	}

	return rankHits(fuseHybrid(semantic, lexical), topK), nil
}

// VectorStrategy ranks by embedding similarity alone.
type VectorStrategy struct {
	index SearchIndex
}

func NewVectorStrategy(index SearchIndex) *VectorStrategy {
	return &VectorStrategy{index: index}
}

func (s *VectorStrategy) Name() string { return StrategyVector }

func (s *VectorStrategy) Search(ctx context.Context, _ string, embedding []float32, topK int) ([]domain.RetrievedHit, error) {
	hits, err := s.index.SearchSemantic(ctx, embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	return rankHits(hits, topK), nil
}

func candidateLimit(topK int) int {
	limit := topK * defaultCandidateMultiplier
	if limit < defaultMinCandidates {
		limit = defaultMinCandidates
	}
	if limit > defaultMaxCandidates {
		limit = defaultMaxCandidates
	}
	return limit
}

type fusionCandidate struct {
	hit      domain.RetrievedHit
	rrfScore float64
}

func fuseHybrid(semantic, lexical []domain.RetrievedHit) []domain.RetrievedHit {
	candidates := make(map[string]*fusionCandidate)
	addList := func(list []domain.RetrievedHit, weight float64) {
		for i, h := range list {
			cand, ok := candidates[h.ChunkID]
			if !ok {
				cand = &fusionCandidate{hit: h}
				candidates[h.ChunkID] = cand
			}
			cand.rrfScore += weight / float64(rrfK+i+1)
		}
	}

	addList(semantic, semanticWeight)
	addList(lexical, lexicalWeight)

	out := make([]domain.RetrievedHit, 0, len(candidates))
	for _, cand := range candidates {
		cand.hit.Score = cand.rrfScore
		out = append(out, cand.hit)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Position < out[j].Position
	})
	return out
}

// rankHits truncates to topK and numbers hits from 1.
func rankHits(hits []domain.RetrievedHit, topK int) []domain.RetrievedHit {
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	for i := range hits {
		hits[i].Rank = i + 1
	}
	return hits
}

func keywordQuery(query string) string {
	var tokens []string
	for _, token := range strings.FieldsFunc(query, func(r rune) bool {
		return unicode.IsSpace(r)
	}) {
		clean := strings.ToLower(strings.Trim(token, "?!.,;:\"'()"))
		if clean == "" {
			continue
		}
		if _, ok := stopwords[clean]; ok {
			continue
		}
		tokens = append(tokens, token)
	}
	return strings.Join(tokens, " ")
}
