package service

import (
	"strings"

	"github.com/cloo-solutions/docchat/internal/domain"
)

const contextBlockSeparator = "\n\n"

// BuildContext renders hits as "Document: <source>" blocks in rank order.
func BuildContext(hits []domain.RetrievedHit) string {
	blocks := make([]string, 0, len(hits))
	for _, h := range hits {
		blocks = append(blocks, contextBlock(h))
	}
	return strings.Join(blocks, contextBlockSeparator)
}

func contextBlock(h domain.RetrievedHit) string {
	return "Document: " + h.Source + "\n" + h.Content
}

// DedupeSources keeps the first hit per source document, in rank order.
func DedupeSources(hits []domain.RetrievedHit) []domain.Source {
	seen := make(map[string]struct{}, len(hits))
	sources := make([]domain.Source, 0, len(hits))
	for _, h := range hits {
		if _, ok := seen[h.Source]; ok {
			continue
		}
		seen[h.Source] = struct{}{}
		sources = append(sources, domain.Source{Document: h.Source, Content: h.Content})
	}
	return sources
}

// LimitHits drops whole hits from the tail until the rendered context fits in
// maxChars. The best hit is always kept. maxChars <= 0 disables the budget.
func LimitHits(hits []domain.RetrievedHit, maxChars int) []domain.RetrievedHit {
	if maxChars <= 0 || len(hits) == 0 {
		return hits
	}

	total := 0
	for i, h := range hits {
		n := runeLen(contextBlock(h))
		if i > 0 {
			n += len(contextBlockSeparator)
		}
		if i > 0 && total+n > maxChars {
			return hits[:i]
		}
		total += n
	}
	return hits
}
