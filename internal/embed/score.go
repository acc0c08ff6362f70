package embed

import (
	"math"
	"strings"
)

// Cosine returns the cosine similarity of two vectors; zero when either
// vector is empty or zero-length.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// LexicalScore is the degraded scorer used when the embedding provider is
// unreachable: token overlap between the query and the document, with a
// bonus for whole-substring matches.
func LexicalScore(query, doc string) float64 {
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return 0
	}
	docLower := strings.ToLower(doc)
	docTokens := make(map[string]struct{})
	for _, t := range tokenize(doc) {
		docTokens[t] = struct{}{}
	}

	var hits float64
	for _, t := range queryTokens {
		if _, ok := docTokens[t]; ok {
			hits++
		} else if strings.Contains(docLower, t) {
			hits += 0.5
		}
	}
	score := hits / float64(len(queryTokens))
	if strings.Contains(docLower, strings.ToLower(strings.TrimSpace(query))) {
		score += 0.5
	}
	return score
}
