package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/andreasalomone/bot-perito-sub000/internal/domain"
	"github.com/andreasalomone/bot-perito-sub000/internal/port"
)

const snippetLen = 2000

// Retriever ranks stored reference reports by cosine similarity to a query
// text. Query embeddings are cached; repeated corpora hit the embedding API
// only once.
type Retriever struct {
	embedder port.EmbeddingClient
	repo     port.ReferenceRepository
	topK     int
	cache    *lru.Cache[string, []float64]
}

// NewRetriever creates a retriever. Either dependency being nil disables it.
func NewRetriever(embedder port.EmbeddingClient, repo port.ReferenceRepository, topK, cacheSize int) (*Retriever, error) {
	if embedder == nil || repo == nil {
		return nil, nil
	}
	if topK <= 0 {
		topK = 3
	}
	if cacheSize <= 0 {
		cacheSize = 128
	}
	cache, err := lru.New[string, []float64](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating embedding cache: %w", err)
	}
	return &Retriever{embedder: embedder, repo: repo, topK: topK, cache: cache}, nil
}

// Retrieve returns the topK most similar reference reports. Reports with an
// unreadable stored embedding are skipped.
func (r *Retriever) Retrieve(ctx context.Context, text string) ([]domain.ReferenceCase, error) {
	query, err := r.embed(ctx, text)
	if err != nil {
		return nil, err
	}

	reports, err := r.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var cases []domain.ReferenceCase
	for _, report := range reports {
		var emb []float64
		if err := json.Unmarshal(report.Embedding, &emb); err != nil {
			continue
		}
		score := cosine(query, emb)
		if score == 0 {
			continue
		}
		cases = append(cases, domain.ReferenceCase{
			Title: report.Title,
			Body:  snippet(report.Body),
			Score: score,
		})
	}

	sort.Slice(cases, func(i, j int) bool { return cases[i].Score > cases[j].Score })
	if len(cases) > r.topK {
		cases = cases[:r.topK]
	}
	return cases, nil
}

func (r *Retriever) embed(ctx context.Context, text string) ([]float64, error) {
	if cached, ok := r.cache.Get(text); ok {
		return cached, nil
	}
	emb, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	r.cache.Add(text, emb)
	return emb, nil
}

func snippet(s string) string {
	if len(s) <= snippetLen {
		return s
	}
	cut := snippetLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// cosine returns the cosine similarity of two vectors, or 0 when the
// dimensions differ or either vector is all zeros.
func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
