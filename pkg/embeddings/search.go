package embeddings

import (
	"context"
	"log/slog"
	"math"
	"sort"
)

// DefaultLimit is the number of search results returned when none is given
const DefaultLimit = 20

// Result is a chunk and its similarity to the query
type Result struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Vectors of different length or zero norm score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Search ranks chunks against query by descending similarity and returns at
// most limit results. Chunks without an embedding, or with one of a different
// dimension, are left out. limit <= 0 means DefaultLimit.
func Search(query []float32, chunks []Chunk, limit int) []Result {
	if limit <= 0 {
		limit = DefaultLimit
	}

	results := make([]Result, 0, len(chunks))
	for _, c := range chunks {
		if !c.HasEmbedding() || len(c.Embedding) != len(query) {
			continue
		}
		results = append(results, Result{Chunk: c, Score: CosineSimilarity(query, c.Embedding)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// BatchResult counts the outcome of GenerateBatch
type BatchResult struct {
	Embedded int
	Failed   int
}

// GenerateBatch embeds every chunk's text one at a time. A chunk whose
// embedding fails is left with a nil embedding and the batch continues.
// The error is non-nil only when ctx is cancelled.
func GenerateBatch(ctx context.Context, e Embedder, chunks []Chunk) (BatchResult, error) {
	logger := slog.Default().With("component", "embeddings")
	var result BatchResult

	for i := range chunks {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		vectors, err := e.EmbedDocuments(ctx, []string{chunks[i].Text})
		if err == nil && len(vectors) == 0 {
			err = errEmptyEmbedding
		}
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			logger.Warn("failed to embed chunk", "index", i, "id", string(chunks[i].ID), "error", err)
			chunks[i].Embedding = nil
			result.Failed++
			continue
		}

		chunks[i].Embedding = vectors[0]
		result.Embedded++
	}
	return result, nil
}
