package retriever

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docchat/internal/ai"
	"github.com/xxxsen/docchat/internal/index"
	"github.com/xxxsen/docchat/internal/model"
)

var wordPattern = regexp.MustCompile(`\w+`)

// Retriever combines semantic similarity search against the vector index
// with exact/partial keyword matching over chunk content. Keyword hits rank
// first in the merged result: verbatim IDs, dates and names are a higher
// precision signal for structured documents than embedding distance.
type Retriever struct {
	store        index.Store
	embedder     ai.IEmbedder
	semanticTopK int
	keywordTopK  int
	mergeLimit   int
}

func New(store index.Store, embedder ai.IEmbedder, semanticTopK, keywordTopK, mergeLimit int) *Retriever {
	if semanticTopK <= 0 {
		semanticTopK = 10
	}
	if keywordTopK <= 0 {
		keywordTopK = 5
	}
	if mergeLimit <= 0 {
		mergeLimit = 5
	}
	return &Retriever{
		store:        store,
		embedder:     embedder,
		semanticTopK: semanticTopK,
		keywordTopK:  keywordTopK,
		mergeLimit:   mergeLimit,
	}
}

// Retrieve returns up to mergeLimit chunks relevant to question, optionally
// restricted to one document. Search failures are logged and degrade to
// whatever partial results exist; an empty index yields an empty result,
// which callers treat as "no documents", not an error.
func (r *Retriever) Retrieve(ctx context.Context, question string, documentID string) []model.Chunk {
	logger := logutil.GetLogger(ctx)

	total, err := r.store.Len(ctx)
	if err != nil {
		logger.Error("index size lookup failed", zap.Error(err))
		return nil
	}
	if total == 0 {
		logger.Info("no documents in vector index")
		return nil
	}

	candidates, err := r.store.Chunks(ctx, documentID)
	if err != nil {
		logger.Error("candidate lookup failed", zap.Error(err))
		candidates = nil
	}

	semantic := r.semanticSearch(ctx, question, documentID)
	keyword := keywordSearch(question, candidates, r.keywordTopK)

	merged := make([]model.Chunk, 0, r.mergeLimit)
	type dedupeKey struct {
		content    string
		documentID string
	}
	seen := make(map[dedupeKey]struct{})
	for _, chunk := range append(keyword, semantic...) {
		key := dedupeKey{content: chunk.Content, documentID: chunk.DocumentID}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, chunk)
		if len(merged) == r.mergeLimit {
			break
		}
	}
	if len(merged) > 0 {
		logger.Debug("retrieval top match",
			zap.String("filename", merged[0].Filename),
			zap.Int("results", len(merged)),
		)
	}
	return merged
}

// semanticSearch queries the index globally and drops results outside the
// document filter afterwards, so a relevant chunk is never excluded from
// the nearest-neighbour set by the filter itself.
func (r *Retriever) semanticSearch(ctx context.Context, question string, documentID string) []model.Chunk {
	logger := logutil.GetLogger(ctx)
	vector, err := r.embedder.Embed(ctx, question, "RETRIEVAL_QUERY")
	if err != nil {
		logger.Error("question embedding failed", zap.Error(err))
		return nil
	}
	results, err := r.store.Search(ctx, vector, r.semanticTopK)
	if err != nil {
		logger.Error("semantic search failed", zap.Error(err))
		return nil
	}
	if documentID == "" {
		return results
	}
	filtered := results[:0]
	for _, chunk := range results {
		if chunk.DocumentID == documentID {
			filtered = append(filtered, chunk)
		}
	}
	return filtered
}

// keywordSearch scores each candidate by how many distinct question tokens
// occur as substrings of its lower-cased content. Ties keep their original
// relative order.
func keywordSearch(question string, candidates []model.Chunk, topK int) []model.Chunk {
	tokens := wordPattern.FindAllString(strings.ToLower(question), -1)
	distinct := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		distinct = append(distinct, token)
	}
	if len(distinct) == 0 {
		return nil
	}

	type scored struct {
		chunk model.Chunk
		score int
	}
	matches := make([]scored, 0, len(candidates))
	for _, chunk := range candidates {
		content := strings.ToLower(chunk.Content)
		score := 0
		for _, token := range distinct {
			if strings.Contains(content, token) {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{chunk: chunk, score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if topK > len(matches) {
		topK = len(matches)
	}
	out := make([]model.Chunk, 0, topK)
	for i := 0; i < topK; i++ {
		out = append(out, matches[i].chunk)
	}
	return out
}
