package embed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const defaultLocalDim = 256

// localEmbedder is a deterministic in-process provider using hashed token
// features. It needs no network or model artifacts, which makes it the
// offline and test-time embedding path. Identical input always yields an
// identical vector.
type localEmbedder struct {
	dim int
}

func newLocal(dim int) *localEmbedder {
	if dim <= 0 {
		dim = defaultLocalDim
	}
	return &localEmbedder{dim: dim}
}

func (e *localEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return e.vectorize(text), nil
}

func (e *localEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, t := range texts {
		vecs[i] = e.vectorize(t)
	}
	return vecs, nil
}

func (e *localEmbedder) Dim() int { return e.dim }

func (e *localEmbedder) Close() error { return nil }

// vectorize hashes unigram and bigram token features into a fixed-length
// vector and L2-normalizes it so cosine similarity behaves sensibly.
func (e *localEmbedder) vectorize(text string) []float32 {
	tokens := tokenize(text)
	vec := make([]float32, e.dim)

	for i, tok := range tokens {
		addFeature(vec, tok)
		if i+1 < len(tokens) {
			addFeature(vec, tok+"\x00"+tokens[i+1])
		}
	}

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum > 0 {
		inv := float32(1 / math.Sqrt(sum))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}

func addFeature(vec []float32, feature string) {
	h := fnv.New64a()
	h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(len(vec)))
	// Low bit decides sign so hash collisions tend to cancel instead of pile up.
	if sum&(1<<63) == 0 {
		vec[idx]++
	} else {
		vec[idx]--
	}
}

// tokenize lowercases, NFKC-folds, and splits on non-alphanumerics.
func tokenize(text string) []string {
	folded := strings.ToLower(norm.NFKC.String(text))
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
