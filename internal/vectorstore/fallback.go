package vectorstore

import (
	"hash/fnv"
)

// FallbackDims is the dimensionality of the deterministic hash-based
// fallback embedding, used only when the LLM orchestrator is unavailable
// for the duration of a single recommendation request (spec.md §9 open
// question: "the source's fallback embedding (hash-based) is used in at
// least one path where persistence to a vector column is possible; the
// spec forbids persisting non-model embeddings").
const FallbackDims = 32

// HashEmbed derives a deterministic, fixed-dimension vector from text
// using a non-cryptographic hash mixed across FallbackDims lanes. It is
// NOT a semantic embedding — it exists only so a degraded-mode ranking
// pass has some vector to compare, and callers must never write its
// output to the component_vectors table or otherwise treat it as
// equivalent to a model-produced embedding. Engine.EmbedComponent and
// Engine.EmbedQuery substitute it (and skip the cache) when the
// embedder reports the orchestrator unreachable or timed out; the
// recommender package sees this as a reported fallback, not an error,
// and sets Result.Degraded accordingly.
func HashEmbed(text string) []float32 {
	out := make([]float32, FallbackDims)
	for lane := 0; lane < FallbackDims; lane++ {
		h := fnv.New32a()
		h.Write([]byte{byte(lane)})
		h.Write([]byte(text))
		sum := h.Sum32()
		// Map the 32-bit hash into [-1, 1] so the result behaves like a
		// component of a normalized embedding rather than a raw hash.
		out[lane] = float32(int32(sum))/float32(1<<31)
	}
	return Normalize(out)
}
