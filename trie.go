package katzlm

import "fmt"

// TrieVariant selects one of the seven concrete storage layouts from
// §4.3. All implement the Trie interface with identical query
// semantics but different space/time trade-offs; the variant is
// chosen once, at load time, and never switched mid-process (§9:
// "model variants as a sum type enumerated at load-time with a
// dispatch in the query engine").
type TrieVariant int

const (
	C2DMap TrieVariant = iota
	C2DHybrid
	C2WArray
	W2CHybrid
	W2CArray
	G2DMap
	H2DMap
)

func (v TrieVariant) String() string {
	switch v {
	case C2DMap:
		return "c2d-map"
	case C2DHybrid:
		return "c2d-hybrid"
	case C2WArray:
		return "c2w-array"
	case W2CHybrid:
		return "w2c-hybrid"
	case W2CArray:
		return "w2c-array"
	case G2DMap:
		return "g2d-map"
	case H2DMap:
		return "h2d-map"
	default:
		return "unknown"
	}
}

// ParseTrieVariant parses the trie_variant configuration key (§6).
func ParseTrieVariant(s string) (TrieVariant, error) {
	for _, v := range []TrieVariant{C2DMap, C2DHybrid, C2WArray, W2CHybrid, W2CArray, G2DMap, H2DMap} {
		if v.String() == s {
			return v, nil
		}
	}
	return 0, fmt.Errorf("katzlm: unknown trie_variant %q", s)
}

// DefaultBitmapCache reports whether the bitmap hash cache defaults to
// on for this variant (§6): on for {c2d-map, c2w-array, w2c-array},
// off elsewhere (the hybrid and generic-key variants already pay a
// hashing/scanning cost on miss that a bitmap would only duplicate).
func (v TrieVariant) DefaultBitmapCache() bool {
	switch v {
	case C2DMap, C2WArray, W2CArray:
		return true
	default:
		return false
	}
}

// Trie is the common contract every storage layout satisfies (§4.3).
// A Trie is built once, single-threaded, then read-only: concurrent
// reads are safe after Finalize returns.
type Trie interface {
	// PreAllocate hints at the final number of m-grams per level,
	// counts[0] for unigrams up to counts[N-1] for the top level.
	PreAllocate(counts []int)
	// AddUnigram records the payload for a single word.
	AddUnigram(word WordId, p Payload)
	// AddMGram records an interior (1 < level < N) m-gram.
	AddMGram(ids []WordId, p Payload)
	// AddNGram records a top-level (length N) m-gram; only LogProb is
	// meaningful.
	AddNGram(ids []WordId, logProb float32)
	// GetUnigramPayload always succeeds, including for
	// UNKNOWN_WORD_ID.
	GetUnigramPayload(word WordId) Payload
	// GetMGramPayload looks up an interior m-gram (1 < level < N).
	GetMGramPayload(ids []WordId) (Payload, bool)
	// GetNGramLogProb looks up a top-level (length N) m-gram.
	GetNGramLogProb(ids []WordId) (float32, bool)
	// Finalize seals the trie: sorts arrays and shrinks hash maps. The
	// bitmap caches are already complete once the last Add* call
	// returns. No further Add* calls are valid afterwards.
	Finalize()
}

// N_MAX is the hard-coded upper bound on model order referenced by
// §7/§9. NewModel rejects a larger order.
const N_MAX = 7

// unigramStore is the level-1 table shared verbatim by every trie
// variant: "For level 1 an entry for every known word exists,
// including UNKNOWN_WORD_ID" (§3). It is small enough that none of the
// seven variants bother specialising it.
type unigramStore struct {
	payloads []Payload
}

func (u *unigramStore) preAllocate(count int) {
	if count < 1 {
		count = 1
	}
	u.payloads = make([]Payload, count)
	// UNKNOWN_WORD_ID's sentinel, overwritten if the ARPA file defines
	// "<unk>" explicitly.
	u.payloads[UNKNOWN_WORD_ID] = Payload{LogProb: MIN_LOG_PROB}
}

func (u *unigramStore) add(word WordId, p Payload) {
	for int(word) >= len(u.payloads) {
		u.payloads = append(u.payloads, Payload{LogProb: MIN_LOG_PROB})
	}
	u.payloads[word] = p
}

func (u *unigramStore) get(word WordId) Payload {
	if int(word) < len(u.payloads) {
		return u.payloads[word]
	}
	return Payload{LogProb: MIN_LOG_PROB}
}
