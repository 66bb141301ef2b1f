package katzlm

// Config collects every load-time tunable from §6. It is passed
// explicitly wherever behaviour depends on it (NewModel, the trie
// constructors, the ARPA builder) rather than read from package
// globals, per the "deeply coupled global macros" redesign note in §9.
type Config struct {
	// LMWeight (lm_weight) scales every unigram/m-gram LogProb at load
	// time; 1.0 disables scaling. Per the open question in §9(a), only
	// LogProb is scaled -- BackOff is left untouched, matching the
	// original's hot-path behaviour.
	LMWeight float64
	// TrieVariant selects the storage layout (§4.3).
	TrieVariant TrieVariant
	// WordIndexVariant selects the word-index implementation: one of
	// "basic", "counting", "optimizing-basic", "optimizing-counting",
	// "hashing".
	WordIndexVariant string

	// BitmapCache overrides whether the bitmap hash cache is built for
	// TrieVariant. nil means "use TrieVariant.DefaultBitmapCache()".
	BitmapCache *bool
	// BitmapBucketMultiplier (bitmap_bucket_multiplier) sizes each
	// level's bitmap as nextPow2(multiplier * count[level]).
	BitmapBucketMultiplier float64

	// BucketFactorC2DM / BucketFactorC2DN size the C2D map trie's
	// per-level hash tables for interior (1<level<N) and top (N)
	// levels respectively.
	BucketFactorC2DM float64
	BucketFactorC2DN float64
	// BucketFactorC2DHybridM / BucketFactorC2DHybridN do the same for
	// the map-backed levels of the C2D hybrid trie.
	BucketFactorC2DHybridM float64
	BucketFactorC2DHybridN float64

	// OptimizingIndexBucketFactor (optimizing_index_bucket_factor)
	// sizes the optimizing word index's open-addressed table.
	OptimizingIndexBucketFactor float64
	// WordsPerBucketG2D (words_per_bucket_g2d) sizes the G2D map
	// trie's hash buckets against a level's m-gram count.
	WordsPerBucketG2D float64

	// MinMemInc / MemIncFactor / MemIncStrategy govern how array-backed
	// tries grow their backing store when ingestion observes more
	// m-grams at a level than the ARPA header declared (§4.5's count
	// mismatch is a warning, not a fatal error, so growth must still
	// succeed).
	MinMemInc     int
	MemIncFactor  float64
	MemIncStrategy MemIncStrategy

	// SanityChecks enables the extra invariant assertions that used to
	// be compiled in/out via DO_SANITY_CHECKS (§9). Off by default; the
	// hot path stays a single guarded branch when disabled.
	SanityChecks bool
}

// MemIncStrategy is the shape of the array growth curve used when a
// trie level must grow past its pre-allocated capacity.
type MemIncStrategy int

const (
	MemIncConstant MemIncStrategy = iota
	MemIncLinear
	MemIncLog2
	MemIncLog10
)

// DefaultConfig returns the configuration table from §6.
func DefaultConfig() Config {
	return Config{
		LMWeight:                    1.0,
		TrieVariant:                 C2DMap,
		WordIndexVariant:            "basic",
		BitmapBucketMultiplier:      20.0,
		BucketFactorC2DM:            2.0,
		BucketFactorC2DN:            2.5,
		BucketFactorC2DHybridM:      2.1,
		BucketFactorC2DHybridN:      2.0,
		OptimizingIndexBucketFactor: 10.0,
		WordsPerBucketG2D:           1.0,
		MinMemInc:                   1,
		MemIncFactor:                0.3,
		MemIncStrategy:              MemIncConstant,
	}
}

// useBitmapCache resolves the effective bitmap_cache setting for
// c.TrieVariant.
func (c Config) useBitmapCache() bool {
	if c.BitmapCache != nil {
		return *c.BitmapCache
	}
	return c.TrieVariant.DefaultBitmapCache()
}

// nextCapacity grows cur by at least c.MinMemInc, shaped by
// c.MemIncStrategy, used when an array-backed trie level must exceed
// its pre-allocated size.
func (c Config) nextCapacity(cur int) int {
	inc := int(float64(cur) * c.MemIncFactor)
	switch c.MemIncStrategy {
	case MemIncLinear:
		// inc already linear in cur.
	case MemIncLog2:
		inc = bitLen(cur + 1)
	case MemIncLog10:
		d := 0
		for v := cur + 1; v > 0; v /= 10 {
			d++
		}
		inc = d
	case MemIncConstant:
		fallthrough
	default:
		if inc > c.MinMemInc {
			inc = c.MinMemInc
		}
	}
	if inc < c.MinMemInc {
		inc = c.MinMemInc
	}
	return cur + inc
}

// growAppend appends v to s, growing s's backing array according to
// c.nextCapacity (the mem_inc_strategy/mem_inc_factor/min_mem_inc
// keys of §6) whenever s is already at capacity, instead of leaving
// the growth curve to the append builtin's own doubling. Used by the
// array-backed trie variants (c2w-array, w2c-array, and c2d-hybrid's
// array levels) whose per-level slices can exceed what PreAllocate
// sized them to when an ARPA file's declared count (§4.5) undercounts
// what ingestion actually observes.
func growAppend[T any](c Config, s []T, v T) []T {
	if len(s) == cap(s) {
		next := c.nextCapacity(cap(s))
		if next <= cap(s) {
			next = cap(s) + 1
		}
		grown := make([]T, len(s), next)
		copy(grown, s)
		s = grown
	}
	return append(s, v)
}

// NewWordIndex constructs the word-index variant named by
// c.WordIndexVariant.
func (c Config) NewWordIndex() WordIndex {
	switch c.WordIndexVariant {
	case "", "basic":
		return NewBasicWordIndex()
	case "counting":
		return NewCountingWordIndex()
	case "optimizing-basic":
		return NewOptimizingWordIndex(NewBasicWordIndex(), c.OptimizingIndexBucketFactor)
	case "optimizing-counting":
		return NewOptimizingWordIndex(NewCountingWordIndex(), c.OptimizingIndexBucketFactor)
	case "hashing":
		return NewHashingWordIndex()
	default:
		return NewBasicWordIndex()
	}
}
