package katzlm

import "sort"

// c2dArrayEntry is one (context_id, payload) record in a C2D hybrid
// trie's array-backed low level.
type c2dArrayEntry struct {
	ctx   uint64
	value Payload
}

// c2dHybridArrayThreshold is the highest m-gram level stored as a
// sorted array rather than a probeTable; levels above it use the
// hash map, trading the array's smaller footprint (no per-entry probe
// overhead) for the map's faster point lookups once a level's context
// ids spread out enough that binary search stops paying for itself.
// This mirrors the decision the teacher's Sorted vs xqwMap-backed
// Hashed models make at the whole-model level, applied here per-level
// within one trie.
const c2dHybridArrayThreshold = 3

// C2DHybridTrie is the context-to-data hybrid trie (§4.3): low levels
// (2..c2dHybridArrayThreshold) are sorted arrays of (context id,
// payload) searched by binary search; high levels use a probeTable,
// same as C2DMapTrie. Grounded on the teacher's Sorted (sorted.go) for
// the array-backed levels and xqwMap (probing_impl.go) for the
// map-backed ones -- the two storage shapes the teacher already
// supports for a whole model, used here side by side per level.
type C2DHybridTrie struct {
	n       int
	cfg     Config
	unigram unigramStore
	arrays  [][]c2dArrayEntry // levels 2..min(n, threshold)
	maps    []*probeTable     // levels threshold+1..n
	bitmaps bitmapSet
}

func NewC2DHybridTrie(n int, cfg Config) *C2DHybridTrie {
	return &C2DHybridTrie{n: n, cfg: cfg, bitmaps: bitmapSet{enabled: cfg.useBitmapCache(), multiplier: cfg.BitmapBucketMultiplier}}
}

func (t *C2DHybridTrie) isArrayLevel(level int) bool { return level <= c2dHybridArrayThreshold }

func (t *C2DHybridTrie) PreAllocate(counts []int) {
	t.unigram.preAllocate(counts[0])
	t.arrays = make([][]c2dArrayEntry, t.n+1)
	t.maps = make([]*probeTable, t.n+1)
	for l := 2; l <= t.n; l++ {
		count := 0
		if l-1 < len(counts) {
			count = counts[l-1]
		}
		if t.isArrayLevel(l) {
			t.arrays[l] = make([]c2dArrayEntry, 0, count)
		} else {
			factor := t.cfg.BucketFactorC2DHybridM
			if l == t.n {
				factor = t.cfg.BucketFactorC2DHybridN
			}
			t.maps[l] = newProbeTable(nextPow2(int(float64(count)*factor)), 0.8)
		}
	}
	t.bitmaps.preAllocate(counts)
}

func (t *C2DHybridTrie) AddUnigram(word WordId, p Payload) { t.unigram.add(word, p) }

func (t *C2DHybridTrie) AddMGram(ids []WordId, p Payload) {
	level := len(ids)
	ctx := uint64(contextIdOf(ids))
	if t.isArrayLevel(level) {
		t.arrays[level] = growAppend(t.cfg, t.arrays[level], c2dArrayEntry{ctx: ctx, value: p})
	} else {
		*t.maps[level].FindOrInsert(ctx) = p
	}
	t.bitmaps.register(level, ids)
}

func (t *C2DHybridTrie) AddNGram(ids []WordId, logProb float32) {
	t.AddMGram(ids, Payload{LogProb: logProb})
}

func (t *C2DHybridTrie) GetUnigramPayload(word WordId) Payload { return t.unigram.get(word) }

func (t *C2DHybridTrie) GetMGramPayload(ids []WordId) (Payload, bool) {
	level := len(ids)
	if !t.bitmaps.mayContain(level, ids) {
		return Payload{}, false
	}
	ctx := uint64(contextIdOf(ids))
	if t.isArrayLevel(level) {
		entries := t.arrays[level]
		lo := sort.Search(len(entries), func(k int) bool { return entries[k].ctx >= ctx })
		if lo < len(entries) && entries[lo].ctx == ctx {
			return entries[lo].value, true
		}
		return Payload{}, false
	}
	return t.maps[level].Find(ctx)
}

func (t *C2DHybridTrie) GetNGramLogProb(ids []WordId) (float32, bool) {
	p, ok := t.GetMGramPayload(ids)
	return p.LogProb, ok
}

func (t *C2DHybridTrie) Finalize() {
	for l, entries := range t.arrays {
		if entries == nil {
			continue
		}
		sort.Slice(entries, func(a, b int) bool { return entries[a].ctx < entries[b].ctx })
		t.arrays[l] = entries
	}
	for _, m := range t.maps {
		if m != nil {
			m.ShrinkToFit()
		}
	}
}
