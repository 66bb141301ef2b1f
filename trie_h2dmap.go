package katzlm

// H2DMapTrie is the hash-to-data map trie (§4.3): per level, a
// probeTable keyed directly by mgramHash(ids) instead of the Szudzik
// context id, so a lookup never needs the word index's ids to be
// continuous (unlike C2DMapTrie, which relies on contextIdOf's pairing
// function assuming small dense ids). Because the key is a hash of the
// full m-gram rather than an invertible combination of it, two
// distinct m-grams that collide on mgramHash are indistinguishable to
// the table; GetMGramPayload trusts the first match, matching the
// original's documented hash-collision trade-off for this variant
// (accepted in exchange for supporting non-continuous word ids, e.g.
// from the hashing word index). Grounded on the teacher's xqwMap
// (probing_impl.go), the same base as C2DMapTrie, rekeyed.
type H2DMapTrie struct {
	n       int
	cfg     Config
	unigram unigramStore
	levels  []*probeTable // index 0 => level 2
	bitmaps bitmapSet
}

func NewH2DMapTrie(n int, cfg Config) *H2DMapTrie {
	return &H2DMapTrie{n: n, cfg: cfg, bitmaps: bitmapSet{enabled: cfg.useBitmapCache(), multiplier: cfg.BitmapBucketMultiplier}}
}

func (t *H2DMapTrie) PreAllocate(counts []int) {
	t.unigram.preAllocate(counts[0])
	t.levels = make([]*probeTable, t.n-1)
	for l := 2; l <= t.n; l++ {
		factor := t.cfg.BucketFactorC2DM
		if l == t.n {
			factor = t.cfg.BucketFactorC2DN
		}
		count := 0
		if l-1 < len(counts) {
			count = counts[l-1]
		}
		t.levels[l-2] = newProbeTable(nextPow2(int(float64(count)*factor)), 0.8)
	}
	t.bitmaps.preAllocate(counts)
}

func (t *H2DMapTrie) AddUnigram(word WordId, p Payload) { t.unigram.add(word, p) }

func (t *H2DMapTrie) AddMGram(ids []WordId, p Payload) {
	level := len(ids)
	*t.levels[level-2].FindOrInsert(mgramHash(ids)) = p
	t.bitmaps.register(level, ids)
}

func (t *H2DMapTrie) AddNGram(ids []WordId, logProb float32) {
	t.AddMGram(ids, Payload{LogProb: logProb})
}

func (t *H2DMapTrie) GetUnigramPayload(word WordId) Payload { return t.unigram.get(word) }

func (t *H2DMapTrie) GetMGramPayload(ids []WordId) (Payload, bool) {
	level := len(ids)
	if !t.bitmaps.mayContain(level, ids) {
		return Payload{}, false
	}
	return t.levels[level-2].Find(mgramHash(ids))
}

func (t *H2DMapTrie) GetNGramLogProb(ids []WordId) (float32, bool) {
	p, ok := t.GetMGramPayload(ids)
	return p.LogProb, ok
}

func (t *H2DMapTrie) Finalize() {
	for _, l := range t.levels {
		l.ShrinkToFit()
	}
}
