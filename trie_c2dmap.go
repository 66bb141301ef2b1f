package katzlm

// C2DMapTrie is the context-to-data map trie (§4.3): per level
// 2 <= L <= N, one open-addressed hash map keyed by the Szudzik
// context id of the whole m-gram, mapping directly to its Payload.
// Grounded on the teacher's xqwMap (probing_impl.go), rekeyed from
// WordId->StateWeight to ContextId->Payload via probeTable.
type C2DMapTrie struct {
	n       int
	cfg     Config
	unigram unigramStore
	levels  []*probeTable // index 0 => level 2 ... index n-2 => level n
	bitmaps bitmapSet
}

// NewC2DMapTrie constructs an empty trie of order n.
func NewC2DMapTrie(n int, cfg Config) *C2DMapTrie {
	return &C2DMapTrie{n: n, cfg: cfg, bitmaps: bitmapSet{enabled: cfg.useBitmapCache(), multiplier: cfg.BitmapBucketMultiplier}}
}

func (t *C2DMapTrie) PreAllocate(counts []int) {
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

func (t *C2DMapTrie) AddUnigram(word WordId, p Payload) { t.unigram.add(word, p) }

func (t *C2DMapTrie) AddMGram(ids []WordId, p Payload) {
	level := len(ids)
	*t.levels[level-2].FindOrInsert(uint64(contextIdOf(ids))) = p
	t.bitmaps.register(level, ids)
}

func (t *C2DMapTrie) AddNGram(ids []WordId, logProb float32) {
	t.AddMGram(ids, Payload{LogProb: logProb})
}

func (t *C2DMapTrie) GetUnigramPayload(word WordId) Payload { return t.unigram.get(word) }

func (t *C2DMapTrie) GetMGramPayload(ids []WordId) (Payload, bool) {
	level := len(ids)
	if !t.bitmaps.mayContain(level, ids) {
		return Payload{}, false
	}
	return t.levels[level-2].Find(uint64(contextIdOf(ids)))
}

func (t *C2DMapTrie) GetNGramLogProb(ids []WordId) (float32, bool) {
	p, ok := t.GetMGramPayload(ids)
	return p.LogProb, ok
}

func (t *C2DMapTrie) Finalize() {
	for _, l := range t.levels {
		l.ShrinkToFit()
	}
}
