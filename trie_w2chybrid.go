package katzlm

// W2CHybridTrie is the word-to-context hybrid trie (§4.3): per level,
// an array indexed by the m-gram's head word id; each slot lazily
// holds a small probing hash map from the remaining words' combined
// context id to the Payload. This amortises over the long-tail
// distribution of head words (most have few continuations). Grounded
// on the teacher's Builder.transitions -- an array of *xqwMap indexed
// by state, created lazily per entry (builder.go's setTransition/
// findNextState) -- generalized from "indexed by state" to "indexed
// by head word" and keyed by the m-gram's remainder instead of a
// single next word.
type W2CHybridTrie struct {
	n       int
	cfg     Config
	unigram unigramStore
	levels  [][]*probeTable // index 0 => level 2; each []*probeTable indexed by head word id
	bitmaps bitmapSet
}

func NewW2CHybridTrie(n int, cfg Config) *W2CHybridTrie {
	return &W2CHybridTrie{n: n, cfg: cfg, bitmaps: bitmapSet{enabled: cfg.useBitmapCache(), multiplier: cfg.BitmapBucketMultiplier}}
}

func (t *W2CHybridTrie) PreAllocate(counts []int) {
	t.unigram.preAllocate(counts[0])
	t.levels = make([][]*probeTable, t.n-1)
	for l := 2; l <= t.n; l++ {
		t.levels[l-2] = make([]*probeTable, counts[0])
	}
	t.bitmaps.preAllocate(counts)
}

func (t *W2CHybridTrie) headTable(level int, head WordId) *probeTable {
	heads := t.levels[level-2]
	for int(head) >= len(heads) {
		heads = append(heads, nil)
	}
	t.levels[level-2] = heads
	if heads[head] == nil {
		heads[head] = newProbeTable(4, 0.8)
	}
	return heads[head]
}

func (t *W2CHybridTrie) AddUnigram(word WordId, p Payload) { t.unigram.add(word, p) }

func (t *W2CHybridTrie) AddMGram(ids []WordId, p Payload) {
	level := len(ids)
	tbl := t.headTable(level, ids[0])
	*tbl.FindOrInsert(uint64(contextIdOf(ids[1:]))) = p
	t.bitmaps.register(level, ids)
}

func (t *W2CHybridTrie) AddNGram(ids []WordId, logProb float32) {
	t.AddMGram(ids, Payload{LogProb: logProb})
}

func (t *W2CHybridTrie) GetUnigramPayload(word WordId) Payload { return t.unigram.get(word) }

func (t *W2CHybridTrie) GetMGramPayload(ids []WordId) (Payload, bool) {
	level := len(ids)
	if !t.bitmaps.mayContain(level, ids) {
		return Payload{}, false
	}
	heads := t.levels[level-2]
	head := ids[0]
	if int(head) >= len(heads) || heads[head] == nil {
		return Payload{}, false
	}
	return heads[head].Find(uint64(contextIdOf(ids[1:])))
}

func (t *W2CHybridTrie) GetNGramLogProb(ids []WordId) (float32, bool) {
	p, ok := t.GetMGramPayload(ids)
	return p.LogProb, ok
}

func (t *W2CHybridTrie) Finalize() {
	for _, heads := range t.levels {
		for _, tbl := range heads {
			if tbl != nil {
				tbl.ShrinkToFit()
			}
		}
	}
}

// requiresContinuousWordIndex reports true: head words index directly
// into the per-level slice.
func (t *W2CHybridTrie) requiresContinuousWordIndex() bool { return true }
