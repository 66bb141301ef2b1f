package katzlm

import "sort"

// c2wEntry is one (context_id, last_word_id, payload) record of the
// C2W array trie.
type c2wEntry struct {
	ctx   uint64
	word  WordId
	value Payload
}

// C2WArrayTrie is the context-to-word ordered array trie (§4.3): per
// level, a single array sorted first by the context id of the
// (M-1)-prefix, then by the last word id; lookup binary-searches the
// context_id span. Grounded on the teacher's Sorted model
// (sorted.go), which keeps one sorted-by-label array per state and
// binary-searches it -- generalized here from a state-indexed array
// to a (context id, word) sorted array per m-gram level.
type C2WArrayTrie struct {
	n       int
	cfg     Config
	unigram unigramStore
	levels  [][]c2wEntry // index 0 => level 2
	sorted  []bool
	bitmaps bitmapSet
}

func NewC2WArrayTrie(n int, cfg Config) *C2WArrayTrie {
	return &C2WArrayTrie{n: n, cfg: cfg, bitmaps: bitmapSet{enabled: cfg.useBitmapCache(), multiplier: cfg.BitmapBucketMultiplier}}
}

func (t *C2WArrayTrie) PreAllocate(counts []int) {
	t.unigram.preAllocate(counts[0])
	t.levels = make([][]c2wEntry, t.n-1)
	t.sorted = make([]bool, t.n-1)
	for l := 2; l <= t.n; l++ {
		count := 0
		if l-1 < len(counts) {
			count = counts[l-1]
		}
		t.levels[l-2] = make([]c2wEntry, 0, count)
	}
	t.bitmaps.preAllocate(counts)
}

func (t *C2WArrayTrie) AddUnigram(word WordId, p Payload) { t.unigram.add(word, p) }

func (t *C2WArrayTrie) AddMGram(ids []WordId, p Payload) {
	level := len(ids)
	ctx := contextIdOf(ids[:level-1])
	i := level - 2
	t.levels[i] = growAppend(t.cfg, t.levels[i], c2wEntry{ctx: uint64(ctx), word: ids[level-1], value: p})
	t.sorted[i] = false
	t.bitmaps.register(level, ids)
}

func (t *C2WArrayTrie) AddNGram(ids []WordId, logProb float32) {
	t.AddMGram(ids, Payload{LogProb: logProb})
}

func (t *C2WArrayTrie) GetUnigramPayload(word WordId) Payload { return t.unigram.get(word) }

func (t *C2WArrayTrie) GetMGramPayload(ids []WordId) (Payload, bool) {
	level := len(ids)
	if !t.bitmaps.mayContain(level, ids) {
		return Payload{}, false
	}
	i := level - 2
	entries := t.levels[i]
	ctx := uint64(contextIdOf(ids[:level-1]))
	word := ids[level-1]
	lo := sort.Search(len(entries), func(k int) bool {
		return entries[k].ctx > ctx || (entries[k].ctx == ctx && entries[k].word >= word)
	})
	if lo < len(entries) && entries[lo].ctx == ctx && entries[lo].word == word {
		return entries[lo].value, true
	}
	return Payload{}, false
}

func (t *C2WArrayTrie) GetNGramLogProb(ids []WordId) (float32, bool) {
	p, ok := t.GetMGramPayload(ids)
	return p.LogProb, ok
}

func (t *C2WArrayTrie) Finalize() {
	for i, entries := range t.levels {
		sort.Slice(entries, func(a, b int) bool {
			if entries[a].ctx != entries[b].ctx {
				return entries[a].ctx < entries[b].ctx
			}
			return entries[a].word < entries[b].word
		})
		t.sorted[i] = true
	}
}
