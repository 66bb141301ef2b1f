package katzlm

import "sort"

type w2cEntry struct {
	head  WordId
	ctx   uint64 // combined id of the remainder (words after the head)
	value Payload
}

// W2CArrayTrie is the word-to-context array trie (§4.3): per level,
// per head word, a sorted remainder-context array, all sharing one
// contiguous backing slice (a CSR-style layout) to minimise per-head
// pointer overhead relative to W2CHybridTrie's per-head hash maps.
// Grounded on the teacher's Sorted model (sorted.go), whose
// transitions [][]WordStateWeight is one contiguous-per-state sorted
// array; generalized here to one contiguous array per level shared
// across all head words via an offsets index, rather than one slice
// object per state.
type W2CArrayTrie struct {
	n       int
	cfg     Config
	unigram unigramStore
	pending [][]w2cEntry // per level, appended during ingestion
	entries [][]w2cEntry // per level, sorted+offset after Finalize
	offsets [][]int      // per level, offsets[head] is the start index in entries
	bitmaps bitmapSet
	nWords  int
}

func NewW2CArrayTrie(n int, cfg Config) *W2CArrayTrie {
	return &W2CArrayTrie{n: n, cfg: cfg, bitmaps: bitmapSet{enabled: cfg.useBitmapCache(), multiplier: cfg.BitmapBucketMultiplier}}
}

func (t *W2CArrayTrie) PreAllocate(counts []int) {
	t.unigram.preAllocate(counts[0])
	t.nWords = counts[0]
	t.pending = make([][]w2cEntry, t.n-1)
	for l := 2; l <= t.n; l++ {
		count := 0
		if l-1 < len(counts) {
			count = counts[l-1]
		}
		t.pending[l-2] = make([]w2cEntry, 0, count)
	}
	t.bitmaps.preAllocate(counts)
}

func (t *W2CArrayTrie) AddUnigram(word WordId, p Payload) { t.unigram.add(word, p) }

func (t *W2CArrayTrie) AddMGram(ids []WordId, p Payload) {
	level := len(ids)
	i := level - 2
	t.pending[i] = growAppend(t.cfg, t.pending[i], w2cEntry{head: ids[0], ctx: uint64(contextIdOf(ids[1:])), value: p})
	t.bitmaps.register(level, ids)
}

func (t *W2CArrayTrie) AddNGram(ids []WordId, logProb float32) {
	t.AddMGram(ids, Payload{LogProb: logProb})
}

func (t *W2CArrayTrie) GetUnigramPayload(word WordId) Payload { return t.unigram.get(word) }

func (t *W2CArrayTrie) span(level int, head WordId) []w2cEntry {
	i := level - 2
	offs := t.offsets[i]
	if int(head)+1 >= len(offs) {
		return nil
	}
	return t.entries[i][offs[head]:offs[head+1]]
}

func (t *W2CArrayTrie) GetMGramPayload(ids []WordId) (Payload, bool) {
	level := len(ids)
	if !t.bitmaps.mayContain(level, ids) {
		return Payload{}, false
	}
	entries := t.span(level, ids[0])
	ctx := uint64(contextIdOf(ids[1:]))
	lo := sort.Search(len(entries), func(k int) bool { return entries[k].ctx >= ctx })
	if lo < len(entries) && entries[lo].ctx == ctx {
		return entries[lo].value, true
	}
	return Payload{}, false
}

func (t *W2CArrayTrie) GetNGramLogProb(ids []WordId) (float32, bool) {
	p, ok := t.GetMGramPayload(ids)
	return p.LogProb, ok
}

// Finalize sorts each level by (head, ctx) and builds the CSR offsets
// index so a lookup's span is an O(1) slice rather than a binary
// search over head word too.
func (t *W2CArrayTrie) Finalize() {
	t.entries = make([][]w2cEntry, len(t.pending))
	t.offsets = make([][]int, len(t.pending))
	for i, entries := range t.pending {
		sort.Slice(entries, func(a, b int) bool {
			if entries[a].head != entries[b].head {
				return entries[a].head < entries[b].head
			}
			return entries[a].ctx < entries[b].ctx
		})
		offs := make([]int, t.nWords+1)
		for _, e := range entries {
			offs[e.head+1]++
		}
		for h := 0; h < t.nWords; h++ {
			offs[h+1] += offs[h]
		}
		t.entries[i] = entries
		t.offsets[i] = offs
	}
	t.pending = nil
}

// requiresContinuousWordIndex reports true: the CSR offsets index is
// sized by and indexed with head word ids directly.
func (t *W2CArrayTrie) requiresContinuousWordIndex() bool { return true }
