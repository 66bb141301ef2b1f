package katzlm

import (
	"bytes"

	"github.com/golang/glog"
)

// g2dEntry is one chained bucket entry of a G2D map trie level: the
// full byte M-gram id (§4.2) is kept alongside the payload since the
// bucket index alone does not determine it uniquely.
type g2dEntry struct {
	id    []byte
	value Payload
}

// g2dBucket is a small chain; most buckets hold 0 or 1 entries given
// words_per_bucket_g2d close to 1.0 (§6).
type g2dBucket []g2dEntry

// G2DMapTrie is the generic-to-data map trie (§4.3): per level, the
// m-gram's byte M-gram id (EncodeMGramId, §4.2) is hashed into a
// bucket array sized by words_per_bucket_g2d; each bucket is a short
// chain storing the full id bytes (so collisions within a bucket are
// resolved by an exact byte comparison rather than assumed unique).
// Grounded on the teacher's xqwMap chaining discipline
// (probing_impl.go) adapted from open addressing to external chaining
// because the key here is a variable-length byte string rather than a
// fixed-width integer.
type G2DMapTrie struct {
	n       int
	cfg     Config
	unigram unigramStore
	levels  []struct {
		buckets []g2dBucket
		count   int
	}
	bitmaps bitmapSet
}

func NewG2DMapTrie(n int, cfg Config) *G2DMapTrie {
	return &G2DMapTrie{n: n, cfg: cfg, bitmaps: bitmapSet{enabled: cfg.useBitmapCache(), multiplier: cfg.BitmapBucketMultiplier}}
}

func (t *G2DMapTrie) PreAllocate(counts []int) {
	t.unigram.preAllocate(counts[0])
	t.levels = make([]struct {
		buckets []g2dBucket
		count   int
	}, t.n+1)
	for l := 2; l <= t.n; l++ {
		count := 0
		if l-1 < len(counts) {
			count = counts[l-1]
		}
		factor := t.cfg.WordsPerBucketG2D
		if factor <= 0 {
			factor = 1.0
		}
		numBuckets := nextPow2(int(float64(count) / factor))
		if numBuckets < 1 {
			numBuckets = 1
		}
		t.levels[l].buckets = make([]g2dBucket, numBuckets)
	}
	t.bitmaps.preAllocate(counts)
}

func bytesHash(b []byte) uint64 {
	h := uint64(1469598103934665603)
	for _, c := range b {
		h ^= uint64(c)
		h *= 1099511628211
	}
	return h
}

func (t *G2DMapTrie) AddUnigram(word WordId, p Payload) { t.unigram.add(word, p) }

func (t *G2DMapTrie) AddMGram(ids []WordId, p Payload) {
	level := len(ids)
	id := EncodeMGramId(ids)
	lvl := &t.levels[level]
	i := int(ctxHash(bytesHash(id)) % uint64(len(lvl.buckets)))
	bucket := lvl.buckets[i]
	for j := range bucket {
		if bytes.Equal(bucket[j].id, id) {
			bucket[j].value = p
			t.bitmaps.register(level, ids)
			return
		}
	}
	lvl.buckets[i] = append(bucket, g2dEntry{id: id, value: p})
	lvl.count++
	t.bitmaps.register(level, ids)
}

func (t *G2DMapTrie) AddNGram(ids []WordId, logProb float32) {
	t.AddMGram(ids, Payload{LogProb: logProb})
}

func (t *G2DMapTrie) GetUnigramPayload(word WordId) Payload { return t.unigram.get(word) }

func (t *G2DMapTrie) GetMGramPayload(ids []WordId) (Payload, bool) {
	level := len(ids)
	if !t.bitmaps.mayContain(level, ids) {
		return Payload{}, false
	}
	lvl := &t.levels[level]
	if len(lvl.buckets) == 0 {
		return Payload{}, false
	}
	id := EncodeMGramId(ids)
	i := int(ctxHash(bytesHash(id)) % uint64(len(lvl.buckets)))
	for _, e := range lvl.buckets[i] {
		if bytes.Equal(e.id, id) {
			return e.value, true
		}
	}
	return Payload{}, false
}

func (t *G2DMapTrie) GetNGramLogProb(ids []WordId) (float32, bool) {
	p, ok := t.GetMGramPayload(ids)
	return p.LogProb, ok
}

func (t *G2DMapTrie) Finalize() {
	for l := 2; l <= t.n; l++ {
		lvl := &t.levels[l]
		if len(lvl.buckets) == 0 {
			continue
		}
		maxChain := 0
		for _, b := range lvl.buckets {
			if len(b) > maxChain {
				maxChain = len(b)
			}
		}
		if maxChain >= 3 {
			glog.Warningf("g2d-map level %d: longest bucket chain is %d entries (words_per_bucket_g2d may be too high)", l, maxChain)
		}
	}
}
