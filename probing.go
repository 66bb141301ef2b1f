package katzlm

// Open-addressed probing hash table keyed by a 64-bit integer (a
// ContextId for the C2D map trie, or a raw m-gram hash for the H2D
// map trie), mapping to a Payload. Grounded on the teacher's xqwMap
// (probing_impl.go), generalized from a WordId->StateWeight table to
// a uint64->Payload table with an explicit "used" flag per slot (a
// Payload's zero value is a valid entry, so an empty slot cannot be
// signalled by a sentinel value the way the teacher uses word.NIL).

import "github.com/golang/glog"

// ctxHash is the fast-hash mix from probing_params.go's WordIdHash,
// widened to a full 64-bit key.
func ctxHash(k uint64) uint64 {
	h := k
	h ^= h >> 23
	h *= 0x2127599bf4325c37
	h ^= h >> 47
	return h
}

// wordIdHash is the same mix specialised to a WordId key, used by the
// m-gram hash combiner in mgram.go.
func wordIdHash(w WordId) uint64 {
	return ctxHash(uint64(w))
}

type probeEntry struct {
	key   uint64
	value Payload
	used  bool
}

type probeTable struct {
	buckets               []probeEntry
	numEntries, threshold int
}

func newProbeTable(initNumBuckets int, maxUsed float64) *probeTable {
	if initNumBuckets < 2 {
		initNumBuckets = 4
	}
	if maxUsed <= 0 || maxUsed >= 1 {
		maxUsed = 0.8
	}
	threshold := int(float64(initNumBuckets) * maxUsed)
	if threshold < 1 {
		threshold = 1
	}
	if threshold > initNumBuckets-1 {
		threshold = initNumBuckets - 1
	}
	return &probeTable{buckets: make([]probeEntry, initNumBuckets), threshold: threshold}
}

func (t *probeTable) Size() int { return t.numEntries }

func (t *probeTable) Find(k uint64) (Payload, bool) {
	if len(t.buckets) == 0 {
		return Payload{}, false
	}
	i := t.start(k)
	for {
		e := &t.buckets[i]
		if !e.used {
			return Payload{}, false
		}
		if e.key == k {
			return e.value, true
		}
		i++
		if i == len(t.buckets) {
			i = 0
		}
	}
}

func (t *probeTable) FindOrInsert(k uint64) *Payload {
	if len(t.buckets) == 0 {
		t.Resize(4)
	}
	i := t.start(k)
	for {
		e := &t.buckets[i]
		if e.used && e.key == k {
			return &e.value
		}
		if !e.used {
			break
		}
		i++
		if i == len(t.buckets) {
			i = 0
		}
	}
	if t.numEntries >= t.threshold {
		t.Resize(len(t.buckets) * 2)
		i = t.start(k)
		for t.buckets[i].used {
			i++
			if i == len(t.buckets) {
				i = 0
			}
		}
	}
	t.buckets[i] = probeEntry{key: k, used: true}
	t.numEntries++
	return &t.buckets[i].value
}

func (t *probeTable) Resize(numBuckets int) {
	if numBuckets < t.numEntries+1 {
		numBuckets = t.numEntries + 1
	}
	old := t.buckets
	t.buckets = make([]probeEntry, numBuckets)
	oldThreshold, oldLen := t.threshold, len(old)
	for _, e := range old {
		if e.used {
			i := t.start(e.key)
			for t.buckets[i].used {
				i++
				if i == len(t.buckets) {
					i = 0
				}
			}
			t.buckets[i] = e
		}
	}
	if oldLen == 0 {
		oldLen = 1
	}
	t.threshold = oldThreshold * numBuckets / oldLen
	if t.threshold < t.numEntries {
		t.threshold = t.numEntries
	}
}

func (t *probeTable) Range(f func(key uint64, value Payload)) {
	for _, e := range t.buckets {
		if e.used {
			f(e.key, e.value)
		}
	}
}

func (t *probeTable) start(k uint64) int {
	return int(ctxHash(k) % uint64(len(t.buckets)))
}

func (t *probeTable) ShrinkToFit() {
	if t.numEntries == 0 {
		return
	}
	want := nextPow2(int(float64(t.numEntries) / 0.8))
	if want < len(t.buckets) {
		t.Resize(want)
		if glog.V(2) {
			glog.Infof("probe table shrunk to %d buckets for %d entries", want, t.numEntries)
		}
	}
}
