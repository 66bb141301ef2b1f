package katzlm

// Word index: the mapping between surface tokens and compact integer
// WordIds. Four interchangeable variants are provided (basic, counting,
// optimizing, hashing); all satisfy the WordIndex interface so a Trie
// never needs to know which one backs a Model.

import (
	"bytes"
	"encoding/gob"
	"sort"

	"github.com/golang/glog"
)

// WordId is the compact integer identifier assigned to a surface token.
type WordId uint32

const (
	// UNKNOWN_WORD_ID is reserved for out-of-vocabulary tokens. It always
	// has a unigram payload, populated with a sentinel probability if
	// the ARPA file does not define "<unk>" explicitly.
	UNKNOWN_WORD_ID WordId = 0
	// UNDEFINED_WORD_ID is a sentinel meaning "no word". The hashing
	// word index never assigns it, so it is never returned by
	// GetWordId.
	UNDEFINED_WORD_ID WordId = ^WordId(0)
)

const unkToken = "<unk>"

// WordIndex is the common contract every word-index variant satisfies.
type WordIndex interface {
	// Reserve hints at the eventual vocabulary size so backing maps/
	// slices can be pre-sized.
	Reserve(n int)
	// RegisterWord inserts token if absent and returns its WordId.
	// Ingestion-only; not thread-safe.
	RegisterWord(token string) WordId
	// GetWordId returns token's id, or UNKNOWN_WORD_ID if token was
	// never registered.
	GetWordId(token string) WordId
	// Token returns the surface form of id. Only valid for ids returned
	// by RegisterWord/GetWordId (or UNKNOWN_WORD_ID).
	Token(id WordId) string
	// CountWord records an occurrence (or ARPA log-probability) of
	// token for use by the counting variant. A no-op elsewhere.
	CountWord(token string, prob float32)
	// FinalizeCounts re-ranks ids by descending count/weight so that
	// more frequent words receive smaller ids. A no-op except for the
	// counting variant (and indexes wrapping it).
	FinalizeCounts()
	// Finalize is called once ingestion is complete. The optimizing
	// variant rebuilds into an open-addressed table here; others are a
	// no-op.
	Finalize()
	// IsContinuous reports whether ids densely cover 0..NumWords()-1.
	// Some trie variants (the word-to-context arrays) require this.
	IsContinuous() bool
	// NumWords returns the number of distinct registered words,
	// including UNKNOWN_WORD_ID.
	NumWords() int
}

// ---------------------------------------------------------------------
// basic: append-order ids, hash-map lookup.
// ---------------------------------------------------------------------

type basicWordIndex struct {
	str2id map[string]WordId
	id2str []string
}

// NewBasicWordIndex constructs a word index that assigns ids in
// first-seen order. UNKNOWN_WORD_ID is pre-registered as "<unk>".
func NewBasicWordIndex() WordIndex {
	b := &basicWordIndex{str2id: map[string]WordId{}}
	b.id2str = append(b.id2str, unkToken)
	b.str2id[unkToken] = UNKNOWN_WORD_ID
	return b
}

func (b *basicWordIndex) Reserve(n int) {
	if n <= 0 {
		return
	}
	grown := make(map[string]WordId, n)
	for k, v := range b.str2id {
		grown[k] = v
	}
	b.str2id = grown
	if cap(b.id2str) < n {
		grown2 := make([]string, len(b.id2str), n)
		copy(grown2, b.id2str)
		b.id2str = grown2
	}
}

func (b *basicWordIndex) RegisterWord(token string) WordId {
	if id, ok := b.str2id[token]; ok {
		return id
	}
	if len(b.id2str) >= 1<<32-1 {
		glog.Fatal((&OverflowError{Level: 1, Declared: 1 << 32, Observed: len(b.id2str) + 1}).Error())
	}
	id := WordId(len(b.id2str))
	b.id2str = append(b.id2str, token)
	b.str2id[token] = id
	return id
}

func (b *basicWordIndex) GetWordId(token string) WordId {
	if id, ok := b.str2id[token]; ok {
		return id
	}
	return UNKNOWN_WORD_ID
}

func (b *basicWordIndex) Token(id WordId) string {
	return b.id2str[id]
}

func (b *basicWordIndex) CountWord(token string, prob float32) {}
func (b *basicWordIndex) FinalizeCounts()                      {}
func (b *basicWordIndex) Finalize()                            {}
func (b *basicWordIndex) IsContinuous() bool                   { return true }
func (b *basicWordIndex) NumWords() int                        { return len(b.id2str) }

// MarshalBinary/UnmarshalBinary let gob serialize basicWordIndex
// despite its unexported fields, matching the teacher's Vocab
// (vocab.go); str2id is rebuilt from id2str on decode rather than
// encoded directly, since it is fully determined by it.
func (b *basicWordIndex) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(b.id2str); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (b *basicWordIndex) UnmarshalBinary(data []byte) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&b.id2str); err != nil {
		return err
	}
	b.str2id = make(map[string]WordId, len(b.id2str))
	for id, tok := range b.id2str {
		b.str2id[tok] = WordId(id)
	}
	return nil
}

// ---------------------------------------------------------------------
// counting: same as basic, but re-orders ids by descending
// count/weight so frequent words get smaller ids.
// ---------------------------------------------------------------------

type countingWordIndex struct {
	*basicWordIndex
	counts map[string]float64
}

// NewCountingWordIndex constructs a word index that, on FinalizeCounts,
// reassigns ids so the most frequent words (by CountWord's tally) get
// the smallest ids. UNKNOWN_WORD_ID stays fixed at 0.
func NewCountingWordIndex() WordIndex {
	return &countingWordIndex{
		basicWordIndex: NewBasicWordIndex().(*basicWordIndex),
		counts:         map[string]float64{},
	}
}

// UnmarshalBinary allocates the embedded basicWordIndex before decoding
// into it; the promoted method alone would run on a nil pointer when
// gob decodes into a fresh countingWordIndex.
func (c *countingWordIndex) UnmarshalBinary(data []byte) error {
	c.basicWordIndex = &basicWordIndex{}
	return c.basicWordIndex.UnmarshalBinary(data)
}

func (c *countingWordIndex) CountWord(token string, prob float32) {
	c.counts[token] += float64(prob)
}

func (c *countingWordIndex) FinalizeCounts() {
	n := len(c.id2str)
	if n <= 1 {
		return
	}
	words := make([]string, 0, n-1)
	for i := 1; i < n; i++ {
		words = append(words, c.id2str[i])
	}
	sort.SliceStable(words, func(i, j int) bool {
		return c.counts[words[i]] > c.counts[words[j]]
	})
	c.id2str = c.id2str[:1]
	c.str2id = map[string]WordId{unkToken: UNKNOWN_WORD_ID}
	for _, w := range words {
		id := WordId(len(c.id2str))
		c.id2str = append(c.id2str, w)
		c.str2id[w] = id
	}
	if glog.V(1) {
		glog.Infof("counting word index: re-ranked %d words by frequency", len(words))
	}
}

// ---------------------------------------------------------------------
// optimizing: wraps any of the above; rebuilds into an open-addressed
// table for faster final lookups. Grounded on
// original_source/inc/OptimizingWordIndex.hpp.
// ---------------------------------------------------------------------

const optimizingBucketWarnSize = 3

type optimizingEntry struct {
	token string
	id    WordId
	used  bool
}

type optimizingWordIndex struct {
	inner   WordIndex
	buckets []optimizingEntry
	// bucketFactor controls buckets = nextPow2(bucketFactor * n_words).
	bucketFactor float64
	finalized    bool
}

// NewOptimizingWordIndex wraps inner (basic, counting, or hashing) so
// that GetWordId performs open-addressed probing once Finalize is
// called. bucketFactor defaults to optimizing_index_bucket_factor
// (10.0) when <= 0.
func NewOptimizingWordIndex(inner WordIndex, bucketFactor float64) WordIndex {
	if bucketFactor <= 0 {
		bucketFactor = 10.0
	}
	return &optimizingWordIndex{inner: inner, bucketFactor: bucketFactor}
}

func (o *optimizingWordIndex) Reserve(n int)               { o.inner.Reserve(n) }
func (o *optimizingWordIndex) RegisterWord(t string) WordId { return o.inner.RegisterWord(t) }
func (o *optimizingWordIndex) Token(id WordId) string       { return o.inner.Token(id) }
func (o *optimizingWordIndex) CountWord(t string, p float32) { o.inner.CountWord(t, p) }
func (o *optimizingWordIndex) FinalizeCounts()              { o.inner.FinalizeCounts() }
func (o *optimizingWordIndex) IsContinuous() bool           { return o.inner.IsContinuous() }
func (o *optimizingWordIndex) NumWords() int                { return o.inner.NumWords() }

func (o *optimizingWordIndex) GetWordId(token string) WordId {
	if !o.finalized {
		return o.inner.GetWordId(token)
	}
	if len(o.buckets) == 0 {
		return UNKNOWN_WORD_ID
	}
	h := fnv1a(token)
	n := uint64(len(o.buckets))
	for i := h % n; ; i = (i + 1) % n {
		e := &o.buckets[i]
		if !e.used {
			return UNKNOWN_WORD_ID
		}
		if e.token == token {
			return e.id
		}
	}
}

// Finalize rebuilds the token->id mapping into an open-addressed table
// sized to the next power of two above bucketFactor*n_words. Lookup
// then hashes the token, locates the bucket and does byte-equal
// comparisons against at most a handful of entries; a bucket reaching
// optimizingBucketWarnSize probes is logged.
func (o *optimizingWordIndex) Finalize() {
	o.inner.Finalize()
	n := o.inner.NumWords()
	numBuckets := nextPow2(int(o.bucketFactor * float64(n)))
	if numBuckets < 1 {
		numBuckets = 1
	}
	o.buckets = make([]optimizingEntry, numBuckets)
	if h, ok := o.inner.(*hashingWordIndex); ok {
		// Hashing ids are sparse, so walk its own id->token map.
		for id, token := range h.id2str {
			o.insert(token, id)
		}
	} else {
		for id := 0; id < n; id++ {
			token := o.inner.Token(WordId(id))
			o.insert(token, WordId(id))
		}
	}
	o.finalized = true
}

// MarshalBinary/UnmarshalBinary serialize only inner and bucketFactor;
// the probing table is cheap to rebuild via Finalize on load and
// doesn't need to be round-tripped.
func (o *optimizingWordIndex) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(&o.inner); err != nil {
		return nil, err
	}
	if err := enc.Encode(o.bucketFactor); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (o *optimizingWordIndex) UnmarshalBinary(data []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&o.inner); err != nil {
		return err
	}
	if err := dec.Decode(&o.bucketFactor); err != nil {
		return err
	}
	o.Finalize()
	return nil
}

func (o *optimizingWordIndex) insert(token string, id WordId) {
	h := fnv1a(token)
	n := uint64(len(o.buckets))
	probes := 0
	for i := h % n; ; i = (i + 1) % n {
		e := &o.buckets[i]
		if !e.used {
			*e = optimizingEntry{token: token, id: id, used: true}
			if probes+1 >= optimizingBucketWarnSize {
				glog.Warningf("optimizing word index: bucket for %q reached %d entries", token, probes+1)
			}
			return
		}
		probes++
	}
}

// ---------------------------------------------------------------------
// hashing: ids are derived directly from a hash of the token, so the
// resulting id space is not continuous. Required by the H2D trie,
// which accepts non-continuous ids in exchange for never needing a
// pre-pass over the vocabulary.
// ---------------------------------------------------------------------

type hashingWordIndex struct {
	id2str map[WordId]string
	str2id map[string]WordId
}

func NewHashingWordIndex() WordIndex {
	h := &hashingWordIndex{id2str: map[WordId]string{}, str2id: map[string]WordId{}}
	h.id2str[UNKNOWN_WORD_ID] = unkToken
	h.str2id[unkToken] = UNKNOWN_WORD_ID
	return h
}

func (h *hashingWordIndex) Reserve(n int) {}

func (h *hashingWordIndex) RegisterWord(token string) WordId {
	if id, ok := h.str2id[token]; ok {
		return id
	}
	id := WordId(uint32(fnv1a(token)))
	for id == UNKNOWN_WORD_ID || id == UNDEFINED_WORD_ID || h.collides(id, token) {
		id++
	}
	h.id2str[id] = token
	h.str2id[token] = id
	return id
}

func (h *hashingWordIndex) collides(id WordId, token string) bool {
	existing, ok := h.id2str[id]
	return ok && existing != token
}

func (h *hashingWordIndex) GetWordId(token string) WordId {
	if id, ok := h.str2id[token]; ok {
		return id
	}
	return UNKNOWN_WORD_ID
}

func (h *hashingWordIndex) Token(id WordId) string   { return h.id2str[id] }
func (h *hashingWordIndex) CountWord(string, float32) {}
func (h *hashingWordIndex) FinalizeCounts()           {}
func (h *hashingWordIndex) Finalize()                 {}
func (h *hashingWordIndex) IsContinuous() bool        { return false }
func (h *hashingWordIndex) NumWords() int             { return len(h.id2str) }

func (h *hashingWordIndex) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(h.id2str); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (h *hashingWordIndex) UnmarshalBinary(data []byte) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&h.id2str); err != nil {
		return err
	}
	h.str2id = make(map[string]WordId, len(h.id2str))
	for id, tok := range h.id2str {
		h.str2id[tok] = id
	}
	return nil
}

// ---------------------------------------------------------------------
// shared helpers
// ---------------------------------------------------------------------

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// fnv1a is the 64-bit FNV-1a hash, used by the optimizing and hashing
// word-index variants. The G2D trie's bytesHash uses the same constants
// over byte M-gram ids.
func fnv1a(s string) uint64 {
	const (
		offset = 14695981039346656037
		prime  = 1099511628211
	)
	h := uint64(offset)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	return h
}
