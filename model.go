package katzlm

import "github.com/golang/glog"

// Model is a fully loaded language model: a word index, a trie of the
// configured variant, and the order N. Once LoadARPA/LoadARPAFile
// returns, a Model is read-only and safe for concurrent Query calls
// (§9's Non-goal: no mutation after load, no thread-safe ingestion).
// Grounded on the teacher's Hashed/Sorted types (hashed.go, sorted.go),
// which likewise bundle a vocabulary with a transition table behind a
// single handle; generalized here to hold a Trie interface value
// instead of one hard-coded storage shape.
type Model struct {
	Index WordIndex
	Trie  Trie
	N     int
	cfg   Config
}

// NewModel constructs an empty Model of order n for the given
// configuration, ready to be filled in by BuildFromARPA.
func NewModel(n int, cfg Config) *Model {
	if n < 1 {
		n = 1
	}
	if n > N_MAX {
		glog.Fatalf("katzlm: model order %d exceeds N_MAX=%d", n, N_MAX)
	}
	return &Model{Index: cfg.NewWordIndex(), Trie: newTrie(n, cfg), N: n, cfg: cfg}
}

func newTrie(n int, cfg Config) Trie {
	switch cfg.TrieVariant {
	case C2DMap:
		return NewC2DMapTrie(n, cfg)
	case C2DHybrid:
		return NewC2DHybridTrie(n, cfg)
	case C2WArray:
		return NewC2WArrayTrie(n, cfg)
	case W2CHybrid:
		return NewW2CHybridTrie(n, cfg)
	case W2CArray:
		return NewW2CArrayTrie(n, cfg)
	case G2DMap:
		return NewG2DMapTrie(n, cfg)
	case H2DMap:
		return NewH2DMapTrie(n, cfg)
	default:
		glog.Fatalf("katzlm: unknown trie variant %v", cfg.TrieVariant)
		return nil
	}
}

// requiresContinuousIndex is implemented by trie variants that need
// the word index's ids to densely cover 0..NumWords()-1 (the
// word-to-context variants index an array by head word id).
type requiresContinuousIndex interface {
	requiresContinuousWordIndex() bool
}

// LoadARPA builds a Model of order n from an in-memory ARPA file.
func LoadARPA(data []byte, n int, cfg Config) (*Model, error) {
	m := NewModel(n, cfg)
	if err := BuildFromARPA(data, m.Index, m.Trie, cfg); err != nil {
		return nil, err
	}
	if v, ok := m.Trie.(requiresContinuousIndex); ok && v.requiresContinuousWordIndex() && !m.Index.IsContinuous() {
		glog.Fatalf("katzlm: trie variant %v requires a continuous word index", cfg.TrieVariant)
	}
	return m, nil
}

// LoadARPAFile builds a Model of order n from the ARPA file at path
// (transparently gzip-decompressed via easy.Open, per the ambient
// stack).
func LoadARPAFile(path string, n int, cfg Config) (*Model, error) {
	data, err := readARPAFile(path)
	if err != nil {
		return nil, err
	}
	return LoadARPA(data, n, cfg)
}
