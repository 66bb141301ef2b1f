package katzlm

import "testing"

func TestBasicWordIndex(t *testing.T) {
	idx := NewBasicWordIndex()
	a := idx.RegisterWord("a")
	b := idx.RegisterWord("b")
	if a == b {
		t.Fatal("distinct tokens got the same id")
	}
	if idx.RegisterWord("a") != a {
		t.Fatal("re-registering a known token changed its id")
	}
	if idx.GetWordId("unseen") != UNKNOWN_WORD_ID {
		t.Fatal("unseen token did not resolve to UNKNOWN_WORD_ID")
	}
	if idx.Token(a) != "a" {
		t.Fatalf("Token(%d) = %q, want %q", a, idx.Token(a), "a")
	}
	if !idx.IsContinuous() {
		t.Fatal("basic word index should report continuous ids")
	}
}

// TestCountingWordIndexIsPermutation checks invariant 6: "Round-trip
// with the counting word index: ids are a permutation of 1..n_words."
func TestCountingWordIndexIsPermutation(t *testing.T) {
	idx := NewCountingWordIndex()
	words := []struct {
		tok   string
		count float32
	}{
		{"rare", 1},
		{"common", 10},
		{"medium", 5},
	}
	for _, w := range words {
		idx.RegisterWord(w.tok)
		idx.CountWord(w.tok, w.count)
	}
	idx.FinalizeCounts()

	seen := map[WordId]bool{}
	for _, w := range words {
		id := idx.GetWordId(w.tok)
		if id < 1 || int(id) > len(words) {
			t.Fatalf("GetWordId(%q) = %d, want an id in 1..%d", w.tok, id, len(words))
		}
		if seen[id] {
			t.Fatalf("id %d assigned twice", id)
		}
		seen[id] = true
	}
	if idx.NumWords() != len(words)+1 {
		t.Fatalf("NumWords() = %d, want %d", idx.NumWords(), len(words)+1)
	}
	// "common" has the highest count and must get the smallest
	// non-reserved id.
	if idx.GetWordId("common") != 1 {
		t.Errorf("GetWordId(common) = %d, want 1", idx.GetWordId("common"))
	}
	if idx.GetWordId("rare") != 3 {
		t.Errorf("GetWordId(rare) = %d, want 3", idx.GetWordId("rare"))
	}
}

func TestOptimizingWordIndex(t *testing.T) {
	idx := NewOptimizingWordIndex(NewBasicWordIndex(), 4.0)
	tokens := []string{"alpha", "beta", "gamma", "delta", "epsilon"}
	ids := make([]WordId, len(tokens))
	for i, tok := range tokens {
		ids[i] = idx.RegisterWord(tok)
	}
	idx.Finalize()
	for i, tok := range tokens {
		if got := idx.GetWordId(tok); got != ids[i] {
			t.Errorf("GetWordId(%q) = %d, want %d", tok, got, ids[i])
		}
	}
	if idx.GetWordId("never-seen") != UNKNOWN_WORD_ID {
		t.Error("unseen token after Finalize should resolve to UNKNOWN_WORD_ID")
	}
}

func TestHashingWordIndexNonContinuous(t *testing.T) {
	idx := NewHashingWordIndex()
	idx.RegisterWord("a")
	idx.RegisterWord("b")
	if idx.IsContinuous() {
		t.Fatal("hashing word index must report non-continuous ids")
	}
	if idx.GetWordId("a") == idx.GetWordId("b") {
		t.Fatal("distinct tokens collided")
	}
}
