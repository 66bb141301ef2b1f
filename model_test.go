package katzlm

import (
	"math"
	"path/filepath"
	"testing"
)

func TestLoadARPA(t *testing.T) {
	cfg := DefaultConfig()
	m, err := LoadARPA([]byte(sampleARPA), 3, cfg)
	if err != nil {
		t.Fatal(err)
	}
	// <unk>, <s>, a, b from the unigrams, plus </s>, which only appears
	// in the bigram "b </s>" but is still registered.
	if m.Index.NumWords() != 5 {
		t.Errorf("NumWords() = %d, want 5", m.Index.NumWords())
	}
	got := m.SentenceLogProb(splitSpace("<s> a b"))
	if math.Abs(float64(got-(-0.9))) > floatTol {
		t.Errorf("got %g, want -0.9", got)
	}
}

// TestIdempotence checks invariant 5: two independent loads of the
// same ARPA into the same variant yield identical query results.
func TestIdempotence(t *testing.T) {
	cfg := DefaultConfig()
	m1, err := LoadARPA([]byte(sampleARPA), 3, cfg)
	if err != nil {
		t.Fatal(err)
	}
	m2, err := LoadARPA([]byte(sampleARPA), 3, cfg)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range sampleCases {
		tokens := splitSpace(c.sent)
		g1 := m1.SentenceLogProb(tokens)
		g2 := m2.SentenceLogProb(tokens)
		if g1 != g2 {
			t.Errorf("%q: first load %g != second load %g", c.sent, g1, g2)
		}
	}
}

func TestWriteReadBinaryRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TrieVariant = C2DMap
	m, err := LoadARPA([]byte(sampleARPA), 3, cfg)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "model.bin")
	if err := m.WriteBinary(path); err != nil {
		t.Fatal(err)
	}
	mapped, err := ReadBinaryMapped(path, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer mapped.Close()
	for _, c := range sampleCases {
		tokens := splitSpace(c.sent)
		got := mapped.SentenceLogProb(tokens)
		if math.Abs(float64(got-c.want)) > floatTol {
			t.Errorf("%q: got %g, want %g", c.sent, got, c.want)
		}
	}
}

func TestLMWeightScalesLogProbOnly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LMWeight = 2.0
	m, err := LoadARPA([]byte(sampleARPA), 3, cfg)
	if err != nil {
		t.Fatal(err)
	}
	// unigram "a" has log-prob -0.4 and back-off -0.20: only the
	// log-prob should be scaled by lm_weight, per the documented open
	// question (a).
	aId := m.Index.GetWordId("a")
	p := m.Trie.GetUnigramPayload(aId)
	if math.Abs(float64(p.LogProb-(-0.8))) > floatTol {
		t.Errorf("scaled LogProb = %g, want -0.8", p.LogProb)
	}
	if math.Abs(float64(p.BackOff-(-0.20))) > floatTol {
		t.Errorf("BackOff = %g, want untouched -0.20", p.BackOff)
	}
}
