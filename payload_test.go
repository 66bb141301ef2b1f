package katzlm

import (
	"bytes"
	"math/rand"
	"sort"
	"testing"
)

// TestMGramIdRoundTrip checks pack(unpack(x)) == x per the redesign
// note "Byte-packed M-gram IDs... unit tests on pack(unpack(x)) == x".
func TestMGramIdRoundTrip(t *testing.T) {
	cases := [][]WordId{
		{0},
		{1, 2},
		{255, 256, 65535},
		{0, 0, 0, 0, 0},
		{1 << 20, 2, 1 << 30},
	}
	for _, ids := range cases {
		enc := EncodeMGramId(ids)
		dec := DecodeMGramId(enc, len(ids))
		for i := range ids {
			if dec[i] != ids[i] {
				t.Errorf("%v: round-trip mismatch at %d: got %d, want %d", ids, i, dec[i], ids[i])
			}
		}
	}
}

// TestMGramIdLexicographicOrder checks that, within a fixed type
// (i.e. all words needing the same byte widths), memcmp ordering of
// the encoded id matches numeric ordering of the m-gram tuple.
func TestMGramIdLexicographicOrder(t *testing.T) {
	// All single-byte words (< 256), so every id shares the same type
	// prefix and memcmp is a valid total order.
	var ids [][]WordId
	for a := WordId(0); a < 4; a++ {
		for b := WordId(0); b < 4; b++ {
			ids = append(ids, []WordId{a, b})
		}
	}
	r := rand.New(rand.NewSource(1))
	shuffled := append([][]WordId{}, ids...)
	r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	encoded := make([][]byte, len(shuffled))
	for i, g := range shuffled {
		encoded[i] = EncodeMGramId(g)
	}
	sort.Slice(encoded, func(i, j int) bool { return bytes.Compare(encoded[i], encoded[j]) < 0 })

	var sortedIds [][]WordId
	for _, e := range encoded {
		sortedIds = append(sortedIds, DecodeMGramId(e, 2))
	}
	for i := 1; i < len(sortedIds); i++ {
		prev, cur := sortedIds[i-1], sortedIds[i]
		if prev[0] > cur[0] || (prev[0] == cur[0] && prev[1] > cur[1]) {
			t.Fatalf("lexicographic order broken at %d: %v before %v", i, prev, cur)
		}
	}
}

func TestMGramIdDifferentByteWidths(t *testing.T) {
	ids := []WordId{0, 1 << 16, 1 << 24}
	enc := EncodeMGramId(ids)
	dec := DecodeMGramId(enc, len(ids))
	for i := range ids {
		if dec[i] != ids[i] {
			t.Errorf("word %d: got %d, want %d", i, dec[i], ids[i])
		}
	}
}
