package katzlm

import "testing"

// TestBitmapHashCacheNoFalseNegatives checks invariant 2: "For every
// inserted M-gram g, if the bitmap cache says absent it is truly
// absent (no false negatives)."
func TestBitmapHashCacheNoFalseNegatives(t *testing.T) {
	c := NewBitmapHashCache(100, 20.0)
	hashes := make([]uint64, 0, 100)
	for i := uint64(0); i < 100; i++ {
		h := ctxHash(i)
		hashes = append(hashes, h)
		c.Add(h)
	}
	for _, h := range hashes {
		if !c.MayContain(h) {
			t.Fatalf("hash %d: false negative after Add", h)
		}
	}
}

func TestBitmapHashCacheSizing(t *testing.T) {
	c := NewBitmapHashCache(10, 20.0)
	if c.size != 256 { // nextPow2(20*10) = nextPow2(200) = 256
		t.Errorf("size = %d, want 256", c.size)
	}
}

func TestBitmapSetDisabledAlwaysDefers(t *testing.T) {
	var s bitmapSet
	s.enabled = false
	if !s.mayContain(2, []WordId{1, 2}) {
		t.Fatal("a disabled bitmap set must always defer to the trie")
	}
}
