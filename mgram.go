package katzlm

// ContextId summarises a M-gram prefix for the context-keyed trie
// variants (C2D map/hybrid, C2W array, W2C hybrid/array). It is derived, never stored
// standalone: two distinct prefixes must not collide within the same
// level, which the Szudzik pairing below guarantees (it is a bijection
// between pairs of uint32 and a sub-range of uint64).
type ContextId uint64

// szudzik computes the Szudzik pairing of a and b: a bijective mapping
// from N x N onto N that keeps small inputs close together. Used to
// fold a word id into a running context id one step at a time.
func szudzik(a, b uint64) uint64 {
	if a >= b {
		return a*a + a + b
	}
	return a + b*b
}

// PairContext folds the next word of a prefix into prevCtx, producing
// the context id of the extended prefix. For a single-word prefix
// (w1), pass prevCtx = uint64(w1's own id) as the base (see
// contextIdOf below); it is then paired again for every following
// word.
func PairContext(prevCtx ContextId, word WordId) ContextId {
	return ContextId(szudzik(uint64(prevCtx), uint64(word)))
}

// contextIdOf computes the context id of the prefix ids[0:len(ids)] by
// recursively pairing starting from the head word, per §3's Invariants
// ("ContextIds are computed by the pair-combine function chosen by the
// trie variant ... Szudzik pairing for C2D map trie").
func contextIdOf(ids []WordId) ContextId {
	if len(ids) == 0 {
		return 0
	}
	ctx := ContextId(ids[0])
	for _, w := range ids[1:] {
		ctx = PairContext(ctx, w)
	}
	return ctx
}

// mgramHash combines word ids into a 64-bit hash for the bitmap cache
// and the H2D trie. It need not be invertible, only well distributed
// and cheap; it reuses the word-id fast-hash mix from the probing
// tables (see probing.go) folded across the m-gram's words.
func mgramHash(ids []WordId) uint64 {
	h := uint64(1469598103934665603) // FNV offset basis, arbitrary seed
	for _, w := range ids {
		h ^= uint64(w)
		h *= 1099511628211
		h = wordIdHash(WordId(h)) ^ h
	}
	return h
}
