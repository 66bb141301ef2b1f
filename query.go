package katzlm

import "github.com/golang/glog"

// Query engine: Katz back-off over a loaded Model. Grounded on the
// teacher's Hashed.NextI (hashed.go), which walks a chain of
// back-off states accumulating weight until an explicit transition is
// found or the empty state is reached; generalized from a
// state-transition walk to a recursive walk over trie levels, since
// this model has no materialized back-off state graph, only per-level
// payloads.
//
// Two query modes, both documented in §4.6/§4.7:
//
//   - ConditionalLogProb(history, word) answers a single conditional
//     query log P(word | history), truncating history to the model's
//     (N-1)-word window.
//   - SentenceLogProb(tokens) answers the cumulative log-probability
//     of a full token sequence (including any "<s>"/"</s>" boundary
//     tokens the caller chooses to pass), by summing the conditional
//     log-probability of each token given everything before it.
//
// An out-of-vocabulary target word is not resolved by the standard
// recursive back-off chain: per the documented state machine's
// UnknownColumn state, it contributes only the immediately preceding
// word's own unigram back-off weight plus the unigram log-probability
// of UNKNOWN_WORD_ID -- not the accumulated back-off weight of the
// longest matching context.

// ConditionalLogProb returns log P(word | history) in log10, history
// ordered oldest-to-newest (history[len(history)-1] is the word
// immediately before word).
func (m *Model) ConditionalLogProb(history []WordId, word WordId) float32 {
	if word == UNKNOWN_WORD_ID {
		return m.unknownTargetLogProb(history)
	}
	ctx := history
	if max := m.N - 1; len(ctx) > max {
		ctx = ctx[len(ctx)-max:]
	}
	return m.backOffLogProb(ctx, word)
}

// unknownTargetLogProb implements the UnknownColumn state (§4.6): the
// contribution of an unknown target word is just the preceding word's
// own unigram back-off, not the full chain accumulated while matching
// a longer context.
func (m *Model) unknownTargetLogProb(history []WordId) float32 {
	unk := m.Trie.GetUnigramPayload(UNKNOWN_WORD_ID).LogProb
	if len(history) == 0 {
		return unk
	}
	prev := history[len(history)-1]
	return m.Trie.GetUnigramPayload(prev).BackOff + unk
}

// backOffLogProb is the Right/BackOff recursion: try the full (ctx,
// word) m-gram; on a miss, add ctx's own back-off weight and retry
// with ctx shortened by its leftmost word.
func (m *Model) backOffLogProb(ctx []WordId, word WordId) float32 {
	if m.cfg.SanityChecks {
		m.checkWordIdsInRange(ctx, word)
	}
	if len(ctx) == 0 {
		return m.Trie.GetUnigramPayload(word).LogProb
	}
	ids := make([]WordId, len(ctx)+1)
	copy(ids, ctx)
	ids[len(ctx)] = word
	level := len(ids)
	if level == m.N {
		if lp, ok := m.Trie.GetNGramLogProb(ids); ok {
			return lp
		}
	} else if p, ok := m.Trie.GetMGramPayload(ids); ok {
		return p.LogProb
	}
	return m.backOffWeight(ctx) + m.backOffLogProb(ctx[1:], word)
}

// checkWordIdsInRange is the Config.SanityChecks gate at the query
// engine's hot path (§9: "DO_SANITY_CHECKS ... a logging trait; keep
// the fast path branch-free when disabled"): a word id from a caller
// that never went through m.Index (e.g. a raw WordId built by hand)
// would silently look like a valid but wrong m-gram rather than fail
// loudly, so this traces it instead of leaving it to happen silently.
func (m *Model) checkWordIdsInRange(ctx []WordId, word WordId) {
	if !m.Index.IsContinuous() {
		// A hashing word index's ids are sparse by design (§4.1): a
		// valid id can exceed NumWords(), so the bound below would
		// misfire on every query.
		return
	}
	n := m.Index.NumWords()
	if int(word) >= n && word != UNKNOWN_WORD_ID {
		glog.Warningf("katzlm: query word id %d exceeds vocabulary size %d", word, n)
	}
	for _, w := range ctx {
		if int(w) >= n && w != UNKNOWN_WORD_ID {
			glog.Warningf("katzlm: query context word id %d exceeds vocabulary size %d", w, n)
		}
	}
}

// backOffWeight returns ctx's own back-off weight: the unigram
// BackOff for a single-word context, or the BackOff field of ctx's own
// m-gram payload (0 if ctx itself was never observed, i.e. the model
// has no opinion and back-off is free).
func (m *Model) backOffWeight(ctx []WordId) float32 {
	if len(ctx) == 1 {
		return m.Trie.GetUnigramPayload(ctx[0]).BackOff
	}
	if p, ok := m.Trie.GetMGramPayload(ctx); ok {
		return p.BackOff
	}
	return 0
}

// SentenceLogProb scores tokens as a whole, resolving each to a WordId
// via m.Index and summing the conditional log-probability of every
// token given everything before it. The first token contributes its
// own unigram/conditional probability with an empty history (callers
// that want a sentence-start convention should pass "<s>" as tokens[0]
// explicitly; this function does not insert one, per the Non-goal
// that the model core does not manage tokenization policy).
func (m *Model) SentenceLogProb(tokens []string) float32 {
	ids := make([]WordId, len(tokens))
	for i, tok := range tokens {
		ids[i] = m.Index.GetWordId(tok)
	}
	var total float32
	for i := range ids {
		total += m.ConditionalLogProb(ids[:i], ids[i])
	}
	return total
}

// LogProb answers a single conditional query over surface tokens:
// log P(tokens[len(tokens)-1] | tokens[:len(tokens)-1]).
func (m *Model) LogProb(tokens []string) float32 {
	if len(tokens) == 0 {
		return MIN_LOG_PROB
	}
	ids := make([]WordId, len(tokens)-1)
	for i, tok := range tokens[:len(tokens)-1] {
		ids[i] = m.Index.GetWordId(tok)
	}
	target := m.Index.GetWordId(tokens[len(tokens)-1])
	return m.ConditionalLogProb(ids, target)
}
