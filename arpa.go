package katzlm

// ARPA file parsing: a two-pass builder that reads the `\data\` counts
// declaration, then each `\L-grams:` section in turn, registering
// words and payloads into a Model under construction. Parsing itself
// is iteratee-based, following the teacher's approach (originally
// arpa.go's arpaTop/ngramSection/ngramEntries over github.com/kho/stream),
// generalized to also capture the per-level counts (the teacher only
// skipped them, since a Hashed model never pre-sizes anything) and to
// skip `<`-prefixed header comment lines some ARPA dumps carry before
// `\data\` (§6).

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/golang/glog"
	"github.com/kho/easy"
	"github.com/kho/stream"
)

// arpaBuilder accumulates ARPA file content into a Model's WordIndex
// and Trie. It requires two passes when the configured word index
// needs frequency counts up front (the counting variant and anything
// wrapping it): pass one registers every word and records each
// unigram's log-probability as its count, so FinalizeCounts can
// re-rank ids before pass two inserts any m-gram,
// since an m-gram's WordIds must be final once recorded in a trie.
type arpaBuilder struct {
	index    WordIndex
	trie     Trie
	cfg      Config
	counts   []int
	needsTwo bool
	pass     int // 1 or 2
}

func newArpaBuilder(index WordIndex, trie Trie, cfg Config) *arpaBuilder {
	return &arpaBuilder{index: index, trie: trie, cfg: cfg, needsTwo: wordIndexNeedsCounts(cfg.WordIndexVariant)}
}

func wordIndexNeedsCounts(variant string) bool {
	switch variant {
	case "counting", "optimizing-counting":
		return true
	default:
		return false
	}
}

// BuildFromARPA runs the builder over data, which must support being
// read multiple times (an in-memory buffer or a re-openable file); see
// LoadARPAFile for the file-backed case. The count declarations are
// always scanned first (cheaply, via scanNgramCounts) since every
// later stage needs them to pre-size its storage; a further full pass
// registering words (without inserting m-grams) runs first only when
// the configured word index needs frequency counts before it can
// assign final ids (the counting variant and anything wrapping it).
func BuildFromARPA(data []byte, index WordIndex, trie Trie, cfg Config) error {
	b := newArpaBuilder(index, trie, cfg)
	counts, err := scanNgramCounts(data)
	if err != nil {
		return fmt.Errorf("katzlm: ARPA counts: %w", err)
	}
	b.counts = counts
	if b.needsTwo {
		b.pass = 1
		if err := stream.Run(stream.EnumRead(bytes.NewReader(data), lineSplit), arpaTop{b}); err != nil {
			return fmt.Errorf("katzlm: ARPA word pass: %w", err)
		}
		index.FinalizeCounts()
	}
	b.pass = 2
	if len(counts) > 0 {
		index.Reserve(counts[0])
	}
	trie.PreAllocate(counts)
	if err := stream.Run(stream.EnumRead(bytes.NewReader(data), lineSplit), arpaTop{b}); err != nil {
		return fmt.Errorf("katzlm: ARPA insert pass: %w", err)
	}
	index.Finalize()
	trie.Finalize()
	return nil
}

// scanNgramCounts reads just the `\data\` section's "ngram L=K"
// declarations, skipping any `<`-prefixed header comment lines before
// it, so the caller can pre-size the word index and trie before the
// full stream.Run parse below. It is a plain line scan rather than an
// iteratee, since all it needs is to stop at the first "\L-grams:"
// header.
func scanNgramCounts(data []byte) ([]int, error) {
	var counts []int
	started := false
	offset := int64(0)
	for _, raw := range bytes.Split(data, []byte("\n")) {
		lineOffset := offset
		offset += int64(len(raw)) + 1
		line := bytes.TrimSpace(raw)
		if len(line) == 0 {
			continue
		}
		if !started {
			if line[0] == '<' {
				continue
			}
			if string(line) != `\data\` {
				return nil, &FormatError{Offset: lineOffset, Reason: `expected "\data\"`}
			}
			started = true
			continue
		}
		if line[0] == '\\' {
			break
		}
		var level, count int
		if _, err := fmt.Sscanf(string(line), "ngram %d=%d", &level, &count); err != nil {
			return nil, &FormatError{Offset: lineOffset, Reason: `expected "ngram L=K"`}
		}
		for len(counts) < level {
			counts = append(counts, 0)
		}
		counts[level-1] = count
	}
	if !started {
		return nil, &FormatError{Offset: offset, Reason: `expected "\data\"`}
	}
	return counts, nil
}

// readARPAFile opens path (transparently gzip-decompressing, per the
// teacher's easy.Open) and reads it fully into memory so it can be
// scanned twice.
func readARPAFile(path string) ([]byte, error) {
	in, err := easy.Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(in); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// arpaTop is the top-level iteratee: optional `<`-prefixed header
// lines, then `\data\`, the count declarations, each `\L-grams:`
// section, `\end\`.
type arpaTop struct{ b *arpaBuilder }

func (it arpaTop) Final() error { return stream.Match(`\data\`).Final() }
func (it arpaTop) Next(line []byte) (stream.Iteratee, bool, error) {
	if len(line) > 0 && line[0] == '<' {
		return it, true, nil
	}
	return stream.Seq{
		stream.Match(`\data\`),
		ngramCounts{it.b},
		stream.Star{countedSection{it.b}},
		stream.Match(`\end\`),
		stream.EOF,
	}, false, nil
}

// ngramCounts validates the "ngram L=K" lines of the `\data\` section
// inside the grammar, generalizing the teacher's skipNgramCounts. In
// the word pass (pass 1) it also records them into b.counts, which
// already holds the same values from scanNgramCounts; PreAllocate is
// sized from scanNgramCounts' result, not from this iteratee.
type ngramCounts struct{ b *arpaBuilder }

func (it ngramCounts) Final() error { return nil }
func (it ngramCounts) Next(line []byte) (stream.Iteratee, bool, error) {
	if len(line) == 0 || line[0] == '\\' {
		return nil, false, nil
	}
	var level, count int
	if _, err := fmt.Sscanf(string(line), "ngram %d=%d", &level, &count); err != nil {
		return nil, false, stream.ErrExpect(`"ngram L=K"`)
	}
	if it.b.pass == 1 {
		for len(it.b.counts) < level {
			it.b.counts = append(it.b.counts, 0)
		}
		it.b.counts[level-1] = count
	}
	return it, true, nil
}

// countedSection is the generalisation of the teacher's ngramSection:
// parses a "\L-grams:" header then dispatches to ngramEntries for that
// level.
type countedSection struct{ b *arpaBuilder }

func (it countedSection) Final() error { return stream.ErrExpect(`\N-grams: ...`) }
func (it countedSection) Next(line []byte) (stream.Iteratee, bool, error) {
	if len(line) == 0 || line[0] != '\\' || !bytes.HasSuffix(line, []byte("-grams:")) {
		return nil, false, stream.ErrExpect(`section header "\N-grams:"`)
	}
	level, err := strconv.Atoi(string(line[1 : len(line)-len("-grams:")]))
	if err != nil || level <= 0 {
		return nil, false, stream.ErrExpect(`positive integer in section header "\N-grams:"`)
	}
	return newNgramEntries(level, it.b), true, nil
}

type ngramEntries struct {
	b       *arpaBuilder
	level   int
	seen    int
	words   []string
	ids     []WordId
	seenSet map[uint64]bool // detects duplicate m-grams within this level, pass 2 only
}

func newNgramEntries(level int, b *arpaBuilder) *ngramEntries {
	e := &ngramEntries{b: b, level: level, words: make([]string, level), ids: make([]WordId, level)}
	if b.pass == 2 {
		e.seenSet = map[uint64]bool{}
	}
	return e
}

func (it *ngramEntries) Final() error { return nil }
func (it *ngramEntries) Next(line []byte) (stream.Iteratee, bool, error) {
	if len(line) == 0 || line[0] == '\\' {
		it.checkCount()
		return nil, false, nil
	}
	logProb, backOff, err := it.setParts(line)
	if err != nil {
		return nil, false, err
	}
	it.commit(logProb, backOff)
	it.seen++
	return it, true, nil
}

// checkCount reports a §4.5/§7 count-mismatch as a Warning, never
// fatal, since the trie has already grown to accommodate the extra
// entries (or simply holds fewer than declared).
func (it *ngramEntries) checkCount() {
	if it.b.pass != 2 {
		return
	}
	declared := 0
	if it.level-1 < len(it.b.counts) {
		declared = it.b.counts[it.level-1]
	}
	if it.seen != declared {
		glog.Warningf("%d-gram count mismatch: header declared %d, found %d", it.level, declared, it.seen)
	}
}

func (it *ngramEntries) setParts(line []byte) (logProb, backOff float32, err error) {
	x, xs := tokenSplit(line)
	if x == "" {
		return 0, 0, stream.ErrExpect("log-probability")
	}
	f, err := strconv.ParseFloat(x, 32)
	if err != nil {
		return 0, 0, err
	}
	logProb = float32(f)
	for i := 0; i < it.level; i++ {
		x, xs = tokenSplit(xs)
		if x == "" {
			return 0, 0, stream.ErrExpect(fmt.Sprintf("%d word(s)", it.level))
		}
		it.words[i] = x
	}
	x, xs = tokenSplit(xs)
	if x == "" {
		backOff = 0
	} else if f, err := strconv.ParseFloat(x, 32); err == nil {
		backOff = float32(f)
	} else {
		return 0, 0, err
	}
	if len(xs) != 0 {
		return 0, 0, stream.ErrExpect("end of line")
	}
	return logProb, backOff, nil
}

func (it *ngramEntries) commit(logProb, backOff float32) {
	b := it.b
	for i, w := range it.words {
		if b.pass == 1 {
			b.index.RegisterWord(w)
			if it.level == 1 {
				b.index.CountWord(w, logProb)
			}
			continue
		}
		// RegisterWord is idempotent: for a needsTwo index every
		// word here was already registered (and possibly re-ranked
		// by FinalizeCounts) in pass 1, so this just looks its final
		// id up; for a single-pass index (basic, optimizing-basic,
		// hashing) this is the only place a word's id is ever
		// assigned.
		it.ids[i] = b.index.RegisterWord(w)
	}
	if b.pass == 1 {
		return
	}
	if b.cfg.SanityChecks && it.level > 1 && it.words[it.level-1] == "<s>" {
		glog.Warningf("%d-gram %v ends in the sentence-start token; §3 requires <s> never be the last word of an m-gram", it.level, it.words)
	}
	logProb *= float32(b.cfg.LMWeight)
	if it.seenSet != nil {
		key := uint64(contextIdOf(it.ids))
		if it.seenSet[key] {
			glog.Warningf("duplicate %d-gram %v, last occurrence wins", it.level, it.words)
		}
		it.seenSet[key] = true
	}
	if it.level == 1 {
		b.trie.AddUnigram(it.ids[0], Payload{LogProb: logProb, BackOff: backOff})
		return
	}
	if it.level == len(b.counts) {
		b.trie.AddNGram(it.ids, logProb)
		return
	}
	b.trie.AddMGram(it.ids, Payload{LogProb: logProb, BackOff: backOff})
}

// Low-level lexer, identical in shape to the teacher's lineSplit/
// tokenSplit (arpa.go), which trims ARPA's mix of tab- and
// space-separated fields and tolerates blank lines between sections.

func isSpace(b byte) bool {
	switch b {
	case '\t', '\v', '\f', '\r', ' ':
		return true
	default:
		return false
	}
}

func lineSplit(data []byte, atEOF bool) (int, []byte, error) {
	l, r, n := -1, -1, 0
	for i, b := range data {
		if !isSpace(b) && b != '\n' {
			l = i
			break
		}
	}
	if l < 0 {
		return len(data), nil, nil
	}
	for i, b := range data[l+1:] {
		if b == '\n' {
			r, n = l+i, l+i+2
			break
		}
	}
	if r < 0 {
		if !atEOF {
			return l, nil, nil
		}
		r, n = len(data)-1, len(data)
	}
	for isSpace(data[r]) {
		r--
	}
	return n, data[l : r+1], nil
}

func tokenSplit(line []byte) (string, []byte) {
	r := -1
	for i, b := range line {
		if isSpace(b) {
			r = i
			break
		}
	}
	if r < 0 {
		r = len(line)
	}
	token := string(line[:r])
	for i, b := range line[r:] {
		if !isSpace(b) {
			return token, line[r+i:]
		}
	}
	return token, nil
}
