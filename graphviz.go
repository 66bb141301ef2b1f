package katzlm

import (
	"fmt"
	"io"
)

// Graphviz writes a best-effort dot representation of m's unigram
// vocabulary and its bigram continuations (levels beyond 2 are omitted
// since a full dump of a realistic model is not something a human
// reader can usefully view). Grounded on the teacher's Model.Graphviz/
// Builder.Graphviz (basic.go), which dumped the whole FST; here
// generalized to dump what a trie-of-levels model can cheaply expose:
// one node per word, one edge per observed bigram labelled with its
// log-probability.
func (m *Model) Graphviz(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "digraph LM {"); err != nil {
		return err
	}
	for id := 0; id < m.Index.NumWords(); id++ {
		if _, err := fmt.Fprintf(w, "  n%d [label=%q];\n", id, m.Index.Token(WordId(id))); err != nil {
			return err
		}
	}
	if m.N >= 2 {
		for a := 0; a < m.Index.NumWords(); a++ {
			for b := 0; b < m.Index.NumWords(); b++ {
				if p, ok := m.Trie.GetMGramPayload([]WordId{WordId(a), WordId(b)}); ok {
					if _, err := fmt.Fprintf(w, "  n%d -> n%d [label=%q];\n", a, b, fmt.Sprintf("%.3g", p.LogProb)); err != nil {
						return err
					}
				}
			}
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}
