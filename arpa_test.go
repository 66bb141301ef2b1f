package katzlm

import (
	"reflect"
	"testing"
)

// Test_lineSplit and Test_tokenSplit mirror the teacher's arpa_test.go
// table-driven style for its lexer helpers of the same names.
func Test_lineSplit(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  \\data\\  \n", `\data\`},
		{"\n\n-0.3\ta b\t-0.05\n", "-0.3\ta b\t-0.05"},
		{"\\end\\", `\end\`},
	}
	for _, c := range cases {
		_, got, err := lineSplit([]byte(c.in), true)
		if err != nil {
			t.Fatalf("lineSplit(%q): %v", c.in, err)
		}
		if string(got) != c.want {
			t.Errorf("lineSplit(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func Test_tokenSplit(t *testing.T) {
	tok, rest := tokenSplit([]byte("-0.3\ta b\t-0.05"))
	if tok != "-0.3" {
		t.Fatalf("first token = %q, want -0.3", tok)
	}
	tok, rest = tokenSplit(rest)
	if tok != "a" {
		t.Fatalf("second token = %q, want a", tok)
	}
	tok, rest = tokenSplit(rest)
	if tok != "b" {
		t.Fatalf("third token = %q, want b", tok)
	}
	tok, _ = tokenSplit(rest)
	if tok != "-0.05" {
		t.Fatalf("fourth token = %q, want -0.05", tok)
	}
}

func TestScanNgramCounts(t *testing.T) {
	counts, err := scanNgramCounts([]byte(sampleARPA))
	if err != nil {
		t.Fatal(err)
	}
	want := []int{4, 3, 1}
	if !reflect.DeepEqual(counts, want) {
		t.Errorf("counts = %v, want %v", counts, want)
	}
}

func TestScanNgramCountsSkipsHeaderComments(t *testing.T) {
	data := []byte("<header line>\n\\data\\\nngram 1=2\n\n\\1-grams:\n-0.1\tx\n-0.2\ty\n\\end\\\n")
	counts, err := scanNgramCounts(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(counts) != 1 || counts[0] != 2 {
		t.Errorf("counts = %v, want [2]", counts)
	}
}

func TestBuildFromARPADuplicateMGramLastWins(t *testing.T) {
	data := []byte(`\data\
ngram 1=2
ngram 2=1

\1-grams:
-1.0	<unk>
-0.1	a

\2-grams:
-0.5	a a	-0.1
-0.9	a a	-0.2

\end\
`)
	cfg := DefaultConfig()
	index := cfg.NewWordIndex()
	trie := newTrie(2, cfg)
	if err := BuildFromARPA(data, index, trie, cfg); err != nil {
		t.Fatal(err)
	}
	aId := index.GetWordId("a")
	p, ok := trie.GetMGramPayload([]WordId{aId, aId})
	if !ok {
		t.Fatal("expected a bigram payload for \"a a\"")
	}
	if p.LogProb != -0.9 {
		t.Errorf("LogProb = %g, want -0.9 (last-wins)", p.LogProb)
	}
}
