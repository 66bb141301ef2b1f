// Command score reads a corpus from stdin, one sentence per line, and
// reports its log-probability and perplexity under a katzlm binary
// model. Grounded on the teacher's cmd/score (score.go): same
// cpuprofile/memprofile/unk flags and VerboseScoreCorpus/
// SilentScoreCorpus split gated on glog.V(1), generalized from
// fslm.Hashed/fslm.Sorted's NextI walk to katzlm's
// Model.ConditionalLogProb per-token query.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/golang/glog"
	"github.com/kho/easy"
	"github.com/kho/katzlm"
)

func main() {
	var args struct {
		Model string `name:"model" usage:"katzlm binary model file"`
	}
	unkScore := flag.Float64("unk", float64(katzlm.MIN_LOG_PROB), "log10-probability charged for each out-of-vocabulary token, in place of the model's own <unk> unigram")
	cpuprofile := flag.String("cpuprofile", "", "path to write CPU profile")
	memprofile := flag.String("memprofile", "", "path to write memory profile")
	easy.ParseFlagsAndArgs(&args)

	if *cpuprofile != "" {
		w := easy.MustCreate(*cpuprofile)
		pprof.StartCPUProfile(w)
		defer func() {
			pprof.StopCPUProfile()
			w.Close()
		}()
	}
	if *memprofile != "" {
		defer func() {
			w := easy.MustCreate(*memprofile)
			pprof.WriteHeapProfile(w)
			w.Close()
		}()
	}

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	model, err := katzlm.ReadBinaryMapped(args.Model, katzlm.DefaultConfig())
	if err != nil {
		glog.Fatalf("loading %s: %v", args.Model, err)
	}
	defer model.Close()
	runtime.GC()
	runtime.ReadMemStats(&after)
	glog.Infof("LM memory overhead: %.2fMB", float64(after.Alloc-before.Alloc)/float64(1<<20))

	var (
		score               float64
		numWords, numSents  int
		numOOVs             int
	)
	scan := bufio.NewScanner(os.Stdin)
	for scan.Scan() {
		tokens := splitFields(scan.Text())
		if len(tokens) == 0 {
			continue
		}
		numSents++
		for i, tok := range tokens {
			numWords++
			id := wordId(model, tok)
			var lp float64
			if id == katzlm.UNKNOWN_WORD_ID {
				lp = *unkScore
				numOOVs++
			} else {
				lp = float64(model.ConditionalLogProb(wordIds(model, tokens[:i]), id))
			}
			score += lp
			if glog.V(1) {
				fmt.Printf("%s\t%g\t%g\n", tok, lp, score)
			}
		}
	}
	if err := scan.Err(); err != nil {
		glog.Fatal(err)
	}

	if numWords > 0 {
		fmt.Printf("%d sents, %d words, %d OOVs\n", numSents, numWords, numOOVs)
		fmt.Printf("logprob=%g ppl=%g ppl1=%g\n",
			score, math.Exp(-score/float64(numSents+numWords)*math.Log(10)),
			math.Exp(-score/float64(numWords)*math.Log(10)))
	}
}

func splitFields(line string) []string {
	var out []string
	start := -1
	for i, r := range line {
		if r == ' ' || r == '\t' {
			if start >= 0 {
				out = append(out, line[start:i])
				start = -1
			}
		} else if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, line[start:])
	}
	return out
}

func wordId(m *katzlm.MappedModel, tok string) katzlm.WordId {
	return m.Index.GetWordId(tok)
}

func wordIds(m *katzlm.MappedModel, toks []string) []katzlm.WordId {
	ids := make([]katzlm.WordId, len(toks))
	for i, t := range toks {
		ids[i] = wordId(m, t)
	}
	return ids
}
