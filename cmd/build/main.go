// Command build compiles an ARPA language model file into a katzlm
// binary model, choosing the word index and trie variant via flags.
// Grounded on the teacher's cmd/compile (compile.go), which reads an
// ARPA file from stdin and gob-encodes a *fslm.Hashed to stdout;
// generalized here to a named input/output file pair (since the
// binary format is mmap-oriented, not a single gob blob) and to
// expose the variant-selection flags SPEC_FULL.md's §6 configuration
// table calls for.
package main

import (
	"flag"

	"github.com/golang/glog"
	"github.com/kho/easy"
	"github.com/kho/katzlm"
)

func main() {
	var args struct {
		ARPA  string `name:"arpa" usage:"input ARPA file (may be gzip-compressed)"`
		Model string `name:"model" usage:"output katzlm binary model file"`
	}
	order := flag.Int("order", 3, "model order N")
	trieVariant := flag.String("trie_variant", "c2d-map", "trie storage variant: c2d-map, c2d-hybrid, c2w-array, w2c-hybrid, w2c-array, g2d-map, h2d-map")
	wordIndex := flag.String("word_index", "basic", "word index variant: basic, counting, optimizing-basic, optimizing-counting, hashing")
	lmWeight := flag.Float64("lm_weight", 1.0, "scale factor applied to every log-probability at load time")
	bitmapMultiplier := flag.Float64("bitmap_bucket_multiplier", 0, "override the bitmap hash cache's bucket multiplier (<=0 keeps the configuration default of 20)")
	easy.ParseFlagsAndArgs(&args)

	variant, err := katzlm.ParseTrieVariant(*trieVariant)
	if err != nil {
		glog.Fatal(err)
	}

	cfg := katzlm.DefaultConfig()
	cfg.TrieVariant = variant
	cfg.WordIndexVariant = *wordIndex
	cfg.LMWeight = *lmWeight
	if *bitmapMultiplier > 0 {
		cfg.BitmapBucketMultiplier = *bitmapMultiplier
	}

	model, err := katzlm.LoadARPAFile(args.ARPA, *order, cfg)
	if err != nil {
		glog.Fatalf("loading %s: %v", args.ARPA, err)
	}
	glog.Infof("loaded %s: %d words, order %d, trie variant %s", args.ARPA, model.Index.NumWords(), model.N, variant)

	if err := model.WriteBinary(args.Model); err != nil {
		glog.Fatalf("writing %s: %v", args.Model, err)
	}
}
