package katzlm

import "math/bits"

// Payload is the per-M-gram record. BackOff is 0.0 when the ARPA file
// did not supply one; the top (N-th) level only ever carries LogProb
// (its BackOff is always left at the zero value and never consulted).
type Payload struct {
	LogProb float32
	BackOff float32
}

// MIN_LOG_PROB is the sentinel log10-probability used for
// UNKNOWN_WORD_ID's unigram when the ARPA file does not define "<unk>"
// explicitly.
const MIN_LOG_PROB float32 = -10.0

// wordIdBytes is the number of bytes a WordId occupies in full, i.e.
// sizeof(WordId). The byte M-gram id codec packs each word into the
// minimum whole number of bytes it actually needs, from 1 up to this
// bound.
const wordIdBytes = 4

// mgramIdByteLen returns how many bytes are needed to hold id without
// truncation: 1 for ids < 2^8, 2 for ids < 2^16, and so on up to
// wordIdBytes.
func mgramIdByteLen(id WordId) int {
	if id == 0 {
		return 1
	}
	n := (bits.Len32(uint32(id)) + 7) / 8
	if n < 1 {
		n = 1
	}
	if n > wordIdBytes {
		n = wordIdBytes
	}
	return n
}

// mgramTypeByteLen returns the number of bytes needed to encode, as a
// mixed-radix numeral of base wordIdBytes, how many bytes each of m
// word ids occupies: ceil(log2(wordIdBytes^m) / 8).
func mgramTypeByteLen(m int) int {
	bitsNeeded := 0
	for i := 0; i < m; i++ {
		bitsNeeded += bitLen(wordIdBytes)
	}
	return (bitsNeeded + 7) / 8
}

func bitLen(base int) int {
	n := 0
	for v := base - 1; v > 0; v >>= 1 {
		n++
	}
	if n == 0 {
		n = 1
	}
	return n
}

// EncodeMGramId packs ids into the byte M-gram id format of §4.2: a
// mixed-radix "type" prefix recording how many bytes each word id
// occupies, followed by each word id in exactly that many bytes
// (big-endian, so that lexicographic byte comparison within a single
// type matches numeric word-id order). Two m-grams with the same type
// prefix have the same total length, so memcmp of the full returned
// slice is a valid, total, length-free comparison across m-grams of
// the same order with the same per-word byte widths.
func EncodeMGramId(ids []WordId) []byte {
	m := len(ids)
	lens := make([]int, m)
	typeNumeral := 0
	mult := 1
	for i, id := range ids {
		l := mgramIdByteLen(id)
		lens[i] = l
		typeNumeral += (l - 1) * mult
		mult *= wordIdBytes
	}
	typeBytes := mgramTypeByteLen(m)
	total := 0
	for _, l := range lens {
		total += l
	}
	out := make([]byte, typeBytes+total)
	putUintBE(out[:typeBytes], uint64(typeNumeral))
	off := typeBytes
	for i, id := range ids {
		l := lens[i]
		putUintBE(out[off:off+l], uint64(id))
		off += l
	}
	return out
}

// DecodeMGramId is the inverse of EncodeMGramId for an m-gram of known
// order m.
func DecodeMGramId(data []byte, m int) []WordId {
	typeBytes := mgramTypeByteLen(m)
	typeNumeral := int(getUintBE(data[:typeBytes]))
	lens := make([]int, m)
	for i := 0; i < m; i++ {
		lens[i] = typeNumeral%wordIdBytes + 1
		typeNumeral /= wordIdBytes
	}
	ids := make([]WordId, m)
	off := typeBytes
	for i := 0; i < m; i++ {
		l := lens[i]
		ids[i] = WordId(getUintBE(data[off : off+l]))
		off += l
	}
	return ids
}

func putUintBE(b []byte, v uint64) {
	for i := len(b) - 1; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}

func getUintBE(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}
