package katzlm

// Binary persistence for the two map-backed, fixed-size-entry trie
// variants (C2DMapTrie, H2DMapTrie): a gob-encoded header (word index
// plus per-level bucket counts) followed by the raw probeTable bucket
// arrays, memory-mapped back in on load rather than deserialized
// entry-by-entry. Grounded verbatim on the teacher's
// Hashed.WriteBinary/unsafeParseBinary (hashed.go), which does the
// same thing for its xqwBuckets transition tables; generalized from
// "one buckets slice per state" to "one buckets slice per trie level",
// and from gob-encoding the vocabulary inline to gob-encoding whatever
// WordIndex implementation is in play (word indexes are themselves
// gob-friendly plain structs).
import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"reflect"
	"syscall"
	"unsafe"
)

const binaryMagic = "#katzlm.bin"

// binaryHeader is what gob encodes before the raw bucket bytes. The
// concrete WordIndex implementation must be registered with
// gob.Register by the caller if it is not one of this package's own
// variants (basic/counting/optimizing/hashing are registered in
// init()).
type binaryHeader struct {
	N          int
	CfgVariant TrieVariant
	Index      WordIndex
	Unigram    []Payload
	NumBuckets []int // per level (index 0 => level 2)
}

func init() {
	gob.Register(&basicWordIndex{})
	gob.Register(&countingWordIndex{})
	gob.Register(&optimizingWordIndex{})
	gob.Register(&hashingWordIndex{})
}

// bucketSource is implemented by trie variants whose per-level storage
// is a single flat []probeEntry slice, i.e. the ones this file knows
// how to memory-map.
type bucketSource interface {
	unigramPayloads() []Payload
	levelBuckets() []*probeTable
	setLevelBuckets(n int, cfg Config, unigram []Payload, buckets []*probeTable)
}

func (t *C2DMapTrie) unigramPayloads() []Payload   { return t.unigram.payloads }
func (t *C2DMapTrie) levelBuckets() []*probeTable  { return t.levels }
func (t *C2DMapTrie) setLevelBuckets(n int, cfg Config, unigram []Payload, buckets []*probeTable) {
	t.n, t.cfg, t.unigram.payloads, t.levels = n, cfg, unigram, buckets
	t.bitmaps = bitmapSet{enabled: cfg.useBitmapCache(), multiplier: cfg.BitmapBucketMultiplier}
}

func (t *H2DMapTrie) unigramPayloads() []Payload  { return t.unigram.payloads }
func (t *H2DMapTrie) levelBuckets() []*probeTable { return t.levels }
func (t *H2DMapTrie) setLevelBuckets(n int, cfg Config, unigram []Payload, buckets []*probeTable) {
	t.n, t.cfg, t.unigram.payloads, t.levels = n, cfg, unigram, buckets
	t.bitmaps = bitmapSet{enabled: cfg.useBitmapCache(), multiplier: cfg.BitmapBucketMultiplier}
}

// WriteBinary dumps m to path in the mmap-friendly format described
// above. m.Trie must implement bucketSource (C2DMapTrie or H2DMapTrie).
func (m *Model) WriteBinary(path string) (err error) {
	src, ok := m.Trie.(bucketSource)
	if !ok {
		return fmt.Errorf("katzlm: trie variant %v has no binary representation", m.cfg.TrieVariant)
	}
	w, err := os.Create(path)
	if err != nil {
		return err
	}
	defer w.Close()
	if _, err = w.Write([]byte(binaryMagic)); err != nil {
		return err
	}
	levels := src.levelBuckets()
	header := binaryHeader{N: m.N, CfgVariant: m.cfg.TrieVariant, Index: m.Index, Unigram: src.unigramPayloads(), NumBuckets: make([]int, len(levels))}
	for i, l := range levels {
		header.NumBuckets[i] = len(l.buckets)
	}
	var buf bytes.Buffer
	if err = gob.NewEncoder(&buf).Encode(header); err != nil {
		return err
	}
	headerLen := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(headerLen, uint64(buf.Len()))
	if _, err = w.Write(headerLen[:n]); err != nil {
		return err
	}
	if _, err = w.Write(buf.Bytes()); err != nil {
		return err
	}
	size := unsafe.Sizeof(probeEntry{})
	for _, l := range levels {
		bytesOf := sliceAsBytes(l.buckets, size)
		if _, err = w.Write(bytesOf); err != nil {
			return err
		}
	}
	return nil
}

// sliceAsBytes reinterprets a []probeEntry as a []byte without
// copying, matching the teacher's reflect.SliceHeader-based
// reinterpretation in Hashed.WriteBinary.
func sliceAsBytes(s []probeEntry, elemSize uintptr) []byte {
	if len(s) == 0 {
		return nil
	}
	hdr := (*reflect.SliceHeader)(unsafe.Pointer(&s))
	var out []byte
	outHdr := (*reflect.SliceHeader)(unsafe.Pointer(&out))
	outHdr.Data = hdr.Data
	outHdr.Len = int(uintptr(hdr.Len) * elemSize)
	outHdr.Cap = outHdr.Len
	return out
}

func bytesAsEntries(b []byte, elemSize uintptr) []probeEntry {
	if len(b) == 0 {
		return nil
	}
	hdr := (*reflect.SliceHeader)(unsafe.Pointer(&b))
	var out []probeEntry
	outHdr := (*reflect.SliceHeader)(unsafe.Pointer(&out))
	outHdr.Data = hdr.Data
	outHdr.Len = hdr.Len / int(elemSize)
	outHdr.Cap = outHdr.Len
	return out
}

// MappedModel is a Model backed by a read-only mmap of its binary
// file; Close must be called to unmap it.
type MappedModel struct {
	*Model
	mapped *MappedFile
}

// MappedFile is a simple read-only mmap handle, grounded on the
// teacher's MappedFile/OpenMappedFile (hashed.go).
type MappedFile struct {
	file *os.File
	data []byte
}

func openMappedFile(path string) (*MappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	data, err := syscall.Mmap(int(f.Fd()), 0, int(stat.Size()), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &MappedFile{file: f, data: data}, nil
}

func (f *MappedFile) Close() error {
	err1 := syscall.Munmap(f.data)
	err2 := f.file.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// ReadBinaryMapped loads a model previously written by WriteBinary,
// memory-mapping the raw bucket arrays rather than copying them.
func ReadBinaryMapped(path string, cfg Config) (*MappedModel, error) {
	mf, err := openMappedFile(path)
	if err != nil {
		return nil, err
	}
	raw := mf.data
	if len(raw) < len(binaryMagic) || string(raw[:len(binaryMagic)]) != binaryMagic {
		mf.Close()
		return nil, errors.New("katzlm: not a katzlm binary file")
	}
	read := len(binaryMagic)
	headerLen, n := binary.Uvarint(raw[read:])
	if n <= 0 {
		mf.Close()
		return nil, errors.New("katzlm: error reading header length")
	}
	read += n
	var header binaryHeader
	if err := gob.NewDecoder(bytes.NewReader(raw[read : read+int(headerLen)])).Decode(&header); err != nil {
		mf.Close()
		return nil, err
	}
	read += int(headerLen)
	size := unsafe.Sizeof(probeEntry{})
	levels := make([]*probeTable, len(header.NumBuckets))
	for i, nb := range header.NumBuckets {
		byteLen := nb * int(size)
		if read+byteLen > len(raw) {
			mf.Close()
			return nil, errors.New("katzlm: truncated binary file")
		}
		entries := bytesAsEntries(raw[read:read+byteLen], size)
		tbl := &probeTable{buckets: entries}
		for _, e := range entries {
			if e.used {
				tbl.numEntries++
			}
		}
		tbl.threshold = int(float64(nb) * 0.8)
		levels[i] = tbl
		read += byteLen
	}
	cfg.TrieVariant = header.CfgVariant
	var trie Trie
	switch header.CfgVariant {
	case C2DMap:
		t := NewC2DMapTrie(header.N, cfg)
		t.setLevelBuckets(header.N, cfg, header.Unigram, levels)
		trie = t
	case H2DMap:
		t := NewH2DMapTrie(header.N, cfg)
		t.setLevelBuckets(header.N, cfg, header.Unigram, levels)
		trie = t
	default:
		mf.Close()
		return nil, fmt.Errorf("katzlm: variant %v has no binary representation", header.CfgVariant)
	}
	m := &Model{Index: header.Index, Trie: trie, N: header.N, cfg: cfg}
	return &MappedModel{Model: m, mapped: mf}, nil
}

func (mm *MappedModel) Close() error { return mm.mapped.Close() }
