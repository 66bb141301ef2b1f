package katzlm

import "fmt"

// FormatError reports a malformed `\data\` header found by
// scanNgramCounts, with the byte offset of the offending line.
// Failures in the per-line grammar that follows are stream.Run's own
// position-carrying errors, which BuildFromARPA wraps with fmt.Errorf
// rather than converting to a FormatError.
type FormatError struct {
	File   string
	Offset int64
	Reason string
}

func (e *FormatError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("katzlm: %s: offset %d: %s", e.File, e.Offset, e.Reason)
	}
	return fmt.Sprintf("katzlm: offset %d: %s", e.Offset, e.Reason)
}

// OverflowError reports that a level would hold more entries than its
// id space allows. basicWordIndex.RegisterWord raises it (through
// glog.Fatal) with Level 1 when the vocabulary would exceed the 32-bit
// WordId space; a count mismatch at any level is only a warning (see
// ngramEntries.checkCount) and never produces this error.
type OverflowError struct {
	Level    int
	Declared int
	Observed int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("katzlm: level %d: declared %d M-grams, observed at least %d", e.Level, e.Declared, e.Observed)
}
