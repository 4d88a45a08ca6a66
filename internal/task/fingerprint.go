package task

import (
	"slices"
	"strings"
)

// Fingerprint is the canonical identity of a Record. Two records are
// duplicates iff their fingerprints are equal.
type Fingerprint string

// FingerprintOf sorts a copy of r by parameter name using plain string
// comparison and encodes the result. Stored order and key positions play no
// part, so a record keeps its fingerprint when key positions shift.
func FingerprintOf(r Record) Fingerprint {
	sorted := r.Clone()
	slices.SortStableFunc(sorted, func(a, b Param) int {
		return strings.Compare(a.Name, b.Name)
	})
	return Fingerprint(EncodeRecord(sorted))
}

// FingerprintSet is a set of fingerprints used for deduplication.
type FingerprintSet map[Fingerprint]struct{}

// Add inserts the fingerprint of r and reports whether it was new.
func (s FingerprintSet) Add(r Record) bool {
	fp := FingerprintOf(r)
	if _, ok := s[fp]; ok {
		return false
	}
	s[fp] = struct{}{}
	return true
}

// Contains reports whether a record with the same fingerprint as r is in s.
func (s FingerprintSet) Contains(r Record) bool {
	_, ok := s[FingerprintOf(r)]
	return ok
}
