package recstore

import "testing"

func TestGapAfterMeasuresInternalSlack(t *testing.T) {
	rh := &RecordHeader{dataPointer: 0, dataCapacity: 30, dataCount: 10, indexPosition: 0}
	if got := gapAfter(rh); got != 20 {
		t.Errorf("gapAfter = %d, want 20", got)
	}
}

func TestGapAfterZeroWhenCapacityFullyOccupied(t *testing.T) {
	rh := &RecordHeader{dataPointer: 0, dataCapacity: 10, dataCount: 10, indexPosition: 0}
	if got := gapAfter(rh); got != 0 {
		t.Errorf("gapAfter = %d, want 0", got)
	}
}

func TestFindFreeGapPicksLowestDataPointer(t *testing.T) {
	idx := newMemIndex(4)
	// Two records each with 20 bytes of internal slack; the one with
	// the lower dataPointer must win.
	a := &RecordHeader{dataPointer: 0, dataCapacity: 30, dataCount: 10, indexPosition: 0}
	b := &RecordHeader{dataPointer: 100, dataCapacity: 30, dataCount: 10, indexPosition: 1}
	idx.Insert([]byte("a"), a)
	idx.Insert([]byte("b"), b)

	got := findFreeGap(idx, 15)
	if got != a {
		t.Errorf("findFreeGap = %v, want a", got)
	}
}

func TestFindFreeGapReturnsNilWhenNoneQualify(t *testing.T) {
	idx := newMemIndex(4)
	a := &RecordHeader{dataPointer: 0, dataCapacity: 10, dataCount: 10, indexPosition: 0}
	idx.Insert([]byte("a"), a)

	if got := findFreeGap(idx, 1); got != nil {
		t.Errorf("findFreeGap = %v, want nil", got)
	}
}

func TestFindFreeGapExceptSkipsGivenRecord(t *testing.T) {
	idx := newMemIndex(4)
	a := &RecordHeader{dataPointer: 0, dataCapacity: 30, dataCount: 10, indexPosition: 0}
	b := &RecordHeader{dataPointer: 100, dataCapacity: 30, dataCount: 10, indexPosition: 1}
	idx.Insert([]byte("a"), a)
	idx.Insert([]byte("b"), b)

	// a has qualifying slack, but with a excluded only b's own slack is
	// a candidate.
	got := findFreeGapExcept(idx, 15, a)
	if got != b {
		t.Errorf("findFreeGapExcept(except=a) = %v, want b", got)
	}
}

// Pins down which quantity gapAfter measures: a carries internal slack
// even though b starts exactly where a's capacity ends (no external
// gap at all), while b itself sits far from c but has no slack of its
// own. Only a may qualify as a donor.
func TestGapAfterIsInternalSlackNotExternalDistance(t *testing.T) {
	idx := newMemIndex(4)
	a := &RecordHeader{dataPointer: 0, dataCapacity: 30, dataCount: 10, indexPosition: 0}
	b := &RecordHeader{dataPointer: 30, dataCapacity: 10, dataCount: 10, indexPosition: 1}
	c := &RecordHeader{dataPointer: 200, dataCapacity: 10, dataCount: 10, indexPosition: 2}
	idx.Insert([]byte("a"), a)
	idx.Insert([]byte("b"), b)
	idx.Insert([]byte("c"), c)

	if got := gapAfter(a); got != 20 {
		t.Errorf("gapAfter(a) = %d, want 20 (internal slack)", got)
	}
	if got := gapAfter(b); got != 0 {
		t.Errorf("gapAfter(b) = %d, want 0 despite the 160-byte external gap before c", got)
	}

	got := findFreeGap(idx, 20)
	if got != a {
		t.Errorf("findFreeGap = %v, want a (the only record with qualifying internal slack)", got)
	}
}
