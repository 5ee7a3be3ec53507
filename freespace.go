// FreeSpace derives, from MemIndex's dataPointer-ordered view, which
// record currently carries enough unused trailing capacity to satisfy
// a new allocation without growing the file (spec.md §4.4,
// find_free_gap).
package recstore

// gapAfter returns rh's own trailing slack: the bytes between its
// actual occupied length (dataCount) and its reserved capacity
// (dataCapacity). This, not the external distance to the next record,
// is what spec.md §4.6 step 3a carves an allocation from — the
// candidate's slot keeps pointing at rh.dataPointer, only
// rh.dataCapacity shrinks, so the bytes handed out must already lie
// inside rh's own reserved span. P3's non-overlap invariant guarantees
// rh's capacity span never reaches into its successor, so the external
// distance to the next record is always >= this value; measuring it
// directly here would let a record with a wide external gap but no
// internal slack qualify, and carving "needed" bytes out of its
// capacity-end would hand out offsets that fall inside its own live
// payload.
func gapAfter(rh *RecordHeader) int64 {
	return int64(rh.dataCapacity - rh.dataCount)
}

// findFreeGap scans records in ascending dataPointer order and returns
// the first one whose own trailing slack is >= neededBytes, so ties
// are broken by lowest dataPointer as spec.md §4.4 requires. Returns
// nil if no record has enough slack.
func findFreeGap(idx *MemIndex, neededBytes int64) *RecordHeader {
	return findFreeGapExcept(idx, neededBytes, nil)
}

// findFreeGapExcept is findFreeGap that never donates from except's own
// slack, used by update.go when except is the very record being
// relocated: donating from its own old slack would entangle the move
// with the reclamation of its old region.
func findFreeGapExcept(idx *MemIndex, neededBytes int64, except *RecordHeader) *RecordHeader {
	for rh := idx.FirstByPointer(); rh != nil; rh = idx.NextByPointer(rh) {
		if rh == except {
			continue
		}
		if gapAfter(rh) >= neededBytes {
			return rh
		}
	}
	return nil
}
