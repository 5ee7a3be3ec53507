// Open-time validation and recovery, spec.md §4.10.
package recstore

import "fmt"

func (s *Store) recover() error {
	h, err := readHeader(s.f)
	if err != nil {
		return err
	}

	fileLength, err := s.f.Length()
	if err != nil {
		return ioErr("recover length", err)
	}
	if h.DataStartPtr() > fileLength {
		return fmt.Errorf("%w: dataStartPtr beyond file length", ErrFormatInvalid)
	}

	slotSize := h.SlotSize()
	minSlotsForHeader := (h.DataStartPtr() - HeaderSize) / slotSize
	if HeaderSize+slotSize*minSlotsForHeader != h.DataStartPtr() {
		return fmt.Errorf("%w: dataStartPtr not slot-aligned", ErrFormatInvalid)
	}

	idx := newMemIndex(int(h.NumRecords()))

	for i := 0; i < int(h.NumRecords()); i++ {
		key, onDisk, err := readSlot(s.f, i, h.MaxKeyLen())
		if err != nil {
			if _, ok := err.(*CorruptSlot); ok {
				return err
			}
			return ioErr("recover read slot", err)
		}

		if _, exists := idx.Get(key); exists {
			return fmt.Errorf("%w: duplicate key in slot %d", ErrInvariantViolation, i)
		}

		rh := recordHeaderFromOnDisk(onDisk, i)
		if err := validateRecordBounds(rh, h, fileLength); err != nil {
			return err
		}

		idx.Insert(append([]byte(nil), key...), rh)
	}

	if err := validateNoOverlap(idx, h); err != nil {
		return err
	}

	s.header = h
	s.idx = idx
	return nil
}

func validateRecordBounds(rh *RecordHeader, h *Header, fileLength int64) error {
	if rh.dataPointer < h.DataStartPtr() {
		return fmt.Errorf("%w: slot %d dataPointer before data region", ErrInvariantViolation, rh.indexPosition)
	}
	if rh.dataPointer+int64(rh.dataCapacity) > fileLength {
		return fmt.Errorf("%w: slot %d data region beyond file length", ErrInvariantViolation, rh.indexPosition)
	}
	if rh.dataCount < 0 || rh.dataCount > rh.dataCapacity {
		return fmt.Errorf("%w: slot %d dataCount out of bounds", ErrInvariantViolation, rh.indexPosition)
	}
	return nil
}

func validateNoOverlap(idx *MemIndex, h *Header) error {
	first := idx.FirstByPointer()
	if first == nil {
		return nil
	}
	if first.dataPointer < h.DataStartPtr() {
		return fmt.Errorf("%w: first record starts before data region", ErrInvariantViolation)
	}

	for rh := first; rh != nil; rh = idx.NextByPointer(rh) {
		next := idx.NextByPointer(rh)
		if next == nil {
			continue
		}
		if rh.dataPointer+int64(rh.dataCapacity) > next.dataPointer {
			return fmt.Errorf("%w: records at slots %d and %d overlap", ErrInvariantViolation, rh.indexPosition, next.indexPosition)
		}
	}
	return nil
}
