package recstore

// doDelete implements spec.md §4.8. rh is the record currently
// holding key, known present by the time this is called.
func (s *Store) doDelete(key []byte, rh *RecordHeader) error {
	slot := rh.indexPosition

	// Step 1: give R's data capacity away. Truncating the file takes
	// priority over absorbing into a predecessor: if R is the physical
	// tail of the data region, shrinking fileLength reclaims the space
	// outright, whereas handing it to prev would only turn it into
	// slack that a future mutation may or may not ever reuse.
	truncated := false
	if s.idx.NextByPointer(rh) == nil {
		fileLength, err := s.f.Length()
		if err != nil {
			return s.fail(ioErr("delete length", err))
		}
		if rh.dataPointer+int64(rh.dataCapacity) == fileLength {
			if err := s.f.SetLength(rh.dataPointer); err != nil {
				return s.fail(ioErr("delete truncate", err))
			}
			truncated = true
		}
	}
	if !truncated {
		if prev := s.idx.PrevByPointer(rh); prev != nil {
			prev.dataCapacity = int32(rh.dataPointer + int64(rh.dataCapacity) - prev.dataPointer)
			// Single commit for prev.
			if err := s.rewriteSlotFor(prev); err != nil {
				return s.fail(err)
			}
		}
		// Else: R is the first live record and others follow it; its
		// space is simply unreclaimed until a future mutation absorbs it.
	}

	lastSlot := int(s.header.NumRecords()) - 1
	var moved *RecordHeader
	if slot != lastSlot {
		movedKey, movedHdr, err := readSlot(s.f, lastSlot, s.header.MaxKeyLen())
		if err != nil {
			return s.fail(ioErr("delete read last slot", err))
		}
		// Step 2: one CRC-atomic write. A crash that tears this
		// specific write corrupts slot `slot` in a way recovery
		// cannot repair, even though numRecords has not moved yet
		// (spec.md §4.8) — a narrow, accepted crash window unique to
		// delete, since it is the only mutation that overwrites a
		// slot that was already live.
		if err := writeSlot(s.f, slot, s.header.MaxKeyLen(), movedKey, movedHdr); err != nil {
			return s.fail(ioErr("delete move slot", err))
		}
		moved = s.idx.AtSlot(lastSlot)
	}

	// Step 3: commit.
	if err := s.header.writeNumRecords(s.f, int32(lastSlot)); err != nil {
		return s.fail(ioErr("delete commit", err))
	}

	// Step 4: update MemIndex.
	s.idx.Remove(key, rh)
	if moved != nil {
		s.idx.MoveSlot(moved, slot)
	}

	return nil
}
