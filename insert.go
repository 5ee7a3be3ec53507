package recstore

// doInsert implements spec.md §4.6. The key is known absent and
// within maxKeyLen by the time this is called (Store.Insert checks
// both).
func (s *Store) doInsert(key, payload []byte) error {
	needed := int64(dataRecordOverhead) + int64(len(payload))
	newSlot := int(s.header.NumRecords())

	if err := s.growIndexIfNeeded(newSlot); err != nil {
		return s.fail(err)
	}

	fileLength, err := s.f.Length()
	if err != nil {
		return s.fail(ioErr("insert length", err))
	}

	var offset int64
	var neighbor *RecordHeader
	if g := findFreeGap(s.idx, needed); g != nil {
		neighbor = g
		offset = g.dataPointer + int64(g.dataCapacity) - needed
	} else {
		offset = fileLength
	}

	// R1: data bytes land before anything points at them.
	if err := writeDataRecord(s.f, offset, payload); err != nil {
		return s.fail(ioErr("insert data", err))
	}

	crc := payloadCRC(payload, s.opts.PayloadCrcEnabled)
	hdr := onDiskHeader{
		dataPointer:  offset,
		dataCapacity: int32(needed),
		dataCount:    int32(needed),
		payloadCrc32: crc,
	}
	if err := writeSlot(s.f, newSlot, s.header.MaxKeyLen(), key, hdr); err != nil {
		return s.fail(ioErr("insert slot", err))
	}

	if neighbor != nil {
		neighbor.dataCapacity -= int32(needed)
		// The donor's on-disk capacity is shortened before the commit,
		// so a crash right after the commit never leaves the donor
		// overlapping the new record (recovery rejects overlaps).
		if err := s.rewriteSlotFor(neighbor); err != nil {
			return s.fail(err)
		}
	}

	// R2: single commit.
	if err := s.header.writeNumRecords(s.f, int32(newSlot)+1); err != nil {
		return s.fail(ioErr("insert commit", err))
	}

	rh := recordHeaderFromOnDisk(hdr, newSlot)
	s.idx.Insert(key, rh)

	return nil
}

// growIndexIfNeeded grows the index region by exactly one slot when
// slot newSlot does not yet fit before dataStartPtr, first relocating
// every record that starts before the new dataStartPtr to the end of
// the file (never to an offset below the new dataStartPtr).
// Order matters: each relocated record's slot pointer is committed
// before dataStartPtr itself, so a crash between the two leaves the
// old bytes unreferenced but never makes the index region overlap a
// still-live record (spec.md §4.6 ordering note).
func (s *Store) growIndexIfNeeded(newSlot int) error {
	slotSize := s.header.SlotSize()
	required := HeaderSize + slotSize*int64(newSlot+1)
	if required <= s.header.DataStartPtr() {
		return nil
	}

	newDataStartPtr := s.header.DataStartPtr() + slotSize

	for r0 := s.idx.FirstByPointer(); r0 != nil && r0.dataPointer < newDataStartPtr; r0 = s.idx.FirstByPointer() {
		key, hdr, err := readSlot(s.f, r0.indexPosition, s.header.MaxKeyLen())
		if err != nil {
			return ioErr("grow read r0 slot", err)
		}

		fileLength, err := s.f.Length()
		if err != nil {
			return ioErr("grow length", err)
		}
		dest := fileLength
		if dest < newDataStartPtr {
			dest = newDataStartPtr
		}

		buf, err := s.f.ReadExact(r0.dataPointer, int(r0.dataCapacity))
		if err != nil {
			return ioErr("grow read r0 data", err)
		}

		// R1: copy R0's bytes to their new home before anything
		// points at it.
		if err := s.f.Write(dest, buf); err != nil {
			return ioErr("grow write r0 data", err)
		}

		// R2 commit for R0's move.
		if err := writeDataPointerOnly(s.f, r0.indexPosition, s.header.MaxKeyLen(), key, hdr, dest); err != nil {
			return ioErr("grow commit r0 move", err)
		}
		s.idx.Relocate(r0, dest)
	}

	// R2 commit for index growth.
	if err := s.header.writeDataStartPtr(s.f, newDataStartPtr); err != nil {
		return ioErr("grow commit data start ptr", err)
	}
	return nil
}

// rewriteSlotFor rewrites rh's on-disk slot from its current in-memory
// state, keeping the key bytes already on disk. Used when only a
// neighbour's capacity changes: a donor shrinking before a commit, or a
// predecessor widening to absorb a vacated region.
func (s *Store) rewriteSlotFor(rh *RecordHeader) error {
	key, _, err := readSlot(s.f, rh.indexPosition, s.header.MaxKeyLen())
	if err != nil {
		return ioErr("rewrite slot read", err)
	}
	if err := writeSlot(s.f, rh.indexPosition, s.header.MaxKeyLen(), key, rh.toOnDisk()); err != nil {
		return ioErr("rewrite slot write", err)
	}
	return nil
}
