package recstore

// doUpdate implements spec.md §4.7. rh is the record currently
// holding key; it is known present by the time this is called.
func (s *Store) doUpdate(key []byte, rh *RecordHeader, newPayload []byte) error {
	needed := int64(dataRecordOverhead) + int64(len(newPayload))

	if needed <= int64(rh.dataCapacity) {
		return s.updateInPlace(rh, newPayload, needed)
	}
	return s.updateRelocate(rh, newPayload, needed)
}

// updateInPlace is Case A: the new payload fits in the record's
// existing capacity, so only its dataCount and payload CRC change.
func (s *Store) updateInPlace(rh *RecordHeader, payload []byte, needed int64) error {
	if err := writeDataRecord(s.f, rh.dataPointer, payload); err != nil {
		return s.fail(ioErr("update data", err))
	}

	crc := payloadCRC(payload, s.opts.PayloadCrcEnabled)
	hdr := rh.toOnDisk()
	hdr.dataCount = int32(needed)
	hdr.payloadCrc32 = crc

	key, _, err := readSlot(s.f, rh.indexPosition, s.header.MaxKeyLen())
	if err != nil {
		return s.fail(ioErr("update read slot", err))
	}
	// Single commit: capacity is unchanged, so no neighbour interaction.
	if err := writeSlot(s.f, rh.indexPosition, s.header.MaxKeyLen(), key, hdr); err != nil {
		return s.fail(ioErr("update commit", err))
	}

	rh.dataCount = int32(needed)
	rh.payloadCrc32 = crc
	return nil
}

// updateRelocate is Cases B/C: the new payload needs more capacity
// than the record currently has, so it is written to a fresh region
// (a donor gap if one fits, else appended) and the record's slot is
// rewritten to point at it. The record's old region is then R3-
// reclaimed by its former predecessor in pointer order, if it has one
// and it is not the donor.
func (s *Store) updateRelocate(rh *RecordHeader, payload []byte, needed int64) error {
	fileLength, err := s.f.Length()
	if err != nil {
		return s.fail(ioErr("update length", err))
	}

	var donor *RecordHeader
	var offset int64
	if g := findFreeGapExcept(s.idx, needed, rh); g != nil {
		donor = g
		offset = g.dataPointer + int64(g.dataCapacity) - needed
	} else {
		offset = fileLength
	}

	// R1: new data lands before the slot is repointed at it.
	if err := writeDataRecord(s.f, offset, payload); err != nil {
		return s.fail(ioErr("update relocate data", err))
	}

	crc := payloadCRC(payload, s.opts.PayloadCrcEnabled)
	newHdr := onDiskHeader{
		dataPointer:  offset,
		dataCapacity: int32(needed),
		dataCount:    int32(needed),
		payloadCrc32: crc,
	}

	key, _, err := readSlot(s.f, rh.indexPosition, s.header.MaxKeyLen())
	if err != nil {
		return s.fail(ioErr("update relocate read slot", err))
	}

	oldDataPointer := rh.dataPointer
	oldDataCapacity := rh.dataCapacity
	oldPrev := s.idx.PrevByPointer(rh)

	// The donor is shortened before the commit, as in doInsert, so it
	// never overlaps the relocated record on disk.
	if donor != nil {
		donor.dataCapacity -= int32(needed)
		if err := s.rewriteSlotFor(donor); err != nil {
			return s.fail(err)
		}
	}

	// R2: single commit.
	if err := writeSlot(s.f, rh.indexPosition, s.header.MaxKeyLen(), key, newHdr); err != nil {
		return s.fail(ioErr("update relocate commit", err))
	}

	s.idx.Relocate(rh, offset)
	rh.dataCapacity = int32(needed)
	rh.dataCount = int32(needed)
	rh.payloadCrc32 = crc

	// R3: reclaim the old region into the record that used to precede
	// it, if any. If there was none, or that record was the donor (whose
	// former tail now holds the relocated record), the space is simply
	// unreclaimed until a future mutation happens to absorb it.
	if oldPrev != nil && oldPrev != donor {
		oldPrev.dataCapacity = int32(oldDataPointer + int64(oldDataCapacity) - oldPrev.dataPointer)
		if err := s.rewriteSlotFor(oldPrev); err != nil {
			return s.fail(err)
		}
	}

	return nil
}
