package recstore

// doRead implements spec.md §4.9. rh is the record currently holding
// key, known present by the time this is called.
func (s *Store) doRead(key []byte, rh *RecordHeader) ([]byte, error) {
	payload, err := readDataRecord(s.f, rh.dataPointer, rh.dataCount, rh.payloadCrc32, key)
	if err != nil {
		if _, corrupt := err.(*CorruptPayload); corrupt {
			return nil, s.fail(err)
		}
		return nil, s.fail(ioErr("read", err))
	}
	return payload, nil
}
