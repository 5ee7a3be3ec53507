// DataRecord codec and the in-memory RecordHeader tuple MemIndex keys
// its two views on.
package recstore

import "hash/crc32"

// RecordHeader is the in-memory tuple MemIndex stores per live key
// (spec.md §2 "RecordHeader (in-memory)"). indexPosition is the slot
// number that currently holds this record's key and on-disk header;
// pointerNode is the skip list node ordering this record by
// dataPointer, held directly so insert/update/delete can splice the
// ordered view in O(log n) but navigate from an already-found record
// in O(1) (see skiplist.go).
type RecordHeader struct {
	dataPointer   int64
	dataCapacity  int32
	dataCount     int32
	payloadCrc32  uint32
	indexPosition int

	pointerNode *skipNode[int64, *RecordHeader]
}

func (r *RecordHeader) toOnDisk() onDiskHeader {
	return onDiskHeader{
		dataPointer:  r.dataPointer,
		dataCapacity: r.dataCapacity,
		dataCount:    r.dataCount,
		payloadCrc32: r.payloadCrc32,
	}
}

func recordHeaderFromOnDisk(h onDiskHeader, slotNum int) *RecordHeader {
	return &RecordHeader{
		dataPointer:   h.dataPointer,
		dataCapacity:  h.dataCapacity,
		dataCount:     h.dataCount,
		payloadCrc32:  h.payloadCrc32,
		indexPosition: slotNum,
	}
}

// dataRecordOverhead is the payloadLen prefix width; dataCount is
// always payloadLen + dataRecordOverhead (spec.md §4.6 step 1).
const dataRecordOverhead = 4

// writeDataRecord writes payloadLen‖payload at offset. It does not
// zero any padding bytes beyond payload: those are undefined per
// spec.md §6.1 and are never read back (dataCount bounds every future
// read of this record).
func writeDataRecord(f FileOps, offset int64, payload []byte) error {
	buf := make([]byte, dataRecordOverhead+len(payload))
	putI32(buf, int32(len(payload)))
	copy(buf[dataRecordOverhead:], payload)
	return f.Write(offset, buf)
}

// readDataRecord reads a record's declared payloadLen at offset and
// the following payloadLen bytes, verifying payloadLen+4 == dataCount
// and, when payloadCrc32 is nonzero, the payload CRC. A mismatch on
// either check is reported as *CorruptPayload.
func readDataRecord(f FileOps, offset int64, dataCount int32, expectCRC uint32, key []byte) ([]byte, error) {
	lenBuf, err := f.ReadExact(offset, dataRecordOverhead)
	if err != nil {
		return nil, err
	}
	payloadLen := getI32(lenBuf)
	if payloadLen < 0 || int64(dataRecordOverhead)+int64(payloadLen) != int64(dataCount) {
		return nil, &CorruptPayload{Key: key}
	}

	payload, err := f.ReadExact(offset+dataRecordOverhead, int(payloadLen))
	if err != nil {
		return nil, err
	}

	if expectCRC != 0 {
		if crc32.ChecksumIEEE(payload) != expectCRC {
			return nil, &CorruptPayload{Key: key}
		}
	}

	return payload, nil
}

// payloadCRC computes the index-stored CRC for payload, or 0 when
// disabled (spec.md §6.1: payloadCrc32 is "0 when disabled").
func payloadCRC(payload []byte, enabled bool) uint32 {
	if !enabled {
		return 0
	}
	return crc32.ChecksumIEEE(payload)
}
