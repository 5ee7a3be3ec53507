// IndexSlot codec: one fixed-size entry in the index region, holding a
// padded key and an on-disk RecordHeader behind a CRC32 that covers
// every byte of the slot but the CRC field itself (spec.md §6.1).
//
// A per-slot CRC lets the mutation protocol treat a slot write as
// atomically valid-or-not: writeSlot issues the whole slotSize buffer
// in a single FileOps.Write, so a write torn by a crash leaves a slot
// whose CRC fails to validate — readSlot rejects it rather than
// returning garbage, and recovery.go treats any such slot at a position
// >= numRecords as simply not-yet-committed.
package recstore

import "hash/crc32"

// onDiskHeader is the RecordHeader's on-disk representation, the
// portion of a slot that follows the key.
type onDiskHeader struct {
	dataPointer   int64
	dataCapacity  int32
	dataCount     int32
	payloadCrc32  uint32
}

const onDiskHeaderSize = 8 + 4 + 4 + 4 // dataPointer + dataCapacity + dataCount + payloadCrc32

func slotOffset(slotNum int, slotSize int64) int64 {
	return HeaderSize + int64(slotNum)*slotSize
}

// writeSlot serialises key and hdr into the slot at slotNum, computes
// the CRC over everything but the CRC field, and issues one write of
// the whole slot. maxKeyLen bounds the padded key field width.
func writeSlot(f FileOps, slotNum int, maxKeyLen uint8, key []byte, hdr onDiskHeader) error {
	slotSize := int64(maxKeyLen) + 25
	buf := make([]byte, slotSize)

	buf[0] = byte(len(key))
	copy(buf[1:1+int(maxKeyLen)], key)

	o := 1 + int(maxKeyLen)
	putI64(buf[o:], hdr.dataPointer)
	putI32(buf[o+8:], hdr.dataCapacity)
	putI32(buf[o+12:], hdr.dataCount)
	putU32(buf[o+16:], hdr.payloadCrc32)

	crc := crc32.ChecksumIEEE(buf[:o+onDiskHeaderSize])
	putU32(buf[o+onDiskHeaderSize:], crc)

	return f.Write(slotOffset(slotNum, slotSize), buf)
}

// writeDataPointerOnly rewrites the slot at slotNum with a new
// dataPointer, preserving key, dataCapacity, dataCount and
// payloadCrc32 exactly as the caller passes them (growIndexIfNeeded
// passes the key and header it has just read from this slot on disk).
// It is the same single-slot-write primitive as writeSlot; the
// name documents the intent described in spec.md §4.3 — only the
// pointer half of the record moved, the key did not.
func writeDataPointerOnly(f FileOps, slotNum int, maxKeyLen uint8, key []byte, hdr onDiskHeader, newDataPointer int64) error {
	hdr.dataPointer = newDataPointer
	return writeSlot(f, slotNum, maxKeyLen, key, hdr)
}

// readSlot reads and validates the slot at slotNum, returning the key
// (trimmed to its stored length) and on-disk header. A CRC mismatch or
// an out-of-range keyLen is reported as *CorruptSlot.
func readSlot(f FileOps, slotNum int, maxKeyLen uint8) ([]byte, onDiskHeader, error) {
	slotSize := int64(maxKeyLen) + 25
	buf, err := f.ReadExact(slotOffset(slotNum, slotSize), int(slotSize))
	if err != nil {
		return nil, onDiskHeader{}, err
	}

	keyLen := int(buf[0])
	if keyLen > int(maxKeyLen) {
		return nil, onDiskHeader{}, &CorruptSlot{SlotNum: slotNum}
	}

	o := 1 + int(maxKeyLen)
	wantCRC := crc32.ChecksumIEEE(buf[:o+onDiskHeaderSize])
	gotCRC := getU32(buf[o+onDiskHeaderSize:])
	if wantCRC != gotCRC {
		return nil, onDiskHeader{}, &CorruptSlot{SlotNum: slotNum}
	}

	hdr := onDiskHeader{
		dataPointer:  getI64(buf[o:]),
		dataCapacity: getI32(buf[o+8:]),
		dataCount:    getI32(buf[o+12:]),
		payloadCrc32: getU32(buf[o+16:]),
	}

	key := make([]byte, keyLen)
	copy(key, buf[1:1+keyLen])

	return key, hdr, nil
}

func putI32(b []byte, v int32) { putU32(b, uint32(v)) }
func putU32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}
func putI64(b []byte, v int64) {
	u := uint64(v)
	for i := 0; i < 8; i++ {
		b[i] = byte(u >> uint(56-8*i))
	}
}

func getI32(b []byte) int32  { return int32(getU32(b)) }
func getU32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
func getI64(b []byte) int64 {
	var u uint64
	for i := 0; i < 8; i++ {
		u = u<<8 | uint64(b[i])
	}
	return int64(u)
}
