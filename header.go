// Fixed file header at offset 0.
//
// The header is exactly HeaderSize bytes: a one-byte maxKeyLen, a
// four-byte numRecords, and an eight-byte dataStartPtr, all big-endian.
// Each setter issues a single positioned write so that, at the
// primitive-width level, the mutation protocol can treat a header
// field update as an atomic commit (spec.md R2).
package recstore

// HeaderSize is the fixed size of the file header in bytes:
// 1 (maxKeyLen) + 4 (numRecords) + 8 (dataStartPtr).
const HeaderSize = 13

const (
	maxKeyLenOffset    = 0
	numRecordsOffset   = 1
	dataStartPtrOffset = 5
)

// Header caches the three header fields and mutates them individually
// against a FileOps, each mutation a single positioned write.
type Header struct {
	maxKeyLen    uint8
	numRecords   int32
	dataStartPtr int64
}

// readHeader reads and validates the header at offset 0. maxKeyLen must
// be in [1,252]; the caller is responsible for checking dataStartPtr
// against the slot geometry and file length (recovery.go does this: it
// checks that dataStartPtr is slot-aligned and within the file).
func readHeader(f FileOps) (*Header, error) {
	maxKeyLen, err := f.ReadU8(maxKeyLenOffset)
	if err != nil {
		return nil, err
	}
	numRecords, err := f.ReadI32(numRecordsOffset)
	if err != nil {
		return nil, err
	}
	dataStartPtr, err := f.ReadI64(dataStartPtrOffset)
	if err != nil {
		return nil, err
	}

	if maxKeyLen < 1 || maxKeyLen > 252 {
		return nil, ErrFormatInvalid
	}
	if numRecords < 0 {
		return nil, ErrFormatInvalid
	}
	if dataStartPtr < HeaderSize {
		return nil, ErrFormatInvalid
	}

	return &Header{
		maxKeyLen:    maxKeyLen,
		numRecords:   numRecords,
		dataStartPtr: dataStartPtr,
	}, nil
}

// writeNewHeader writes a brand-new header for a freshly created file.
// maxKeyLen is fixed for the life of the file from this point on.
func writeNewHeader(f FileOps, maxKeyLen uint8, dataStartPtr int64) (*Header, error) {
	h := &Header{maxKeyLen: maxKeyLen, numRecords: 0, dataStartPtr: dataStartPtr}
	if err := f.WriteU8(maxKeyLenOffset, maxKeyLen); err != nil {
		return nil, err
	}
	if err := f.WriteI32(numRecordsOffset, 0); err != nil {
		return nil, err
	}
	if err := f.WriteI64(dataStartPtrOffset, dataStartPtr); err != nil {
		return nil, err
	}
	return h, nil
}

// MaxKeyLen returns the maximum key length in bytes, fixed at creation.
func (h *Header) MaxKeyLen() uint8 { return h.maxKeyLen }

// NumRecords returns the number of live records; slots
// 0..NumRecords-1 hold them.
func (h *Header) NumRecords() int32 { return h.numRecords }

// DataStartPtr returns the absolute offset where the data region
// begins: HeaderSize + slotSize*currentSlotCount.
func (h *Header) DataStartPtr() int64 { return h.dataStartPtr }

// SlotSize returns the on-disk size of one index slot for this header's
// maxKeyLen: keyLen(1) + key(maxKeyLen) + dataPointer(8) + dataCapacity(4)
// + dataCount(4) + payloadCrc32(4) + slotCrc32(4).
func (h *Header) SlotSize() int64 {
	return int64(h.maxKeyLen) + 25
}

// writeNumRecords is R2's single commit for Insert and Delete: the
// moment this write lands, the new record count is visible to any
// reader that reopens the file.
func (h *Header) writeNumRecords(f FileOps, n int32) error {
	if err := f.WriteI32(numRecordsOffset, n); err != nil {
		return err
	}
	h.numRecords = n
	return nil
}

// writeDataStartPtr is R2's single commit for index-region growth: once
// this write lands, the newly appended slot is visible to readers as
// "exists but empty" (numRecords has not yet been bumped to cover it).
func (h *Header) writeDataStartPtr(f FileOps, p int64) error {
	if err := f.WriteI64(dataStartPtrOffset, p); err != nil {
		return err
	}
	h.dataStartPtr = p
	return nil
}
