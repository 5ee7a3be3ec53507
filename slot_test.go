package recstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func tempFileOps(t *testing.T) FileOps {
	t.Helper()
	path := filepath.Join(t.TempDir(), "slots.bin")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		t.Fatalf("open temp file: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	if err := f.Truncate(1 << 16); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return newOSFileOps(f)
}

func TestWriteReadSlotRoundTrip(t *testing.T) {
	f := tempFileOps(t)
	hdr := onDiskHeader{dataPointer: 128, dataCapacity: 64, dataCount: 10, payloadCrc32: 0xdeadbeef}

	if err := writeSlot(f, 3, 16, []byte("hello"), hdr); err != nil {
		t.Fatalf("writeSlot: %v", err)
	}

	key, got, err := readSlot(f, 3, 16)
	if err != nil {
		t.Fatalf("readSlot: %v", err)
	}
	if string(key) != "hello" {
		t.Errorf("key = %q, want %q", key, "hello")
	}
	if got != hdr {
		t.Errorf("header = %+v, want %+v", got, hdr)
	}
}

func TestReadSlotDetectsCorruption(t *testing.T) {
	f := tempFileOps(t)
	hdr := onDiskHeader{dataPointer: 1, dataCapacity: 2, dataCount: 3, payloadCrc32: 4}
	if err := writeSlot(f, 0, 16, []byte("k"), hdr); err != nil {
		t.Fatalf("writeSlot: %v", err)
	}

	// Flip a byte inside the slot's key field.
	slotSize := int64(16) + 25
	b, err := f.ReadU8(slotOffset(0, slotSize) + 1)
	if err != nil {
		t.Fatalf("ReadU8: %v", err)
	}
	if err := f.WriteU8(slotOffset(0, slotSize)+1, b^0xFF); err != nil {
		t.Fatalf("WriteU8: %v", err)
	}

	_, _, err = readSlot(f, 0, 16)
	var corrupt *CorruptSlot
	if !errors.As(err, &corrupt) {
		t.Fatalf("readSlot error = %v, want *CorruptSlot", err)
	}
	if corrupt.SlotNum != 0 {
		t.Errorf("SlotNum = %d, want 0", corrupt.SlotNum)
	}
}

func TestWriteDataPointerOnlyPreservesRest(t *testing.T) {
	f := tempFileOps(t)
	hdr := onDiskHeader{dataPointer: 10, dataCapacity: 20, dataCount: 5, payloadCrc32: 99}
	if err := writeSlot(f, 1, 8, []byte("ab"), hdr); err != nil {
		t.Fatalf("writeSlot: %v", err)
	}

	if err := writeDataPointerOnly(f, 1, 8, []byte("ab"), hdr, 999); err != nil {
		t.Fatalf("writeDataPointerOnly: %v", err)
	}

	_, got, err := readSlot(f, 1, 8)
	if err != nil {
		t.Fatalf("readSlot: %v", err)
	}
	if got.dataPointer != 999 {
		t.Errorf("dataPointer = %d, want 999", got.dataPointer)
	}
	if got.dataCapacity != hdr.dataCapacity || got.dataCount != hdr.dataCount || got.payloadCrc32 != hdr.payloadCrc32 {
		t.Errorf("unexpected field change: %+v", got)
	}
}
