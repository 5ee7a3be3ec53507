package recstore

import (
	"encoding/binary"
	"errors"
)

// faultFileOps wraps a FileOps and, after a configured number of
// writes, simulates a crash: it optionally lets the triggering write
// land torn (only the first half of its bytes reach disk) and then
// reports errSimulatedCrash instead of delegating further. This is the
// FileOps decorator spec.md §9 calls for to exercise P4 (crash
// atomicity) — tests reopen the underlying file through Store after
// each injected failure point and check the reopened state stays
// within the store's invariants.
type faultFileOps struct {
	FileOps
	writes    int
	failAt    int // -1 disables injection
	tornWrite bool
}

var errSimulatedCrash = errors.New("fileops: simulated crash")

func newFaultFileOps(f FileOps, failAt int, tornWrite bool) *faultFileOps {
	return &faultFileOps{FileOps: f, failAt: failAt, tornWrite: tornWrite}
}

// writeCount returns how many Write-family calls have been observed so
// far, letting a test discover the total write count of an operation
// by first running it with injection disabled.
func (f *faultFileOps) writeCount() int { return f.writes }

func (f *faultFileOps) trigger(offset int64, full []byte) error {
	f.writes++
	if f.failAt < 0 || f.writes != f.failAt {
		return nil
	}
	if f.tornWrite && len(full) > 1 {
		half := full[:len(full)/2]
		if len(half) > 0 {
			_ = f.FileOps.Write(offset, half)
		}
	}
	return errSimulatedCrash
}

func (f *faultFileOps) Write(offset int64, data []byte) error {
	if err := f.trigger(offset, data); err != nil {
		return err
	}
	return f.FileOps.Write(offset, data)
}

func (f *faultFileOps) WriteU8(offset int64, v uint8) error {
	if err := f.trigger(offset, []byte{v}); err != nil {
		return err
	}
	return f.FileOps.WriteU8(offset, v)
}

func (f *faultFileOps) WriteI32(offset int64, v int32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	if err := f.trigger(offset, buf[:]); err != nil {
		return err
	}
	return f.FileOps.WriteI32(offset, v)
}

func (f *faultFileOps) WriteI64(offset int64, v int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	if err := f.trigger(offset, buf[:]); err != nil {
		return err
	}
	return f.FileOps.WriteI64(offset, v)
}

func (f *faultFileOps) WriteU32(offset int64, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	if err := f.trigger(offset, buf[:]); err != nil {
		return err
	}
	return f.FileOps.WriteU32(offset, v)
}

var _ FileOps = (*faultFileOps)(nil)
