// FileOps is the narrow abstraction every durability and ordering
// decision in this package is expressed against: positioned reads and
// writes of fixed-width primitives and byte arrays over a seekable
// file, with no implicit cursor. Swapping the concrete implementation
// (direct I/O vs mmap, or a fault-injecting decorator in tests) never
// touches the mutation protocol in insert.go/update.go/delete.go.
package recstore

import (
	"encoding/binary"
	"io"
	"os"
)

// FileOps is implemented by osFileOps for production use and by
// faultFileOps (fileops_fault_test.go) to exercise crash paths in
// tests. All multi-byte primitives are big-endian.
type FileOps interface {
	ReadExact(offset int64, n int) ([]byte, error)
	ReadU8(offset int64) (uint8, error)
	ReadI32(offset int64) (int32, error)
	ReadI64(offset int64) (int64, error)
	ReadU32(offset int64) (uint32, error)

	Write(offset int64, data []byte) error
	WriteU8(offset int64, v uint8) error
	WriteI32(offset int64, v int32) error
	WriteI64(offset int64, v int64) error
	WriteU32(offset int64, v uint32) error

	Length() (int64, error)
	SetLength(n int64) error
	Sync() error
	Close() error
}

// osFileOps implements FileOps directly against one *os.File handle.
type osFileOps struct {
	f *os.File
}

func newOSFileOps(f *os.File) *osFileOps { return &osFileOps{f: f} }

func (o *osFileOps) ReadExact(offset int64, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := o.f.ReadAt(buf, offset); err != nil {
		return nil, err
	}
	return buf, nil
}

func (o *osFileOps) ReadU8(offset int64) (uint8, error) {
	var buf [1]byte
	if _, err := o.f.ReadAt(buf[:], offset); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (o *osFileOps) ReadI32(offset int64) (int32, error) {
	var buf [4]byte
	if _, err := o.f.ReadAt(buf[:], offset); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(buf[:])), nil
}

func (o *osFileOps) ReadI64(offset int64) (int64, error) {
	var buf [8]byte
	if _, err := o.f.ReadAt(buf[:], offset); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(buf[:])), nil
}

func (o *osFileOps) ReadU32(offset int64) (uint32, error) {
	var buf [4]byte
	if _, err := o.f.ReadAt(buf[:], offset); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func (o *osFileOps) Write(offset int64, data []byte) error {
	_, err := o.f.WriteAt(data, offset)
	return err
}

func (o *osFileOps) WriteU8(offset int64, v uint8) error {
	return o.Write(offset, []byte{v})
}

func (o *osFileOps) WriteI32(offset int64, v int32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	return o.Write(offset, buf[:])
}

func (o *osFileOps) WriteI64(offset int64, v int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	return o.Write(offset, buf[:])
}

func (o *osFileOps) WriteU32(offset int64, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return o.Write(offset, buf[:])
}

func (o *osFileOps) Length() (int64, error) {
	info, err := o.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (o *osFileOps) SetLength(n int64) error {
	return o.f.Truncate(n)
}

func (o *osFileOps) Sync() error {
	return o.f.Sync()
}

func (o *osFileOps) Close() error {
	return o.f.Close()
}

var _ FileOps = (*osFileOps)(nil)
var _ io.Closer = (*osFileOps)(nil)
