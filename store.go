// Store is the public facade: open/create, the mutation and read API,
// and the OPEN/UNKNOWN/CLOSED state machine described in spec.md §4.11.
package recstore

import (
	"fmt"
	"os"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// OpenMode selects how Open treats an existing or missing path.
type OpenMode int

const (
	// CreateOrOpenRW creates the file with Options if it does not
	// exist, or opens it read-write if it does (the header's maxKeyLen
	// is used; Options.MaxKeyLen is not compared with it).
	CreateOrOpenRW OpenMode = iota
	// OpenRW opens an existing file read-write; it is an error if the
	// file does not exist.
	OpenRW
	// OpenRO opens an existing file read-only; all mutating calls fail.
	OpenRO
)

// Options configures Open. MaxKeyLen is required on create and, on
// open of an existing file, is informational only: the value stored in
// the file header always wins (spec.md §9).
type Options struct {
	MaxKeyLen         uint8
	PreallocatedSlots int
	PayloadCrcEnabled bool
	Logger            *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

type storeState int32

const (
	stateOpen storeState = iota
	stateUnknown
	stateClosed
)

// Store is a single-file embedded key-value record store. It is not
// internally synchronised (spec.md §5): callers must serialise access
// to one Store from outside.
type Store struct {
	f      FileOps
	lock   *fileLock
	header *Header
	idx    *MemIndex
	opts   Options
	log    *zap.Logger

	readOnly bool
	state    atomic.Int32
}

// Open opens or creates path under mode with the given options.
func Open(path string, mode OpenMode, opts Options) (*Store, error) {
	opts = opts.withDefaults()

	_, statErr := os.Stat(path)
	exists := statErr == nil
	if statErr != nil && !os.IsNotExist(statErr) {
		return nil, ioErr("stat", statErr)
	}

	if mode == OpenRW || mode == OpenRO {
		if !exists {
			return nil, ioErr("open", os.ErrNotExist)
		}
	}

	flags := os.O_RDWR
	if mode == OpenRO {
		flags = os.O_RDONLY
	}
	if mode == CreateOrOpenRW && !exists {
		flags |= os.O_CREATE
	}

	osf, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, ioErr("open", err)
	}

	var lk *fileLock
	if mode != OpenRO {
		lk, err = acquireFileLock(osf)
		if err != nil {
			osf.Close()
			return nil, err
		}
	}

	s := &Store{
		f:        newOSFileOps(osf),
		lock:     lk,
		opts:     opts,
		log:      opts.Logger,
		readOnly: mode == OpenRO,
	}

	if exists {
		if err := s.recover(); err != nil {
			s.f.Close()
			if s.lock != nil {
				s.lock.release()
			}
			return nil, err
		}
	} else {
		if err := s.create(); err != nil {
			s.f.Close()
			if s.lock != nil {
				s.lock.release()
			}
			return nil, err
		}
	}

	s.state.Store(int32(stateOpen))
	s.log.Debug("store opened", zap.String("path", path), zap.Int32("numRecords", s.header.NumRecords()))
	return s, nil
}

func (s *Store) create() error {
	if s.opts.MaxKeyLen < 1 || s.opts.MaxKeyLen > 252 {
		return fmt.Errorf("%w: maxKeyLen must be in [1,252]", ErrFormatInvalid)
	}
	slotSize := int64(s.opts.MaxKeyLen) + 25
	dataStartPtr := HeaderSize + slotSize*int64(s.opts.PreallocatedSlots)

	h, err := writeNewHeader(s.f, s.opts.MaxKeyLen, dataStartPtr)
	if err != nil {
		return ioErr("create header", err)
	}
	if err := s.f.SetLength(dataStartPtr); err != nil {
		return ioErr("create set length", err)
	}
	s.header = h
	s.idx = newMemIndex(s.opts.PreallocatedSlots)
	return nil
}

func (s *Store) checkOpen() error {
	if storeState(s.state.Load()) != stateOpen {
		return ErrStoreNotOpen
	}
	return nil
}

func (s *Store) fail(err error) error {
	s.state.Store(int32(stateUnknown))
	s.log.Warn("store entering UNKNOWN state", zap.Error(err))
	return err
}

// Insert adds key/payload. Fails with ErrKeyExists if key is already
// present, ErrKeyTooLong if it exceeds the store's maxKeyLen.
func (s *Store) Insert(key, payload []byte) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if len(key) > int(s.header.MaxKeyLen()) {
		return ErrKeyTooLong
	}
	if _, ok := s.idx.Get(key); ok {
		return ErrKeyExists
	}
	return s.doInsert(key, payload)
}

// Update replaces key's payload. Fails with ErrKeyAbsent if key is not
// present.
func (s *Store) Update(key, payload []byte) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	rh, ok := s.idx.Get(key)
	if !ok {
		return ErrKeyAbsent
	}
	return s.doUpdate(key, rh, payload)
}

// Delete removes key. Fails with ErrKeyAbsent if key is not present.
func (s *Store) Delete(key []byte) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	rh, ok := s.idx.Get(key)
	if !ok {
		return ErrKeyAbsent
	}
	return s.doDelete(key, rh)
}

// Read returns key's current payload. Fails with ErrKeyAbsent if key
// is not present, or *CorruptPayload if the stored CRC does not match.
func (s *Store) Read(key []byte) ([]byte, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rh, ok := s.idx.Get(key)
	if !ok {
		return nil, ErrKeyAbsent
	}
	return s.doRead(key, rh)
}

// Exists reports whether key is present, without validating its payload.
func (s *Store) Exists(key []byte) bool {
	_, ok := s.idx.Get(key)
	return ok
}

// Len returns the number of live records.
func (s *Store) Len() int { return s.idx.Len() }

// Keys returns every live key. The slice and its elements are copies;
// mutating them does not affect the store.
func (s *Store) Keys() [][]byte {
	keys := s.idx.Keys()
	for i, k := range keys {
		keys[i] = append([]byte(nil), k...)
	}
	return keys
}

// SnapshotEntry describes one live record's index-level state, exposed
// for tests (spec.md §6.2 snapshot).
type SnapshotEntry struct {
	Key          []byte
	DataPointer  int64
	DataCapacity int32
	DataCount    int32
	SlotPos      int
}

// Snapshot returns the current index-level state of every live record.
func (s *Store) Snapshot() []SnapshotEntry {
	keys := s.idx.Keys()
	out := make([]SnapshotEntry, 0, len(keys))
	for _, k := range keys {
		rh, ok := s.idx.Get(k)
		if !ok {
			continue
		}
		out = append(out, SnapshotEntry{
			Key:          k,
			DataPointer:  rh.dataPointer,
			DataCapacity: rh.dataCapacity,
			DataCount:    rh.dataCount,
			SlotPos:      rh.indexPosition,
		})
	}
	return out
}

// Fsync flushes all writes up to this call durably to storage.
func (s *Store) Fsync() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.f.Sync(); err != nil {
		return s.fail(ioErr("fsync", err))
	}
	return nil
}

// Close releases the store's advisory lock and file descriptor. It may
// be called from OPEN or UNKNOWN; the first call returns the sync,
// unlock and close errors it met, aggregated, and every later call
// returns nil.
func (s *Store) Close() error {
	prev := storeState(s.state.Swap(int32(stateClosed)))
	if prev == stateClosed {
		return nil
	}

	var err error
	if !s.readOnly {
		if syncErr := s.f.Sync(); syncErr != nil {
			err = multierr.Append(err, ioErr("close sync", syncErr))
		}
	}
	// The lock is released while the descriptor is still open: unlocking
	// a closed descriptor fails.
	if s.lock != nil {
		if lockErr := s.lock.release(); lockErr != nil {
			err = multierr.Append(err, lockErr)
		}
	}
	if closeErr := s.f.Close(); closeErr != nil {
		err = multierr.Append(err, ioErr("close", closeErr))
	}
	return err
}
