// OS-level advisory file locking used as a cross-process single-writer
// guard: Open takes an exclusive, non-blocking lock on the store's
// file descriptor for the lifetime of an OPEN_RW/CREATE_OR_OPEN_RW
// handle. This is unrelated to the core's own concurrency model (§5):
// the core is still not internally synchronised, this only stops a
// second OS process from opening the same file for writing.
package recstore

import "os"

// fileLock wraps flock(2) / LockFileEx on the store's own file handle.
type fileLock struct {
	f *os.File
}

// acquireFileLock takes a non-blocking exclusive lock on f. Returns an
// *Io error immediately if another process already holds it.
func acquireFileLock(f *os.File) (*fileLock, error) {
	l := &fileLock{f: f}
	if err := l.lock(); err != nil {
		return nil, ioErr("lock", err)
	}
	return l, nil
}

func (l *fileLock) release() error {
	if err := l.unlock(); err != nil {
		return ioErr("unlock", err)
	}
	return nil
}
