// In-memory, open-addressed hash table keyed by an xxh3 digest of the
// raw key bytes, used by MemIndex for O(1) exact-match key lookup.
// Collisions are resolved by linear probing; the full key is stored
// alongside each entry and compared on every probe so a digest
// collision never returns the wrong record (the digest only selects
// the starting bucket, it is never trusted as the equality test).
package recstore

import "github.com/zeebo/xxh3"

type hashIndexEntry struct {
	key    []byte
	header *RecordHeader
	used   bool
}

type hashIndex struct {
	buckets []hashIndexEntry
	count   int
}

func newHashIndex(initialCapacity int) *hashIndex {
	if initialCapacity < 8 {
		initialCapacity = 8
	}
	return &hashIndex{buckets: make([]hashIndexEntry, nextPow2(initialCapacity))}
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (h *hashIndex) Len() int { return h.count }

func (h *hashIndex) probe(key []byte) int {
	mask := len(h.buckets) - 1
	i := int(xxh3.Hash(key)) & mask
	for {
		e := &h.buckets[i]
		if !e.used {
			return i
		}
		if bytesEqual(e.key, key) {
			return i
		}
		i = (i + 1) & mask
	}
}

func (h *hashIndex) Get(key []byte) (*RecordHeader, bool) {
	i := h.probe(key)
	e := &h.buckets[i]
	if !e.used {
		return nil, false
	}
	return e.header, true
}

func (h *hashIndex) Put(key []byte, header *RecordHeader) {
	if h.count+1 > len(h.buckets)*3/4 {
		h.grow()
	}
	i := h.probe(key)
	e := &h.buckets[i]
	if !e.used {
		e.used = true
		e.key = append([]byte(nil), key...)
		h.count++
	}
	e.header = header
}

func (h *hashIndex) Remove(key []byte) {
	i := h.probe(key)
	if !h.buckets[i].used {
		return
	}
	h.buckets[i] = hashIndexEntry{}
	h.count--

	// Standard open-addressing deletion: re-insert every entry in the
	// probe chain following the hole, or lookups past it would stop
	// early at the now-empty slot.
	mask := len(h.buckets) - 1
	j := (i + 1) & mask
	for h.buckets[j].used {
		e := h.buckets[j]
		h.buckets[j] = hashIndexEntry{}
		h.count--
		h.reinsert(e)
		j = (j + 1) & mask
	}
}

func (h *hashIndex) reinsert(e hashIndexEntry) {
	i := h.probe(e.key)
	h.buckets[i] = e
	h.count++
}

func (h *hashIndex) grow() {
	old := h.buckets
	h.buckets = make([]hashIndexEntry, len(old)*2)
	h.count = 0
	for _, e := range old {
		if e.used {
			h.reinsert(e)
		}
	}
}

func (h *hashIndex) Keys() [][]byte {
	keys := make([][]byte, 0, h.count)
	for _, e := range h.buckets {
		if e.used {
			keys = append(keys, e.key)
		}
	}
	return keys
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
