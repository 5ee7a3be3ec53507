// MemIndex is the in-memory map<Key, RecordHeader> plus the
// dataPointer-ordered view described in spec.md §4.4. It composes a
// hashIndex (hashindex.go) for O(1) exact-match key lookup with a
// skipList (skiplist.go) for O(log n) neighbour queries, and keeps a
// slice indexed by slot number so delete's last-slot-into-hole move
// can find the record occupying any given slot in O(1).
package recstore

type MemIndex struct {
	byKey   *hashIndex
	byPtr   *skipList[int64, *RecordHeader]
	bySlot  []*RecordHeader // bySlot[i] is the record at slot i, or nil
}

func newMemIndex(initialCapacity int) *MemIndex {
	return &MemIndex{
		byKey:  newHashIndex(initialCapacity),
		byPtr:  newSkipList[int64, *RecordHeader](),
		bySlot: make([]*RecordHeader, 0, initialCapacity),
	}
}

func (m *MemIndex) Len() int { return m.byKey.Len() }

func (m *MemIndex) Get(key []byte) (*RecordHeader, bool) {
	return m.byKey.Get(key)
}

func (m *MemIndex) Keys() [][]byte {
	return m.byKey.Keys()
}

// Insert adds a brand-new record, growing bySlot if needed.
func (m *MemIndex) Insert(key []byte, rh *RecordHeader) {
	m.byKey.Put(key, rh)
	rh.pointerNode = m.byPtr.Insert(rh.dataPointer, rh)
	m.setSlot(rh.indexPosition, rh)
}

// Remove deletes a record from all three views.
func (m *MemIndex) Remove(key []byte, rh *RecordHeader) {
	m.byKey.Remove(key)
	m.byPtr.RemoveNode(rh.pointerNode)
	m.clearSlot(rh.indexPosition)
}

// Relocate updates rh's position in the pointer-ordered view after its
// dataPointer changes (update/insert's R0 relocation), without
// touching the key view.
func (m *MemIndex) Relocate(rh *RecordHeader, newDataPointer int64) {
	m.byPtr.RemoveNode(rh.pointerNode)
	rh.dataPointer = newDataPointer
	rh.pointerNode = m.byPtr.Insert(rh.dataPointer, rh)
}

// MoveSlot reassigns rh to a new slot number (delete's last-slot move).
func (m *MemIndex) MoveSlot(rh *RecordHeader, newSlot int) {
	m.clearSlot(rh.indexPosition)
	rh.indexPosition = newSlot
	m.setSlot(newSlot, rh)
}

func (m *MemIndex) setSlot(slot int, rh *RecordHeader) {
	for len(m.bySlot) <= slot {
		m.bySlot = append(m.bySlot, nil)
	}
	m.bySlot[slot] = rh
}

func (m *MemIndex) clearSlot(slot int) {
	if slot >= 0 && slot < len(m.bySlot) {
		m.bySlot[slot] = nil
	}
}

// AtSlot returns the record currently occupying slot, or nil.
func (m *MemIndex) AtSlot(slot int) *RecordHeader {
	if slot < 0 || slot >= len(m.bySlot) {
		return nil
	}
	return m.bySlot[slot]
}

// FirstByPointer returns the record with the lowest dataPointer.
func (m *MemIndex) FirstByPointer() *RecordHeader {
	n := m.byPtr.First()
	if n == nil {
		return nil
	}
	return n.value
}

// LastByPointer returns the record with the highest dataPointer.
func (m *MemIndex) LastByPointer() *RecordHeader {
	n := m.byPtr.Last()
	if n == nil {
		return nil
	}
	return n.value
}

// NextByPointer returns the record immediately after rh in dataPointer
// order, or nil if rh holds the highest dataPointer.
func (m *MemIndex) NextByPointer(rh *RecordHeader) *RecordHeader {
	n := rh.pointerNode.Next()
	if n == nil {
		return nil
	}
	return n.value
}

// PrevByPointer returns the record immediately before rh in
// dataPointer order, or nil if rh holds the lowest dataPointer.
func (m *MemIndex) PrevByPointer(rh *RecordHeader) *RecordHeader {
	n := rh.pointerNode.Prev()
	if n == nil {
		return nil
	}
	return n.value
}
