package recstore

import (
	"fmt"
	"testing"
)

func TestHashIndexPutGet(t *testing.T) {
	h := newHashIndex(8)
	rh1 := &RecordHeader{dataPointer: 1}
	rh2 := &RecordHeader{dataPointer: 2}

	h.Put([]byte("a"), rh1)
	h.Put([]byte("b"), rh2)

	got, ok := h.Get([]byte("a"))
	if !ok || got != rh1 {
		t.Errorf("Get(a) = %v, %v, want rh1, true", got, ok)
	}
	got, ok = h.Get([]byte("b"))
	if !ok || got != rh2 {
		t.Errorf("Get(b) = %v, %v, want rh2, true", got, ok)
	}
	if _, ok := h.Get([]byte("missing")); ok {
		t.Error("Get(missing) found, want absent")
	}
}

func TestHashIndexPutOverwritesExistingKey(t *testing.T) {
	h := newHashIndex(8)
	rh1 := &RecordHeader{dataPointer: 1}
	rh2 := &RecordHeader{dataPointer: 2}

	h.Put([]byte("a"), rh1)
	h.Put([]byte("a"), rh2)

	if h.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", h.Len())
	}
	got, _ := h.Get([]byte("a"))
	if got != rh2 {
		t.Errorf("Get(a) = %v, want rh2", got)
	}
}

func TestHashIndexRemove(t *testing.T) {
	h := newHashIndex(8)
	for i := 0; i < 20; i++ {
		h.Put([]byte(fmt.Sprintf("key%d", i)), &RecordHeader{dataPointer: int64(i)})
	}

	h.Remove([]byte("key5"))
	if _, ok := h.Get([]byte("key5")); ok {
		t.Error("Get(key5) found after Remove, want absent")
	}
	if h.Len() != 19 {
		t.Fatalf("Len() = %d, want 19", h.Len())
	}

	// Every other key must remain reachable: Remove's probe-chain
	// reinsertion must not have orphaned anything behind the hole.
	for i := 0; i < 20; i++ {
		if i == 5 {
			continue
		}
		key := []byte(fmt.Sprintf("key%d", i))
		rh, ok := h.Get(key)
		if !ok {
			t.Errorf("Get(%s) not found after removing key5", key)
			continue
		}
		if rh.dataPointer != int64(i) {
			t.Errorf("Get(%s).dataPointer = %d, want %d", key, rh.dataPointer, i)
		}
	}
}

func TestHashIndexGrowsAndRetainsEntries(t *testing.T) {
	h := newHashIndex(8)
	const n = 200
	for i := 0; i < n; i++ {
		h.Put([]byte(fmt.Sprintf("k%d", i)), &RecordHeader{dataPointer: int64(i)})
	}
	if h.Len() != n {
		t.Fatalf("Len() = %d, want %d", h.Len(), n)
	}
	for i := 0; i < n; i++ {
		key := []byte(fmt.Sprintf("k%d", i))
		rh, ok := h.Get(key)
		if !ok || rh.dataPointer != int64(i) {
			t.Errorf("Get(%s) = %v, %v, want dataPointer=%d", key, rh, ok, i)
		}
	}
}

func TestHashIndexKeys(t *testing.T) {
	h := newHashIndex(8)
	h.Put([]byte("a"), &RecordHeader{})
	h.Put([]byte("b"), &RecordHeader{})
	h.Put([]byte("c"), &RecordHeader{})

	keys := h.Keys()
	if len(keys) != 3 {
		t.Fatalf("len(Keys()) = %d, want 3", len(keys))
	}
	seen := map[string]bool{}
	for _, k := range keys {
		seen[string(k)] = true
	}
	for _, want := range []string{"a", "b", "c"} {
		if !seen[want] {
			t.Errorf("Keys() missing %q", want)
		}
	}
}
