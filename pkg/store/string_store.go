package store

import (
	"sync"

	"github.com/ssargent/freyjadb/pkg/bptree"
)

// StringStore is the string-value overlay of spec §4.7: a B+Tree
// keyed by the real key, storing not the value itself but its offset
// in a companion ValueHeap. Keeping tree values fixed-width (an
// int64 offset) lets the tree's node records stay a pure function of
// (nodesize, keylen) no matter how large the actual values get.
type StringStore struct {
	tree *bptree.Tree
	heap *ValueHeap
}

// NewStringStore wires a tree and a value heap into an overlay. Both
// must already be open; the overlay does not own their lifecycle
// beyond what Close does here.
func NewStringStore(tree *bptree.Tree, heap *ValueHeap) *StringStore {
	return &StringStore{tree: tree, heap: heap}
}

// Put appends value to the heap and points key at its offset,
// overwriting any offset previously stored for key.
func (s *StringStore) Put(key, value []byte) error {
	offset, err := s.heap.Append(value)
	if err != nil {
		return err
	}
	return s.tree.Put(key, offset)
}

// Get resolves key to its offset and reads the value back from the heap.
func (s *StringStore) Get(key []byte) ([]byte, error) {
	offset, err := s.tree.Get(key)
	if err != nil {
		return nil, err
	}
	return s.heap.ReadAt(offset)
}

// Delete removes key from the tree. The heap record it pointed at is
// not reclaimed; Recopy compacts only the tree and copies heap offsets
// as they are, so the value heap never shrinks.
func (s *StringStore) Delete(key []byte) error {
	return s.tree.Delete(key)
}

// Has reports whether key is present.
func (s *StringStore) Has(key []byte) (bool, error) {
	return s.tree.Has(key)
}

// Len returns the number of live keys.
func (s *StringStore) Len() int64 {
	return s.tree.Len()
}

// Walk returns a bptree.Walker over [lower, upper) that callers can
// drive with First/Next; CurrentKey is the real key, and resolving
// CurrentValue through the heap yields the real value.
func (s *StringStore) Walk(lower, upper []byte) (*bptree.Walker, error) {
	return bptree.NewWalker(s.tree, lower, true, upper, false)
}

// ValueAt resolves a walker's current offset through the heap; a
// small convenience so callers scanning a range don't reach past the
// overlay into the heap directly.
func (s *StringStore) ValueAt(offset int64) ([]byte, error) {
	return s.heap.ReadAt(offset)
}

// Close closes the underlying tree and heap.
func (s *StringStore) Close() error {
	treeErr := s.tree.Close()
	heapErr := s.heap.Close()
	if treeErr != nil {
		return treeErr
	}
	return heapErr
}

// CachingStringStore wraps a read-only StringStore (backed by a tree
// opened with bptree.OpenReadOnly) with an in-process memo of
// key->value, matching the original's caching_BPT/caching_SBPT
// read-only acceleration: since nothing can mutate the underlying
// tree, once a lookup resolves it can be trusted forever.
type CachingStringStore struct {
	inner *StringStore
	mu    sync.RWMutex
	memo  map[string][]byte
}

// NewCachingStringStore wraps inner, which must be backed by a
// read-only tree.
func NewCachingStringStore(inner *StringStore) *CachingStringStore {
	return &CachingStringStore{inner: inner, memo: make(map[string][]byte)}
}

// Get returns the memoized value for key, populating the memo from
// the underlying overlay on first access.
func (c *CachingStringStore) Get(key []byte) ([]byte, error) {
	c.mu.RLock()
	if v, ok := c.memo[string(key)]; ok {
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	v, err := c.inner.Get(key)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.memo[string(key)] = v
	c.mu.Unlock()
	return v, nil
}

// Has reports whether key is present, consulting the memo first.
func (c *CachingStringStore) Has(key []byte) (bool, error) {
	c.mu.RLock()
	if _, ok := c.memo[string(key)]; ok {
		c.mu.RUnlock()
		return true, nil
	}
	c.mu.RUnlock()
	return c.inner.Has(key)
}

// Close closes the underlying read-only overlay.
func (c *CachingStringStore) Close() error {
	return c.inner.Close()
}
