package bptree

// The free list threads every released node slot into a singly
// linked chain rooted at the tree header's free_seek field: each free
// node's first index slot (Node.FreeNext) points at the next free
// node, or -1 at the end of the chain. Allocating a node pops the
// head of this chain; only when the chain is empty does the tree grow
// the file by appending a new record at EOF.

// allocateNode returns the position of a node slot ready to be
// overwritten: either the head of the free list, or a brand new
// record appended past the current end of the node region.
func (t *Tree) allocateNode() (int64, error) {
	if t.header.FreeSeek == nilSeek {
		pos := t.nextAppendPosition()
		t.growNodeRegion()
		return pos, nil
	}
	pos := t.header.FreeSeek
	freed, err := t.readNode(pos)
	if err != nil {
		return 0, err
	}
	t.header.FreeSeek = freed.FreeNext()
	t.markHeaderDirty()
	t.cache.invalidate(pos)
	return pos, nil
}

// releaseNode pushes position onto the head of the free list. The
// node at position must already have been evicted from active use by
// the caller (unlinked from its parent / leaf chain). The free marker
// is written back through the node cache like any other mutation, not
// straight to disk, so a release participates in the same write-back
// batching as ordinary inserts.
func (t *Tree) releaseNode(position int64) error {
	n := NewEmptyNode(t.nodesize, position, FlagFree)
	n.SetFreeNext(t.header.FreeSeek)
	t.cache.invalidate(position)
	if err := t.cache.put(position, n); err != nil {
		return err
	}
	t.header.FreeSeek = position
	t.markHeaderDirty()
	return nil
}
