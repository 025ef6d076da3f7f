package bptree

import (
	"github.com/ssargent/freyjadb/pkg/codec"
)

// Flag values identify a node's role. A node's role can change over
// its lifetime (a leaf promoted to root on the first split, an
// interior node released onto the free list after a merge) so flag is
// plain data, not a Go type hierarchy.
const (
	FlagRoot        byte = 1
	FlagInterior    byte = 2
	FlagFree        byte = 3
	FlagLeaf        byte = 4
	FlagLeafAndRoot byte = 5
)

// Node is the in-memory image of one fixed-size on-disk record. For
// an interior node, Indices holds validkeys+1 child positions and
// Keys holds validkeys separator keys. For a leaf node, Indices[0:validkeys]
// holds value-heap offsets (or inline fixed-width payloads) and
// Keys[0:validkeys] holds the corresponding keys; the final slot,
// Indices[len(Indices)-1], is unused by the key/value pairs and
// instead threads the forward leaf chain, mirroring how the original
// design reuses the same S+1-wide index array for the "next leaf"
// link since a leaf only ever needs S of its S+1 slots for values.
type Node struct {
	Position  int64
	Flag      byte
	ValidKeys int16
	Indices   []int64
	Keys      [][]byte

	dirty bool
}

// NewEmptyNode allocates a zeroed node of the given nodesize, ready to
// be populated by the tree engine.
func NewEmptyNode(nodesize int, position int64, flag byte) *Node {
	return &Node{
		Position:  position,
		Flag:      flag,
		ValidKeys: 0,
		Indices:   make([]int64, nodesize+1),
		Keys:      make([][]byte, nodesize),
		dirty:     true,
	}
}

// IsLeaf reports whether this node stores key/value pairs directly.
func (n *Node) IsLeaf() bool {
	return n.Flag == FlagLeaf || n.Flag == FlagLeafAndRoot
}

// IsRoot reports whether this node is the tree's current root.
func (n *Node) IsRoot() bool {
	return n.Flag == FlagRoot || n.Flag == FlagLeafAndRoot
}

// IsFree reports whether this node slot is on the free list.
func (n *Node) IsFree() bool {
	return n.Flag == FlagFree
}

// Nodesize returns the configured branching factor S for this node
// (the number of key slots).
func (n *Node) Nodesize() int {
	return len(n.Keys)
}

// Next returns the forward leaf-chain pointer stored in a leaf's spare
// index slot. It is meaningless on interior nodes.
func (n *Node) Next() int64 {
	return n.Indices[len(n.Indices)-1]
}

// SetNext updates the forward leaf-chain pointer.
func (n *Node) SetNext(pos int64) {
	n.Indices[len(n.Indices)-1] = pos
	n.dirty = true
}

// FreeNext returns the singly-linked free-list pointer stored in a
// free node's first index slot.
func (n *Node) FreeNext() int64 {
	return n.Indices[0]
}

// SetFreeNext sets the free-list pointer and marks the node free.
func (n *Node) SetFreeNext(pos int64) {
	n.Flag = FlagFree
	n.ValidKeys = 0
	n.Indices[0] = pos
	n.dirty = true
}

// MarkDirty flags the node for write-back on the next cache flush.
func (n *Node) MarkDirty() {
	n.dirty = true
}

// Dirty reports whether the node has unflushed changes.
func (n *Node) Dirty() bool {
	return n.dirty
}

// clearDirty is called by the cache after a successful write-back.
func (n *Node) clearDirty() {
	n.dirty = false
}

// findChildIndex returns the index of the child that should contain
// key, using the standard B+Tree separator rule: children[i] covers
// keys < Keys[i], the last child covers keys >= Keys[validkeys-1].
func (n *Node) findChildIndex(key []byte) int {
	lo, hi := 0, int(n.ValidKeys)
	for lo < hi {
		mid := (lo + hi) / 2
		if string(key) < string(n.Keys[mid]) {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// findKeyIndex returns the index of key among Keys[0:validkeys] and
// whether it was found exactly.
func (n *Node) findKeyIndex(key []byte) (int, bool) {
	lo, hi := 0, int(n.ValidKeys)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case string(n.Keys[mid]) < string(key):
			lo = mid + 1
		case string(n.Keys[mid]) > string(key):
			hi = mid
		default:
			return mid, true
		}
	}
	return lo, false
}

// encode renders the node into its fixed-size on-disk record.
func (n *Node) encode(recordSize, keylen int) ([]byte, error) {
	return codec.EncodeNode(recordSize, n.Flag, n.ValidKeys, n.Indices, n.Keys, keylen)
}

// decodeNode parses a fixed-size record read from position into a Node.
func decodeNode(data []byte, position int64, nodesize, keylen int) (*Node, error) {
	flag, validkeys, indices, keys, err := codec.DecodeNode(data, nodesize, keylen)
	if err != nil {
		return nil, err
	}
	return &Node{
		Position:  position,
		Flag:      flag,
		ValidKeys: validkeys,
		Indices:   indices,
		Keys:      keys,
	}, nil
}

// leafInsertAt inserts a key/value pair at index i, shifting the tail
// right by one slot. The caller must have already verified there is
// room (validkeys < nodesize).
func (n *Node) leafInsertAt(i int, key []byte, value int64) {
	copy(n.Keys[i+1:n.ValidKeys+1], n.Keys[i:n.ValidKeys])
	copy(n.Indices[i+1:n.ValidKeys+1], n.Indices[i:n.ValidKeys])
	n.Keys[i] = key
	n.Indices[i] = value
	n.ValidKeys++
	n.dirty = true
}

// leafDeleteAt removes the key/value pair at index i, shifting the
// tail left by one slot. It leaves the spare last-index slot (the
// leaf chain pointer) untouched.
func (n *Node) leafDeleteAt(i int) {
	copy(n.Keys[i:n.ValidKeys-1], n.Keys[i+1:n.ValidKeys])
	copy(n.Indices[i:n.ValidKeys-1], n.Indices[i+1:n.ValidKeys])
	n.Keys[n.ValidKeys-1] = nil
	n.ValidKeys--
	n.dirty = true
}

// interiorInsertAt inserts separator key at Keys[i] with its right
// child at Indices[i+1], shifting the tail right by one slot. The
// caller must have already verified there is room.
func (n *Node) interiorInsertAt(i int, key []byte, rightChild int64) {
	copy(n.Keys[i+1:n.ValidKeys+1], n.Keys[i:n.ValidKeys])
	copy(n.Indices[i+2:n.ValidKeys+2], n.Indices[i+1:n.ValidKeys+1])
	n.Keys[i] = key
	n.Indices[i+1] = rightChild
	n.ValidKeys++
	n.dirty = true
}

// interiorDeleteAt removes separator key i along with its right child
// (Indices[i+1]), shifting the tail left by one slot.
func (n *Node) interiorDeleteAt(i int) {
	copy(n.Keys[i:n.ValidKeys-1], n.Keys[i+1:n.ValidKeys])
	copy(n.Indices[i+1:n.ValidKeys], n.Indices[i+2:n.ValidKeys+1])
	n.Keys[n.ValidKeys-1] = nil
	n.ValidKeys--
	n.dirty = true
}

// hasRoom reports whether one more key can be added without splitting.
func (n *Node) hasRoom() bool {
	return int(n.ValidKeys) < n.Nodesize()
}
