package bptree

import (
	"bytes"
	"io"
	"os"

	"github.com/ssargent/freyjadb/pkg/codec"
)

// nilSeek marks the absence of a position: an empty free list, or a
// leaf with no successor.
const nilSeek int64 = -1

// DefaultNodeSize is the branching factor used when a tree is created
// without an explicit override; comparable to the teacher's default
// tuning constants elsewhere in the config layer.
const DefaultNodeSize = 212

// treeHeader is the fixed record at file offset 0.
type treeHeader struct {
	Length   int64 // number of live key/value pairs
	KeyLen   int64
	NodeSize int64
	RootSeek int64
	FreeSeek int64
}

// Tree is a disk-resident B+Tree mapping fixed-max-length byte-string
// keys to fixed-width int64 payloads (typically file offsets into a
// companion value heap; see pkg/store's string-value overlay). It is
// single-threaded: callers serialize their own access, exactly like
// the teacher's original log-structured store did before this engine
// replaced it.
type Tree struct {
	file   *os.File
	header treeHeader

	nodesize   int
	keylen     int
	recordSize int

	cache        *nodeCache
	cacheEnabled bool
	headerDirty  bool
	readOnly     bool

	nextAppend int64
}

// Create initializes a brand new tree file with the given nodesize
// (branching factor) and keylen (maximum key length in bytes), and
// returns it open for use. The root begins life as a single empty
// leaf-and-root node.
func Create(path string, nodesize, keylen int) (*Tree, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	recordSize := codec.NodeRecordSize(nodesize, keylen)
	rootPos := int64(codec.HeaderRecordSize)

	t := &Tree{
		file:       f,
		nodesize:   nodesize,
		keylen:     keylen,
		recordSize: recordSize,
		nextAppend: rootPos + int64(recordSize),
		header: treeHeader{
			Length:   0,
			KeyLen:   int64(keylen),
			NodeSize: int64(nodesize),
			RootSeek: rootPos,
			FreeSeek: nilSeek,
		},
	}
	t.cache = newNodeCache(DefaultCacheCapacity, t)

	root := NewEmptyNode(nodesize, rootPos, FlagLeafAndRoot)
	root.SetNext(nilSeek)
	if err := t.writeNode(root); err != nil {
		f.Close()
		return nil, err
	}
	if err := t.writeHeaderNow(); err != nil {
		f.Close()
		return nil, err
	}
	t.cacheEnabled = true
	return t, nil
}

// Open opens an existing tree file for read/write use.
func Open(path string) (*Tree, error) {
	return open(path, false)
}

// OpenReadOnly opens an existing tree file for lookups only; any
// mutating call returns ErrReadOnly. This is the "caching_BPT"-style
// mode: combined with pkg/store's CachingStringStore it memoizes
// repeat point lookups against a tree that is guaranteed never to
// change underneath the cache.
func OpenReadOnly(path string) (*Tree, error) {
	return open(path, true)
}

func open(path string, readOnly bool) (*Tree, error) {
	flag := os.O_RDWR
	if readOnly {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, err
	}
	hdrBuf := make([]byte, codec.HeaderRecordSize)
	if _, err := io.ReadFull(f, hdrBuf); err != nil {
		f.Close()
		return nil, &TreeError{"bptree: failed to read header: " + err.Error()}
	}
	length, keylen, nodesize, rootSeek, freeSeek, err := codec.DecodeHeader(hdrBuf)
	if err != nil {
		f.Close()
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	t := &Tree{
		file:       f,
		nodesize:   int(nodesize),
		keylen:     int(keylen),
		recordSize: codec.NodeRecordSize(int(nodesize), int(keylen)),
		nextAppend: info.Size(),
		readOnly:   readOnly,
		header: treeHeader{
			Length:   length,
			KeyLen:   keylen,
			NodeSize: nodesize,
			RootSeek: rootSeek,
			FreeSeek: freeSeek,
		},
	}
	t.cache = newNodeCache(DefaultCacheCapacity, t)
	t.cacheEnabled = true
	return t, nil
}

// Len returns the number of live key/value pairs in the tree.
func (t *Tree) Len() int64 {
	return t.header.Length
}

// Keylen returns the maximum key length the tree was created with.
func (t *Tree) Keylen() int {
	return t.keylen
}

// Nodesize returns the branching factor the tree was created with.
func (t *Tree) Nodesize() int {
	return t.nodesize
}

// SetCacheCapacity replaces the tree's node cache with one sized to
// capacity (still clamped to MinCacheCapacity). It must be called
// immediately after Create/Open and before any node is read or
// written, since it discards rather than flushes whatever is in the
// current, necessarily still-empty, cache.
func (t *Tree) SetCacheCapacity(capacity int) {
	t.cache = newNodeCache(capacity, t)
}

// EnableCache turns on deferred header writes: header changes
// accumulate in memory and are flushed on DisableCache or Close. Node
// writes always go through the write-back cache regardless of this
// setting; this only governs the header's own write policy, mirroring
// the original's enable_fifo/disable_fifo distinction.
func (t *Tree) EnableCache() {
	t.cacheEnabled = true
}

// DisableCache flushes every dirty node and, if the header has
// pending changes, writes it immediately.
func (t *Tree) DisableCache() error {
	t.cacheEnabled = false
	if err := t.cache.flush(); err != nil {
		return err
	}
	if t.headerDirty {
		return t.writeHeaderNow()
	}
	return nil
}

// Close flushes all pending writes and releases the file handle.
func (t *Tree) Close() error {
	if !t.readOnly {
		if err := t.cache.flush(); err != nil {
			return err
		}
		if err := t.writeHeaderNow(); err != nil {
			return err
		}
	}
	return t.file.Close()
}

func (t *Tree) markHeaderDirty() {
	if t.cacheEnabled {
		t.headerDirty = true
		return
	}
	_ = t.writeHeaderNow()
}

func (t *Tree) writeHeaderNow() error {
	buf := codec.EncodeHeader(t.header.Length, t.header.KeyLen, t.header.NodeSize, t.header.RootSeek, t.header.FreeSeek)
	if _, err := t.file.WriteAt(buf, 0); err != nil {
		return err
	}
	t.headerDirty = false
	return nil
}

// nextAppendPosition returns the offset a brand-new node record would
// occupy if the node region grew by one slot.
func (t *Tree) nextAppendPosition() int64 {
	return t.nextAppend
}

// growNodeRegion reserves the next append slot for a future write.
func (t *Tree) growNodeRegion() {
	t.nextAppend += int64(t.recordSize)
}

// readNode loads the node at position, consulting the cache first.
func (t *Tree) readNode(position int64) (*Node, error) {
	if n, ok := t.cache.get(position); ok {
		return n, nil
	}
	buf := make([]byte, t.recordSize)
	if _, err := t.file.ReadAt(buf, position); err != nil {
		return nil, &TreeError{"bptree: failed to read node: " + err.Error()}
	}
	n, err := decodeNode(buf, position, t.nodesize, t.keylen)
	if err != nil {
		return nil, err
	}
	if err := t.cache.put(position, n); err != nil {
		return nil, err
	}
	return n, nil
}

// writeNode persists a node's current contents directly to disk. It
// is used both by the node cache on eviction/flush and whenever a
// caller needs a guaranteed-durable write outside the cache's normal
// write-back path (tree creation, for instance).
func (t *Tree) writeNode(n *Node) error {
	if t.readOnly {
		return ErrReadOnly
	}
	buf, err := n.encode(t.recordSize, t.keylen)
	if err != nil {
		return err
	}
	if _, err := t.file.WriteAt(buf, n.Position); err != nil {
		return err
	}
	n.clearDirty()
	return nil
}

// cacheNode installs a freshly constructed node into the cache as
// dirty, deferring its disk write to the normal write-back path.
func (t *Tree) cacheNode(n *Node) error {
	n.MarkDirty()
	return t.cache.put(n.Position, n)
}

// root returns the current root node.
func (t *Tree) root() (*Node, error) {
	return t.readNode(t.header.RootSeek)
}

func keyFits(key []byte, keylen int) bool {
	return len(key) <= keylen
}

// Has reports whether key is present. It is the fixed, obvious
// delegate the original's broken no-argument has_key should have
// been: a plain call to Get that discards the value.
func (t *Tree) Has(key []byte) (bool, error) {
	_, err := t.Get(key)
	if err != nil {
		if err == ErrKeyNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Get returns the fixed-width payload stored for key.
func (t *Tree) Get(key []byte) (int64, error) {
	if !keyFits(key, t.keylen) {
		return 0, ErrKeyTooLong
	}
	n, err := t.root()
	if err != nil {
		return 0, err
	}
	for !n.IsLeaf() {
		i := n.findChildIndex(key)
		n, err = t.readNode(n.Indices[i])
		if err != nil {
			return 0, err
		}
	}
	i, found := n.findKeyIndex(key)
	if !found {
		return 0, ErrKeyNotFound
	}
	return n.Indices[i], nil
}

// Put inserts or overwrites the payload for key.
func (t *Tree) Put(key []byte, value int64) error {
	if t.readOnly {
		return ErrReadOnly
	}
	if !keyFits(key, t.keylen) {
		return ErrKeyTooLong
	}
	if value < 0 {
		return ErrInvalidValue
	}
	root, err := t.root()
	if err != nil {
		return err
	}
	ownKey := append([]byte(nil), key...)

	promoted, newSibling, err := t.insert(root, ownKey, value)
	if err != nil {
		return err
	}
	if newSibling != nil {
		// The root split. Allocate a fresh interior root over the two
		// halves and demote the old root's flag accordingly.
		newRootPos, err := t.allocateNode()
		if err != nil {
			return err
		}
		newRoot := NewEmptyNode(t.nodesize, newRootPos, FlagRoot)
		newRoot.ValidKeys = 1
		newRoot.Keys[0] = promoted
		newRoot.Indices[0] = root.Position
		newRoot.Indices[1] = newSibling.Position
		if err := t.cacheNode(newRoot); err != nil {
			return err
		}
		if root.Flag == FlagLeafAndRoot {
			root.Flag = FlagLeaf
		} else {
			root.Flag = FlagInterior
		}
		root.MarkDirty()
		if err := t.cache.put(root.Position, root); err != nil {
			return err
		}
		t.header.RootSeek = newRootPos
		t.markHeaderDirty()
	}
	return nil
}

// insert recursively descends to the correct leaf and inserts
// key/value, splitting nodes on overflow exactly as divideEntries
// describes. It returns a (promoted separator, new right sibling)
// pair when n split, or (nil, nil) otherwise.
func (t *Tree) insert(n *Node, key []byte, value int64) ([]byte, *Node, error) {
	if n.IsLeaf() {
		i, found := n.findKeyIndex(key)
		if found {
			n.Indices[i] = value
			n.MarkDirty()
			if err := t.cache.put(n.Position, n); err != nil {
				return nil, nil, err
			}
			return nil, nil, nil
		}
		if n.hasRoom() {
			n.leafInsertAt(i, key, value)
			if err := t.cache.put(n.Position, n); err != nil {
				return nil, nil, err
			}
			t.header.Length++
			t.markHeaderDirty()
			return nil, nil, nil
		}
		return t.splitLeaf(n, i, key, value)
	}

	i := n.findChildIndex(key)
	child, err := t.readNode(n.Indices[i])
	if err != nil {
		return nil, nil, err
	}
	promoted, newChild, err := t.insert(child, key, value)
	if err != nil {
		return nil, nil, err
	}
	if newChild == nil {
		return nil, nil, nil
	}
	if n.hasRoom() {
		n.interiorInsertAt(i, promoted, newChild.Position)
		if err := t.cache.put(n.Position, n); err != nil {
			return nil, nil, err
		}
		return nil, nil, nil
	}
	return t.splitInterior(n, i, promoted, newChild.Position)
}

// divideEntries splits an over-full set of entries between two node
// positions, following the original's middle = len(entries)/2 + 1
// rule so the left half always ends up with the larger (or equal)
// share.
func divideEntries(totalKeys int) (leftCount int) {
	return totalKeys/2 + 1
}

// splitLeaf builds the overflow key list (S+1 entries: the S existing
// plus the new one, in order), divides them per divideEntries, writes
// the left half back into n and the right half into a freshly
// allocated sibling, relinks the leaf chain, and returns the
// separator (the right half's first key) to be inserted in the
// parent.
func (t *Tree) splitLeaf(n *Node, insertAt int, key []byte, value int64) ([]byte, *Node, error) {
	s := n.Nodesize()
	keys := make([][]byte, 0, s+1)
	vals := make([]int64, 0, s+1)
	keys = append(keys, n.Keys[:insertAt]...)
	vals = append(vals, n.Indices[:insertAt]...)
	keys = append(keys, key)
	vals = append(vals, value)
	keys = append(keys, n.Keys[insertAt:int(n.ValidKeys)]...)
	vals = append(vals, n.Indices[insertAt:int(n.ValidKeys)]...)

	left := divideEntries(len(keys))

	siblingPos, err := t.allocateNode()
	if err != nil {
		return nil, nil, err
	}
	sibling := NewEmptyNode(t.nodesize, siblingPos, FlagLeaf)

	oldNext := n.Next()
	for i := 0; i < left; i++ {
		n.Keys[i] = keys[i]
		n.Indices[i] = vals[i]
	}
	n.ValidKeys = int16(left)
	n.SetNext(siblingPos)

	for i := left; i < len(keys); i++ {
		sibling.Keys[i-left] = keys[i]
		sibling.Indices[i-left] = vals[i]
	}
	sibling.ValidKeys = int16(len(keys) - left)
	sibling.SetNext(oldNext)

	n.MarkDirty()
	if err := t.cache.put(n.Position, n); err != nil {
		return nil, nil, err
	}
	if err := t.cacheNode(sibling); err != nil {
		return nil, nil, err
	}
	t.header.Length++
	t.markHeaderDirty()

	return sibling.Keys[0], sibling, nil
}

// splitInterior mirrors splitLeaf for an interior node: it builds the
// overflow list of S+1 separators and S+2 children, divides it, and
// returns the separator promoted to the parent (which, unlike a leaf
// split, is removed from both halves rather than duplicated into the
// right half).
func (t *Tree) splitInterior(n *Node, insertAt int, key []byte, rightChild int64) ([]byte, *Node, error) {
	s := n.Nodesize()
	keys := make([][]byte, 0, s+1)
	children := make([]int64, 0, s+2)

	keys = append(keys, n.Keys[:insertAt]...)
	keys = append(keys, key)
	keys = append(keys, n.Keys[insertAt:int(n.ValidKeys)]...)

	children = append(children, n.Indices[:insertAt+1]...)
	children = append(children, rightChild)
	children = append(children, n.Indices[insertAt+1:int(n.ValidKeys)+1]...)

	left := divideEntries(len(keys))
	promoted := keys[left]

	siblingPos, err := t.allocateNode()
	if err != nil {
		return nil, nil, err
	}
	sibling := NewEmptyNode(t.nodesize, siblingPos, FlagInterior)

	for i := 0; i < left; i++ {
		n.Keys[i] = keys[i]
		n.Indices[i] = children[i]
	}
	n.Indices[left] = children[left]
	n.ValidKeys = int16(left)

	rightKeys := keys[left+1:]
	rightChildren := children[left+1:]
	for i, k := range rightKeys {
		sibling.Keys[i] = k
	}
	for i, c := range rightChildren {
		sibling.Indices[i] = c
	}
	sibling.ValidKeys = int16(len(rightKeys))

	n.MarkDirty()
	if err := t.cache.put(n.Position, n); err != nil {
		return nil, nil, err
	}
	if err := t.cacheNode(sibling); err != nil {
		return nil, nil, err
	}

	return promoted, sibling, nil
}

// Delete removes key, redistributing or merging underfull nodes along
// the path back to the root, then collapsing the root if it drops to
// a single child.
func (t *Tree) Delete(key []byte) error {
	if t.readOnly {
		return ErrReadOnly
	}
	if !keyFits(key, t.keylen) {
		return ErrKeyTooLong
	}
	root, err := t.root()
	if err != nil {
		return err
	}
	removed, err := t.remove(root, key)
	if err != nil {
		return err
	}
	if !removed {
		return ErrKeyNotFound
	}

	if !root.IsLeaf() && root.ValidKeys == 0 {
		// The root collapsed to a single child; promote it.
		onlyChild, err := t.readNode(root.Indices[0])
		if err != nil {
			return err
		}
		if err := t.releaseNode(root.Position); err != nil {
			return err
		}
		if onlyChild.IsLeaf() {
			onlyChild.Flag = FlagLeafAndRoot
		} else {
			onlyChild.Flag = FlagRoot
		}
		onlyChild.MarkDirty()
		if err := t.cache.put(onlyChild.Position, onlyChild); err != nil {
			return err
		}
		t.header.RootSeek = onlyChild.Position
		t.markHeaderDirty()
	}
	return nil
}

// remove recursively deletes key from the subtree rooted at n,
// rebalancing the child it descended through if that child becomes
// underfull. It returns whether the key was found and removed.
func (t *Tree) remove(n *Node, key []byte) (bool, error) {
	if n.IsLeaf() {
		i, found := n.findKeyIndex(key)
		if !found {
			return false, nil
		}
		n.leafDeleteAt(i)
		if err := t.cache.put(n.Position, n); err != nil {
			return false, err
		}
		t.header.Length--
		t.markHeaderDirty()
		return true, nil
	}

	i := n.findChildIndex(key)
	child, err := t.readNode(n.Indices[i])
	if err != nil {
		return false, err
	}
	found, err := t.remove(child, key)
	if err != nil || !found {
		return found, err
	}

	if err := t.rebalanceChild(n, i, child); err != nil {
		return false, err
	}
	return true, nil
}

// rebalanceChild restores child (the i-th child of n) to a legal size
// after a deletion reduced it, if needed. It implements the same
// left/right sibling selection and redistribute-vs-merge decision as
// the original design: the last child pairs with its left sibling as
// "left"; every other child pairs with itself as "left" and its right
// sibling as "right". Interiors and leaves use different redistribute
// thresholds (interior: |entries| >= nodesize; leaf: |entries| >
// nodesize), matching the asymmetry in the reference implementation.
func (t *Tree) rebalanceChild(parent *Node, childIdx int, child *Node) error {
	s := t.nodesize
	minKeys := s / 2
	if int(child.ValidKeys) >= minKeys {
		return nil
	}

	isLast := childIdx == int(parent.ValidKeys)
	var leftIdx, rightIdx int
	var left, right *Node
	var err error
	if isLast {
		leftIdx, rightIdx = childIdx-1, childIdx
		left, err = t.readNode(parent.Indices[leftIdx])
		if err != nil {
			return err
		}
		right = child
	} else {
		leftIdx, rightIdx = childIdx, childIdx+1
		left = child
		right, err = t.readNode(parent.Indices[rightIdx])
		if err != nil {
			return err
		}
	}
	sepIdx := leftIdx // separator between left and right children lives at Keys[leftIdx]

	if left.IsLeaf() {
		return t.rebalanceLeafPair(parent, sepIdx, left, right)
	}
	return t.rebalanceInteriorPair(parent, sepIdx, left, right)
}

func (t *Tree) rebalanceLeafPair(parent *Node, sepIdx int, left, right *Node) error {
	s := t.nodesize
	total := int(left.ValidKeys) + int(right.ValidKeys)
	if total > s {
		// Redistribute: move entries across the boundary so both
		// sides end up with their fair share (divideEntries rule).
		keys := append(append([][]byte{}, left.Keys[:left.ValidKeys]...), right.Keys[:right.ValidKeys]...)
		vals := append(append([]int64{}, left.Indices[:left.ValidKeys]...), right.Indices[:right.ValidKeys]...)
		newLeft := divideEntries(total)
		for i := 0; i < newLeft; i++ {
			left.Keys[i] = keys[i]
			left.Indices[i] = vals[i]
		}
		left.ValidKeys = int16(newLeft)
		for i := newLeft; i < total; i++ {
			right.Keys[i-newLeft] = keys[i]
			right.Indices[i-newLeft] = vals[i]
		}
		right.ValidKeys = int16(total - newLeft)
		left.MarkDirty()
		right.MarkDirty()
		if err := t.cache.put(left.Position, left); err != nil {
			return err
		}
		if err := t.cache.put(right.Position, right); err != nil {
			return err
		}
		parent.Keys[sepIdx] = right.Keys[0]
		parent.MarkDirty()
		return t.cache.put(parent.Position, parent)
	}

	// Merge right into left, unlink right from the leaf chain, and
	// remove the separator (and right's child pointer) from parent.
	for i := 0; i < int(right.ValidKeys); i++ {
		left.Keys[int(left.ValidKeys)+i] = right.Keys[i]
		left.Indices[int(left.ValidKeys)+i] = right.Indices[i]
	}
	left.ValidKeys += right.ValidKeys
	left.SetNext(right.Next())
	left.MarkDirty()
	if err := t.cache.put(left.Position, left); err != nil {
		return err
	}
	if err := t.releaseNode(right.Position); err != nil {
		return err
	}
	parent.interiorDeleteAt(sepIdx)
	parent.MarkDirty()
	return t.cache.put(parent.Position, parent)
}

func (t *Tree) rebalanceInteriorPair(parent *Node, sepIdx int, left, right *Node) error {
	s := t.nodesize
	// Concatenate left's entries, the pulled-down parent separator,
	// and right's entries into one list; ki's length determines
	// redistribute vs merge. Interiors redistribute at >= nodesize,
	// one threshold stricter than leaves (> nodesize), matching the
	// asymmetry of the reference algorithm.
	keys := make([][]byte, 0, int(left.ValidKeys)+1+int(right.ValidKeys))
	keys = append(keys, left.Keys[:left.ValidKeys]...)
	keys = append(keys, parent.Keys[sepIdx])
	keys = append(keys, right.Keys[:right.ValidKeys]...)

	children := make([]int64, 0, int(left.ValidKeys)+int(right.ValidKeys)+2)
	children = append(children, left.Indices[:left.ValidKeys+1]...)
	children = append(children, right.Indices[:right.ValidKeys+1]...)

	if len(keys) >= s {
		newLeft := divideEntries(len(keys))
		for i := 0; i < newLeft; i++ {
			left.Keys[i] = keys[i]
		}
		for i := 0; i <= newLeft; i++ {
			left.Indices[i] = children[i]
		}
		left.ValidKeys = int16(newLeft)

		promoted := keys[newLeft]
		rightKeys := keys[newLeft+1:]
		rightChildren := children[newLeft+1:]
		for i, k := range rightKeys {
			right.Keys[i] = k
		}
		for i, c := range rightChildren {
			right.Indices[i] = c
		}
		right.ValidKeys = int16(len(rightKeys))

		left.MarkDirty()
		right.MarkDirty()
		if err := t.cache.put(left.Position, left); err != nil {
			return err
		}
		if err := t.cache.put(right.Position, right); err != nil {
			return err
		}
		parent.Keys[sepIdx] = promoted
		parent.MarkDirty()
		return t.cache.put(parent.Position, parent)
	}

	// Merge: left absorbs the separator and all of right's entries.
	for i, k := range keys[int(left.ValidKeys)+1:] {
		left.Keys[int(left.ValidKeys)+1+i] = k
	}
	left.Keys[left.ValidKeys] = parent.Keys[sepIdx]
	for i, c := range children[int(left.ValidKeys)+1:] {
		left.Indices[int(left.ValidKeys)+1+i] = c
	}
	left.ValidKeys = int16(len(keys))
	left.MarkDirty()
	if err := t.cache.put(left.Position, left); err != nil {
		return err
	}
	if err := t.releaseNode(right.Position); err != nil {
		return err
	}
	parent.interiorDeleteAt(sepIdx)
	parent.MarkDirty()
	return t.cache.put(parent.Position, parent)
}

// Dump writes a recursive, human-readable rendering of the tree's
// structure (flag, validkeys, keys, indices) to w, along with the
// free-list chain. It is a debugging aid, not part of the durable
// format, grounded in the original implementation's dump().
func (t *Tree) Dump(w io.Writer) error {
	root, err := t.root()
	if err != nil {
		return err
	}
	if err := t.dumpNode(w, root, 0); err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.WriteString("freelist:")
	pos := t.header.FreeSeek
	for pos != nilSeek {
		n, err := t.readNode(pos)
		if err != nil {
			return err
		}
		buf.WriteString(" ")
		buf.WriteString(itoa(pos))
		pos = n.FreeNext()
	}
	buf.WriteString("\n")
	_, err = w.Write(buf.Bytes())
	return err
}

func (t *Tree) dumpNode(w io.Writer, n *Node, depth int) error {
	var buf bytes.Buffer
	for i := 0; i < depth; i++ {
		buf.WriteString("  ")
	}
	buf.WriteString(nodeLabel(n))
	buf.WriteString("\n")
	if _, err := w.Write(buf.Bytes()); err != nil {
		return err
	}
	if n.IsLeaf() {
		return nil
	}
	for i := 0; i <= int(n.ValidKeys); i++ {
		child, err := t.readNode(n.Indices[i])
		if err != nil {
			return err
		}
		if err := t.dumpNode(w, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func nodeLabel(n *Node) string {
	kind := "interior"
	if n.IsLeaf() {
		kind = "leaf"
	}
	if n.IsRoot() {
		kind += "+root"
	}
	s := "[" + kind + " pos=" + itoa(n.Position) + " validkeys=" + itoa(int64(n.ValidKeys)) + " keys="
	for i := 0; i < int(n.ValidKeys); i++ {
		if i > 0 {
			s += ","
		}
		s += string(n.Keys[i])
	}
	s += "]"
	return s
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var digits []byte
	for v > 0 {
		digits = append([]byte{byte('0' + v%10)}, digits...)
		v /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}
