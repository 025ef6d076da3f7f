package bptree

// Walker is a bounded forward iterator over the leaf chain, used for
// range scans (prefix scans, secondary-index range queries). It never
// descends the tree again once positioned: once First has located the
// starting leaf, Next only ever follows Node.Next() across leaf
// boundaries, exactly like the reference walker.
type Walker struct {
	tree *Tree

	lower, upper               []byte
	hasUpper                   bool
	includeLower, includeUpper bool

	leaf    *Node
	idx     int
	valid   bool
	started bool
}

// NewWalker returns a Walker positioned before the first entry
// satisfying the lower bound: key > lowerKey, or key >= lowerKey when
// includeLower is true (or the very first entry if lowerKey is nil).
// If upperKey is non-nil, iteration stops once a candidate key fails
// key < upperKey (or key <= upperKey when includeUpper is true).
func NewWalker(t *Tree, lowerKey []byte, includeLower bool, upperKey []byte, includeUpper bool) (*Walker, error) {
	w := &Walker{
		tree:         t,
		lower:        lowerKey,
		upper:        upperKey,
		hasUpper:     upperKey != nil,
		includeLower: includeLower,
		includeUpper: includeUpper,
	}
	return w, nil
}

// First descends to the correct starting leaf and positions the
// walker on its first qualifying entry. It must be called once before
// Next.
func (w *Walker) First() (bool, error) {
	w.started = true
	n, err := w.tree.root()
	if err != nil {
		return false, err
	}
	for !n.IsLeaf() {
		var i int
		if w.lower == nil {
			i = 0
		} else {
			i = n.findChildIndex(w.lower)
		}
		n, err = w.tree.readNode(n.Indices[i])
		if err != nil {
			return false, err
		}
	}
	idx := 0
	if w.lower != nil {
		var exact bool
		idx, exact = n.findKeyIndex(w.lower)
		if exact && !w.includeLower {
			idx++
		}
	}
	w.leaf = n
	w.idx = idx
	return w.settle()
}

// settle advances across empty/exhausted leaves until either a
// qualifying entry is found or the chain (or upper bound) is
// exhausted.
func (w *Walker) settle() (bool, error) {
	for {
		if w.idx < int(w.leaf.ValidKeys) {
			if w.hasUpper {
				k, up := string(w.leaf.Keys[w.idx]), string(w.upper)
				if (w.includeUpper && k > up) || (!w.includeUpper && k >= up) {
					w.valid = false
					return false, nil
				}
			}
			w.valid = true
			return true, nil
		}
		next := w.leaf.Next()
		if next == nilSeek {
			w.valid = false
			return false, nil
		}
		n, err := w.tree.readNode(next)
		if err != nil {
			return false, err
		}
		w.leaf = n
		w.idx = 0
	}
}

// Next advances to the next qualifying entry, returning false once
// the range (or the tree) is exhausted.
func (w *Walker) Next() (bool, error) {
	if !w.started {
		return w.First()
	}
	w.idx++
	return w.settle()
}

// Valid reports whether the walker currently sits on a usable entry.
func (w *Walker) Valid() bool {
	return w.valid
}

// CurrentKey returns the key at the walker's current position.
func (w *Walker) CurrentKey() []byte {
	return w.leaf.Keys[w.idx]
}

// CurrentValue returns the fixed-width payload at the walker's
// current position.
func (w *Walker) CurrentValue() int64 {
	return w.leaf.Indices[w.idx]
}
