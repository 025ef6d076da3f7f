package bptree

// Recopy rebuilds a tree from scratch into dst, walking src's leaf
// chain in key order and bulk-loading the result with a deliberately
// loose fill factor instead of the tight packing an ordinary
// one-at-a-time Put would produce. Leaves are filled to
// floor(nodesize/2)+1 entries and interior nodes to floor(nodesize/2)-1
// separators, leaving room for further inserts to land without an
// immediate split — the same headroom the original compaction pass
// buys by deferring and re-inserting a fraction of each full node's
// entries rather than packing every node to capacity.
func Recopy(src, dst *Tree) error {
	type pair struct {
		key   []byte
		value int64
	}

	var all []pair
	w, err := NewWalker(src, nil, true, nil, false)
	if err != nil {
		return err
	}
	ok, err := w.First()
	if err != nil {
		return err
	}
	for ok {
		k := append([]byte(nil), w.CurrentKey()...)
		all = append(all, pair{key: k, value: w.CurrentValue()})
		ok, err = w.Next()
		if err != nil {
			return err
		}
	}

	if len(all) == 0 {
		return nil
	}

	// dst.Create already wrote an initial empty root leaf; fold it onto
	// the free list so the first allocateNode below reclaims its slot
	// instead of leaving it as permanent dead space.
	if err := dst.releaseNode(dst.header.RootSeek); err != nil {
		return err
	}

	leafFill := dst.nodesize/2 + 1
	interiorFill := dst.nodesize/2 - 1
	if interiorFill < 1 {
		interiorFill = 1
	}

	// Build the leaf level, deliberately underfilled.
	type builtLevel struct {
		positions []int64
		seps      [][]byte // separator candidates: first key of each node after the first
	}

	var leaves builtLevel
	for start := 0; start < len(all); {
		end := start + leafFill
		if end > len(all) {
			end = len(all)
		}
		chunk := all[start:end]
		pos, err := dst.allocateNode()
		if err != nil {
			return err
		}
		leaf := NewEmptyNode(dst.nodesize, pos, FlagLeaf)
		for i, p := range chunk {
			leaf.Keys[i] = p.key
			leaf.Indices[i] = p.value
		}
		leaf.ValidKeys = int16(len(chunk))
		leaf.SetNext(nilSeek)
		if len(leaves.positions) > 0 {
			prevPos := leaves.positions[len(leaves.positions)-1]
			prev, err := dst.readNode(prevPos)
			if err != nil {
				return err
			}
			prev.SetNext(pos)
			if err := dst.cache.put(prevPos, prev); err != nil {
				return err
			}
			leaves.seps = append(leaves.seps, chunk[0].key)
		}
		if err := dst.cacheNode(leaf); err != nil {
			return err
		}
		leaves.positions = append(leaves.positions, pos)
		dst.header.Length += int64(len(chunk))
		start = end
	}

	if len(leaves.positions) == 1 {
		dst.setRootFlag(leaves.positions[0], true)
		dst.header.RootSeek = leaves.positions[0]
		dst.markHeaderDirty()
		return nil
	}

	// Build interior levels bottom-up until a single root remains.
	childPositions := leaves.positions
	childSeps := leaves.seps
	for len(childPositions) > 1 {
		var nextPositions []int64
		var nextSeps [][]byte
		fill := interiorFill
		i := 0
		for i < len(childPositions) {
			childEnd := i + fill + 1
			if childEnd > len(childPositions) {
				childEnd = len(childPositions)
			}
			pos, err := dst.allocateNode()
			if err != nil {
				return err
			}
			node := NewEmptyNode(dst.nodesize, pos, FlagInterior)
			for j := i; j < childEnd; j++ {
				node.Indices[j-i] = childPositions[j]
				if j > i {
					node.Keys[j-i-1] = childSeps[j-1]
				}
			}
			node.ValidKeys = int16(childEnd - i - 1)
			if err := dst.cacheNode(node); err != nil {
				return err
			}
			if len(nextPositions) > 0 {
				nextSeps = append(nextSeps, childSeps[i-1])
			}
			nextPositions = append(nextPositions, pos)
			i = childEnd
		}
		childPositions = nextPositions
		childSeps = nextSeps
	}

	root := childPositions[0]
	dst.setRootFlag(root, false)
	dst.header.RootSeek = root
	dst.markHeaderDirty()
	return nil
}

// setRootFlag marks position as the tree root, choosing
// FlagLeafAndRoot or FlagRoot depending on whether it is also a leaf.
func (t *Tree) setRootFlag(position int64, isLeaf bool) {
	n, err := t.readNode(position)
	if err != nil {
		return
	}
	if isLeaf {
		n.Flag = FlagLeafAndRoot
	} else {
		n.Flag = FlagRoot
	}
	n.MarkDirty()
	_ = t.cache.put(position, n)
}
