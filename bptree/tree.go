package bptree

import "bytes"

// descendPointer implements the shared Root/Interior descent rule (spec
// §4.4.1 step 2, B+ convention): the first testkey with key < testkey
// selects the pointer to its left; a key equal to a separator falls
// through to the right, since a leaf split's separator is only retained
// in the right half (splitLeaf, DESIGN.md). If no testkey qualifies, the
// rightmost pointer is taken. ok is false when the node has zero keys --
// a dead end.
func descendPointer(node Node, key []byte) (ptrIdx int, ok bool, err error) {
	n := node.NumKeys()
	if n == 0 {
		return 0, false, nil
	}
	for i := 0; i < n; i++ {
		testkey, err := node.GetKey(i)
		if err != nil {
			return 0, false, err
		}
		if bytes.Compare(key, testkey) < 0 {
			p, err := node.GetPointer(i)
			return p, true, err
		}
	}
	p, err := node.GetPointer(n)
	return p, true, err
}

// descend walks from the root to the leaf that would hold key, recording
// the block index of every Root/Interior node visited into path. Returns
// ErrNonExistent if the walk dead-ends before reaching a leaf (empty tree).
func (idx *Index) descend(key []byte) (path []int, leafBlk int, leaf Node, err error) {
	blk := idx.super.RootBlock()
	for {
		node, err := idx.readNode(blk)
		if err != nil {
			return nil, 0, nil, err
		}
		switch node.Kind() {
		case KindRoot, KindInterior:
			path = append(path, blk)
			ptr, ok, err := descendPointer(node, key)
			if err != nil {
				return nil, 0, nil, err
			}
			if !ok {
				return nil, 0, nil, ErrNonExistent
			}
			blk = ptr
		case KindLeaf:
			return path, blk, node, nil
		default:
			return nil, 0, nil, ErrInsane
		}
	}
}

func findKeyInLeaf(leaf Node, key []byte) (idx int, found bool, err error) {
	n := leaf.NumKeys()
	for i := 0; i < n; i++ {
		testkey, err := leaf.GetKey(i)
		if err != nil {
			return 0, false, err
		}
		cmp := bytes.Compare(testkey, key)
		if cmp == 0 {
			return i, true, nil
		}
		if cmp > 0 {
			return i, false, nil
		}
	}
	return n, false, nil
}

// Lookup returns the value stored for key, or ErrNonExistent.
func (idx *Index) Lookup(key []byte) ([]byte, error) {
	_, _, leaf, err := idx.descend(key)
	if err != nil {
		return nil, wrapErr("lookup", key, err)
	}
	pos, found, err := findKeyInLeaf(leaf, key)
	if err != nil {
		return nil, wrapErr("lookup", key, err)
	}
	if !found {
		return nil, wrapErr("lookup", key, ErrNonExistent)
	}
	val, err := leaf.GetValue(pos)
	if err != nil {
		return nil, wrapErr("lookup", key, err)
	}
	return val, nil
}

// Update overwrites the value stored for an existing key, or fails with
// ErrNonExistent.
func (idx *Index) Update(key, value []byte) error {
	if len(value) != idx.valueSize {
		return wrapErr("update", key, ErrInsane)
	}
	_, leafBlk, leaf, err := idx.descend(key)
	if err != nil {
		return wrapErr("update", key, err)
	}
	pos, found, err := findKeyInLeaf(leaf, key)
	if err != nil {
		return wrapErr("update", key, err)
	}
	if !found {
		return wrapErr("update", key, ErrNonExistent)
	}
	if err := leaf.SetValue(pos, value); err != nil {
		return wrapErr("update", key, err)
	}
	return wrapErr("update", key, idx.writeNode(leafBlk, leaf))
}

// Insert adds (key,value) to the tree, splitting and promoting up the
// recorded path on overflow (spec §4.4.2). Fails with ErrConflict if key
// already exists, ErrNoSpace if the free list is exhausted mid-split.
func (idx *Index) Insert(key, value []byte) error {
	if len(key) != idx.keySize {
		return wrapErr("insert", key, ErrInsane)
	}
	if len(value) != idx.valueSize {
		return wrapErr("insert", key, ErrInsane)
	}

	path, leafBlk, leaf, err := idx.descend(key)
	if err != nil && err != ErrNonExistent {
		return wrapErr("insert", key, err)
	}
	if err == ErrNonExistent {
		// Empty tree bootstrap: the root has zero keys and no children
		// yet. Give it its first two leaves directly rather than
		// letting a would-be root-as-interior node exist with one
		// child and zero keys (which the descent rule above could
		// never route through again).
		return idx.bootstrapFirstInsert(idx.super.RootBlock(), key, value)
	}

	if _, found, ferr := findKeyInLeaf(leaf, key); ferr != nil {
		return wrapErr("insert", key, ferr)
	} else if found {
		return wrapErr("insert", key, ErrConflict)
	}

	pos, _, err := findKeyInLeaf(leaf, key)
	if err != nil {
		return wrapErr("insert", key, err)
	}
	if err := leaf.insertLeafSlotAt(pos, key, value); err != nil {
		return wrapErr("insert", key, err)
	}
	if err := idx.writeNode(leafBlk, leaf); err != nil {
		return wrapErr("insert", key, err)
	}

	return wrapErr("insert", key, idx.cascadeSplit(path, leafBlk, leaf))
}

func (idx *Index) bootstrapFirstInsert(rootBlk int, key, value []byte) error {
	leftBlk, err := idx.allocate()
	if err != nil {
		return wrapErr("insert", key, err)
	}
	rightBlk, err := idx.allocate()
	if err != nil {
		return wrapErr("insert", key, err)
	}

	// The separator equals key itself, and descendPointer routes a key
	// equal to a separator right (see the convention note on
	// descendPointer), so key must live in the right leaf -- the left
	// leaf stays empty, same as the "nothing is less than the only key
	// in the tree" case of a real split.
	left := NewNode(KindLeaf, idx.blockSize, idx.keySize, idx.valueSize)
	left.setSiblingNext(rightBlk)

	right := NewNode(KindLeaf, idx.blockSize, idx.keySize, idx.valueSize)
	if err := right.insertLeafSlotAt(0, key, value); err != nil {
		return wrapErr("insert", key, err)
	}

	if err := idx.writeNode(leftBlk, left); err != nil {
		return wrapErr("insert", key, err)
	}
	if err := idx.writeNode(rightBlk, right); err != nil {
		return wrapErr("insert", key, err)
	}

	root := NewNode(KindRoot, idx.blockSize, idx.keySize, idx.valueSize)
	if err := root.SetPointer(0, leftBlk); err != nil {
		return wrapErr("insert", key, err)
	}
	if err := root.insertInteriorSlotAt(0, key, rightBlk); err != nil {
		return wrapErr("insert", key, err)
	}
	return wrapErr("insert", key, idx.writeNode(rootBlk, root))
}

// cascadeSplit repeatedly splits overflowing nodes and promotes a
// separator up the recorded ancestor path, allocating a new root if the
// split reaches the top (spec §4.4.2 steps 4.i-4.iii). The original block
// is always reused as the left half; only the right half is freshly
// allocated, so no sibling-chain fixups beyond the two nodes involved are
// ever required (spec §9 design note / DESIGN.md). A node splits as soon
// as it holds maxKeys keys: its slot area has room for exactly maxKeys,
// and an insert into a full node is refused with ErrOutOfBounds.
func (idx *Index) cascadeSplit(path []int, blk int, node Node) error {
	for node.NumKeys() >= idx.maxKeys {
		var separator []byte
		var rightBlk int
		var err error

		if node.Kind() == KindLeaf {
			separator, rightBlk, err = idx.splitLeaf(blk, node)
		} else {
			separator, rightBlk, err = idx.splitInterior(blk, node)
		}
		if err != nil {
			return err
		}

		if len(path) == 0 {
			return idx.promoteNewRoot(blk, separator, rightBlk)
		}

		parentBlk := path[len(path)-1]
		path = path[:len(path)-1]

		parent, err := idx.readNode(parentBlk)
		if err != nil {
			return err
		}
		childIdx, err := findChildIndex(parent, blk)
		if err != nil {
			return err
		}
		if err := parent.insertInteriorSlotAt(childIdx, separator, rightBlk); err != nil {
			return err
		}
		if err := idx.writeNode(parentBlk, parent); err != nil {
			return err
		}

		blk = parentBlk
		node = parent
	}
	return nil
}

func findChildIndex(parent Node, childBlk int) (int, error) {
	for i := 0; i <= parent.NumKeys(); i++ {
		p, err := parent.GetPointer(i)
		if err != nil {
			return 0, err
		}
		if p == childBlk {
			return i, nil
		}
	}
	return 0, ErrInsane
}

// splitLeaf carves the right half of an over-full leaf into a freshly
// allocated block, reusing the original block as the left half. The
// separator promoted to the parent is a *copy* of the right half's first
// key (leaves retain it), and the sibling chain is patched so left -> right
// -> whatever left used to point to.
func (idx *Index) splitLeaf(blk int, node Node) ([]byte, int, error) {
	n := node.NumKeys()
	mid := n / 2

	rightBlk, err := idx.allocate()
	if err != nil {
		return nil, 0, err
	}
	right := NewNode(KindLeaf, idx.blockSize, idx.keySize, idx.valueSize)
	for i := mid; i < n; i++ {
		k, err := node.GetKey(i)
		if err != nil {
			return nil, 0, err
		}
		v, err := node.GetValue(i)
		if err != nil {
			return nil, 0, err
		}
		if err := right.insertLeafSlotAt(i-mid, k, v); err != nil {
			return nil, 0, err
		}
	}
	right.setSiblingNext(node.SiblingNext())
	node.setSiblingNext(rightBlk)
	node.setNumKeys(mid)

	if err := idx.writeNode(blk, node); err != nil {
		return nil, 0, err
	}
	if err := idx.writeNode(rightBlk, right); err != nil {
		return nil, 0, err
	}

	separator, err := right.GetKey(0)
	if err != nil {
		return nil, 0, err
	}
	return separator, rightBlk, nil
}

// splitInterior carves the right half of an over-full interior/root node
// into a freshly allocated block. The separator at the split position is
// moved up to the parent, not copied -- it doesn't reappear in either half.
func (idx *Index) splitInterior(blk int, node Node) ([]byte, int, error) {
	n := node.NumKeys()
	mid := n / 2

	separator, err := node.GetKey(mid)
	if err != nil {
		return nil, 0, err
	}

	rightBlk, err := idx.allocate()
	if err != nil {
		return nil, 0, err
	}
	right := NewNode(KindInterior, idx.blockSize, idx.keySize, idx.valueSize)

	p0, err := node.GetPointer(mid + 1)
	if err != nil {
		return nil, 0, err
	}
	if err := right.SetPointer(0, p0); err != nil {
		return nil, 0, err
	}

	rightCount := n - mid - 1
	for j := 0; j < rightCount; j++ {
		k, err := node.GetKey(mid + 1 + j)
		if err != nil {
			return nil, 0, err
		}
		p, err := node.GetPointer(mid + 2 + j)
		if err != nil {
			return nil, 0, err
		}
		if err := right.insertInteriorSlotAt(j, k, p); err != nil {
			return nil, 0, err
		}
	}

	node.setNumKeys(mid)
	if node.Kind() == KindRoot {
		node.setKind(KindInterior)
	}

	if err := idx.writeNode(blk, node); err != nil {
		return nil, 0, err
	}
	if err := idx.writeNode(rightBlk, right); err != nil {
		return nil, 0, err
	}

	return separator, rightBlk, nil
}

func (idx *Index) promoteNewRoot(leftBlk int, separator []byte, rightBlk int) error {
	newRootBlk, err := idx.allocate()
	if err != nil {
		return err
	}
	newRoot := NewNode(KindRoot, idx.blockSize, idx.keySize, idx.valueSize)
	if err := newRoot.SetPointer(0, leftBlk); err != nil {
		return err
	}
	if err := newRoot.insertInteriorSlotAt(0, separator, rightBlk); err != nil {
		return err
	}
	if err := idx.writeNode(newRootBlk, newRoot); err != nil {
		return err
	}
	idx.super.setRootBlock(newRootBlk)
	return idx.writeSuperblock()
}

// Range returns every (key, value) pair with minKey <= key <= maxKey, in
// ascending key order, by descending to the leaf that would contain minKey
// and walking the sibling chain forward (spec §4.4.3).
func (idx *Index) Range(minKey, maxKey []byte) ([]KeyValue, error) {
	_, _, leaf, err := idx.descend(minKey)
	if err != nil {
		if err == ErrNonExistent {
			return nil, nil
		}
		return nil, wrapErr("range", minKey, err)
	}

	var out []KeyValue
	for leaf != nil {
		n := leaf.NumKeys()
		for i := 0; i < n; i++ {
			k, err := leaf.GetKey(i)
			if err != nil {
				return nil, wrapErr("range", minKey, err)
			}
			if bytes.Compare(k, minKey) < 0 {
				continue
			}
			if bytes.Compare(k, maxKey) > 0 {
				return out, nil
			}
			v, err := leaf.GetValue(i)
			if err != nil {
				return nil, wrapErr("range", minKey, err)
			}
			out = append(out, KeyValue{Key: k, Value: v})
		}
		next := leaf.SiblingNext()
		if next == 0 {
			break
		}
		leaf, err = idx.readNode(next)
		if err != nil {
			return nil, wrapErr("range", minKey, err)
		}
	}
	return out, nil
}

// KeyValue is a single (key, value) pair returned by Range.
type KeyValue struct {
	Key   []byte
	Value []byte
}

// Delete is explicitly out of scope for the core (spec §4.4.4).
func (idx *Index) Delete(key []byte) error {
	return wrapErr("delete", key, ErrUnimplemented)
}
