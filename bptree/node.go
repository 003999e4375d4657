package bptree

import "encoding/binary"

// Kind is the tagged variant carried in every block's header. Dispatch on
// a visited block is a switch over Kind, never runtime polymorphism.
type Kind uint8

const (
	KindUnallocated Kind = 0
	KindSuperblock  Kind = 1
	KindRoot        Kind = 2
	KindInterior    Kind = 3
	KindLeaf        Kind = 4
)

func (k Kind) String() string {
	switch k {
	case KindUnallocated:
		return "Unallocated"
	case KindSuperblock:
		return "Superblock"
	case KindRoot:
		return "Root"
	case KindInterior:
		return "Interior"
	case KindLeaf:
		return "Leaf"
	default:
		return "Invalid"
	}
}

func (k Kind) valid() bool {
	return k <= KindLeaf
}

// Header offsets. Fields are present in every block regardless of kind;
// only a subset is meaningful for a given kind (spec §3.2). FreelistNext
// plays double duty: on an Unallocated node it's the next free block, on
// the Superblock it's the free list head -- the same field, read two ways,
// straight out of the original C++ NodeMetadata/superblock relationship.
const (
	offKind         = 0
	offKeySize      = 2
	offValueSize    = 4
	offBlockSize    = 6
	offRootBlock    = 10
	offFreelistNext = 18
	offNumKeys      = 26
	offSiblingNext  = 28
	HeaderSize      = 36
	pointerWidth    = 8
)

// Node is a typed, mutable view over one block's bytes. Decoding does not
// copy: callers that need to retain a view past the next cache operation
// must copy buf themselves. A Node holds no ownership of its block -- it's
// a short-lived cache of bytes that must be explicitly written back.
type Node []byte

// NewNode allocates a zeroed, header-initialized block-sized buffer for
// the given kind and sizing parameters.
func NewNode(kind Kind, blockSize, keySize, valueSize int) Node {
	n := make(Node, blockSize)
	n.setKind(kind)
	n.setKeySize(keySize)
	n.setValueSize(valueSize)
	n.setBlockSize(blockSize)
	n.setNumKeys(0)
	n.setRootBlock(0)
	n.setFreelistNext(0)
	n.setSiblingNext(0)
	return n
}

// decode validates the header kind and wraps buf without copying.
func decode(buf []byte) (Node, error) {
	if len(buf) < HeaderSize {
		return nil, ErrInsane
	}
	n := Node(buf)
	if !n.Kind().valid() {
		return nil, ErrBadKind
	}
	return n, nil
}

func (n Node) Kind() Kind          { return Kind(n[offKind]) }
func (n Node) setKind(k Kind)      { n[offKind] = byte(k) }
func (n Node) KeySize() int        { return int(binary.LittleEndian.Uint16(n[offKeySize:])) }
func (n Node) setKeySize(v int)    { binary.LittleEndian.PutUint16(n[offKeySize:], uint16(v)) }
func (n Node) ValueSize() int      { return int(binary.LittleEndian.Uint16(n[offValueSize:])) }
func (n Node) setValueSize(v int)  { binary.LittleEndian.PutUint16(n[offValueSize:], uint16(v)) }
func (n Node) BlockSize() int      { return int(binary.LittleEndian.Uint32(n[offBlockSize:])) }
func (n Node) setBlockSize(v int)  { binary.LittleEndian.PutUint32(n[offBlockSize:], uint32(v)) }
func (n Node) RootBlock() int      { return int(binary.LittleEndian.Uint64(n[offRootBlock:])) }
func (n Node) setRootBlock(v int)  { binary.LittleEndian.PutUint64(n[offRootBlock:], uint64(v)) }
func (n Node) FreelistNext() int   { return int(binary.LittleEndian.Uint64(n[offFreelistNext:])) }
func (n Node) setFreelistNext(v int) {
	binary.LittleEndian.PutUint64(n[offFreelistNext:], uint64(v))
}
func (n Node) NumKeys() int       { return int(binary.LittleEndian.Uint16(n[offNumKeys:])) }
func (n Node) setNumKeys(v int)   { binary.LittleEndian.PutUint16(n[offNumKeys:], uint16(v)) }
func (n Node) SiblingNext() int   { return int(binary.LittleEndian.Uint64(n[offSiblingNext:])) }
func (n Node) setSiblingNext(v int) {
	binary.LittleEndian.PutUint64(n[offSiblingNext:], uint64(v))
}

// MaxKeys is the per-block key capacity, derived once from block geometry
// (spec §3.2): floor((blocksize-header)/slot_stride) where slot_stride is
// the worst-case pair width across both node kinds, so interior and leaf
// nodes share one bound even though their actual slot strides differ.
func MaxKeys(blockSize, keySize, valueSize int) int {
	interiorStride := pointerWidth + keySize
	leafStride := keySize + valueSize
	stride := interiorStride
	if leafStride > stride {
		stride = leafStride
	}
	avail := blockSize - HeaderSize
	if avail <= 0 || stride <= 0 {
		return 0
	}
	return avail / stride
}

func (n Node) maxKeys() int {
	return MaxKeys(n.BlockSize(), n.KeySize(), n.ValueSize())
}

// --- Interior/Root slot accessors: [ptr0, key0, ptr1, key1, ..., key_{n-1}, ptrn] ---
// Physically stored as a contiguous pointer block followed by a key block,
// both sized for maxKeys+1/maxKeys regardless of the node's live NumKeys.

func (n Node) pointerOffset(i int) int {
	return HeaderSize + pointerWidth*i
}

func (n Node) interiorKeyOffset(i int) int {
	maxKeys := n.maxKeys()
	return HeaderSize + pointerWidth*(maxKeys+1) + n.KeySize()*i
}

// GetPointer returns child pointer i (0..NumKeys inclusive for an interior
// node with NumKeys keys).
func (n Node) GetPointer(i int) (int, error) {
	if i < 0 || i > n.NumKeys() {
		return 0, ErrOutOfBounds
	}
	off := n.pointerOffset(i)
	return int(binary.LittleEndian.Uint64(n[off:])), nil
}

func (n Node) SetPointer(i int, v int) error {
	if i < 0 || i > n.NumKeys() {
		return ErrOutOfBounds
	}
	binary.LittleEndian.PutUint64(n[n.pointerOffset(i):], uint64(v))
	return nil
}

// GetKey returns a copy of key slot i (0..NumKeys-1), valid for both
// interior and leaf nodes, which share the "keys indexed 0..NumKeys-1"
// convention but differ in where the key block is positioned.
func (n Node) GetKey(i int) ([]byte, error) {
	if i < 0 || i >= n.NumKeys() {
		return nil, ErrOutOfBounds
	}
	off := n.keyOffset(i)
	ks := n.KeySize()
	out := make([]byte, ks)
	copy(out, n[off:off+ks])
	return out, nil
}

func (n Node) SetKey(i int, key []byte) error {
	if i < 0 || i >= n.NumKeys() {
		return ErrOutOfBounds
	}
	if len(key) != n.KeySize() {
		return ErrInsane
	}
	off := n.keyOffset(i)
	copy(n[off:off+n.KeySize()], key)
	return nil
}

func (n Node) keyOffset(i int) int {
	if n.Kind() == KindLeaf {
		return n.leafKeyOffset(i)
	}
	return n.interiorKeyOffset(i)
}

// --- Leaf slot accessors: [key0, val0, key1, val1, ...] ---
// Physically stored as a contiguous key block followed by a value block.

func (n Node) leafKeyOffset(i int) int {
	return HeaderSize + n.KeySize()*i
}

func (n Node) leafValueOffset(i int) int {
	maxKeys := n.maxKeys()
	return HeaderSize + n.KeySize()*maxKeys + n.ValueSize()*i
}

func (n Node) GetValue(i int) ([]byte, error) {
	if n.Kind() != KindLeaf {
		return nil, ErrInsane
	}
	if i < 0 || i >= n.NumKeys() {
		return nil, ErrOutOfBounds
	}
	off := n.leafValueOffset(i)
	vs := n.ValueSize()
	out := make([]byte, vs)
	copy(out, n[off:off+vs])
	return out, nil
}

func (n Node) SetValue(i int, val []byte) error {
	if n.Kind() != KindLeaf {
		return ErrInsane
	}
	if i < 0 || i >= n.NumKeys() {
		return ErrOutOfBounds
	}
	if len(val) != n.ValueSize() {
		return ErrInsane
	}
	off := n.leafValueOffset(i)
	copy(n[off:off+n.ValueSize()], val)
	return nil
}

// insertLeafSlotAt shifts slots [at..NumKeys-1] one place to the right and
// writes (key,val) at position at, then bumps NumKeys. The shift walks the
// index downward from the top with an inclusive stop at at -- the guarded
// descending form spec §9 calls out, as opposed to the unsigned-wraparound
// bug variant.
func (n Node) insertLeafSlotAt(at int, key, val []byte) error {
	nk := n.NumKeys()
	if at < 0 || at > nk || nk >= n.maxKeys() {
		return ErrOutOfBounds
	}
	for i := nk; i > at; i-- {
		k, err := n.GetKey(i - 1)
		if err != nil {
			return err
		}
		v, err := n.GetValue(i - 1)
		if err != nil {
			return err
		}
		n.setNumKeys(i + 1)
		if err := n.SetKey(i, k); err != nil {
			return err
		}
		if err := n.SetValue(i, v); err != nil {
			return err
		}
	}
	n.setNumKeys(nk + 1)
	if err := n.SetKey(at, key); err != nil {
		return err
	}
	return n.SetValue(at, val)
}

// insertInteriorSlotAt inserts separator key at position at and its right
// child pointer immediately after, shifting existing keys/pointers right.
func (n Node) insertInteriorSlotAt(at int, key []byte, rightChild int) error {
	nk := n.NumKeys()
	if at < 0 || at > nk || nk >= n.maxKeys() {
		return ErrOutOfBounds
	}
	for i := nk; i > at; i-- {
		k, err := n.GetKey(i - 1)
		if err != nil {
			return err
		}
		p, err := n.GetPointer(i)
		if err != nil {
			return err
		}
		n.setNumKeys(i + 1)
		if err := n.SetKey(i, k); err != nil {
			return err
		}
		if err := n.SetPointer(i+1, p); err != nil {
			return err
		}
	}
	n.setNumKeys(nk + 1)
	if err := n.SetKey(at, key); err != nil {
		return err
	}
	return n.SetPointer(at+1, rightChild)
}
