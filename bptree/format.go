package bptree

// Index is the B+ tree engine (spec §4.4, §6.2). It owns no bytes of its
// own beyond the decoded superblock; every node it touches is read from
// and written back through store.
type Index struct {
	store     BlockStore
	keySize   int
	valueSize int
	blockSize int
	maxKeys   int

	superIdx int
	super    Node
}

// New constructs an Index bound to cache, not yet attached to any format.
func New(opts Options, cache BlockStore) (*Index, error) {
	blockSize := cache.BlockSize()
	if err := opts.validate(blockSize); err != nil {
		return nil, err
	}
	return &Index{
		store:     cache,
		keySize:   opts.KeySize,
		valueSize: opts.ValueSize,
		blockSize: blockSize,
		maxKeys:   MaxKeys(blockSize, opts.KeySize, opts.ValueSize),
	}, nil
}

// Attach formats a fresh store (create=true) or mounts an existing one
// (create=false), per spec §4.3. initBlock must be 0.
func (idx *Index) Attach(initBlock int, create bool) error {
	if initBlock != 0 {
		return ErrBadInitBlock
	}
	idx.superIdx = initBlock

	if create {
		return idx.format()
	}
	return idx.mount()
}

func (idx *Index) format() error {
	n := idx.store.BlockCount()
	if n < 3 {
		return wrapErr("attach", nil, ErrNoSpace)
	}

	if buf, err := idx.store.ReadBlock(idx.superIdx); err == nil {
		if existing, derr := decode(buf); derr == nil && existing.Kind() == KindSuperblock {
			return ErrAlreadyFormatted
		}
	}

	rootBlock := idx.superIdx + 1

	super := NewNode(KindSuperblock, idx.blockSize, idx.keySize, idx.valueSize)
	super.setRootBlock(rootBlock)
	super.setFreelistNext(idx.superIdx + 2)
	idx.store.NotifyAllocate(idx.superIdx)
	if err := idx.store.WriteBlock(idx.superIdx, super); err != nil {
		return wrapErr("attach", nil, err)
	}
	idx.super = super

	root := NewNode(KindRoot, idx.blockSize, idx.keySize, idx.valueSize)
	idx.store.NotifyAllocate(rootBlock)
	if err := idx.store.WriteBlock(rootBlock, root); err != nil {
		return wrapErr("attach", nil, err)
	}

	for i := idx.superIdx + 2; i < n; i++ {
		free := NewNode(KindUnallocated, idx.blockSize, idx.keySize, idx.valueSize)
		if i+1 == n {
			free.setFreelistNext(0)
		} else {
			free.setFreelistNext(i + 1)
		}
		if err := idx.store.WriteBlock(i, free); err != nil {
			return wrapErr("attach", nil, err)
		}
	}
	return nil
}

func (idx *Index) mount() error {
	buf, err := idx.store.ReadBlock(idx.superIdx)
	if err != nil {
		return wrapErr("attach", nil, err)
	}
	super, err := decode(buf)
	if err != nil {
		return err
	}
	if super.Kind() != KindSuperblock {
		return ErrInsane
	}
	idx.super = super
	return nil
}

// Detach persists the superblock (spec §4.3's Unmount).
func (idx *Index) Detach() (int, error) {
	if err := idx.writeSuperblock(); err != nil {
		return 0, err
	}
	return idx.superIdx, nil
}

func (idx *Index) writeSuperblock() error {
	if err := idx.store.WriteBlock(idx.superIdx, idx.super); err != nil {
		return wrapErr("detach", nil, err)
	}
	return nil
}

func (idx *Index) readNode(block int) (Node, error) {
	buf, err := idx.store.ReadBlock(block)
	if err != nil {
		return nil, wrapErr("read", nil, err)
	}
	return decode(buf)
}

func (idx *Index) writeNode(block int, n Node) error {
	if err := idx.store.WriteBlock(block, n); err != nil {
		return wrapErr("write", nil, err)
	}
	return nil
}
