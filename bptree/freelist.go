package bptree

// allocate pops the head of the free list (spec §4.2): reads the head
// block, asserts it is Unallocated, advances freelist_head to that
// block's FreelistNext, persists the superblock, and notifies the
// backing store. Returns ErrNoSpace when the free list is empty.
func (idx *Index) allocate() (int, error) {
	head := idx.super.FreelistNext()
	if head == 0 {
		return 0, ErrNoSpace
	}

	buf, err := idx.store.ReadBlock(head)
	if err != nil {
		return 0, wrapErr("allocate", nil, err)
	}
	node, err := decode(buf)
	if err != nil {
		return 0, err
	}
	if node.Kind() != KindUnallocated {
		return 0, ErrInsane
	}

	idx.super.setFreelistNext(node.FreelistNext())
	if err := idx.writeSuperblock(); err != nil {
		return 0, err
	}

	idx.store.NotifyAllocate(head)
	return head, nil
}

// deallocate pushes block n onto the free list (spec §4.2): rejects a
// block that is already on the free list, relabels it Unallocated, chains
// it ahead of the current head, writes it, then installs it as the new
// head and persists the superblock.
func (idx *Index) deallocate(n int) error {
	buf, err := idx.store.ReadBlock(n)
	if err != nil {
		return wrapErr("deallocate", nil, err)
	}
	if _, err := decode(buf); err != nil {
		return err
	}
	// allocate hands blocks out without rewriting them, so a block's Kind
	// cannot tell free from allocated; membership in the free list does.
	for next, steps := idx.super.FreelistNext(), 0; next != 0; steps++ {
		if next == n || steps > idx.store.BlockCount() {
			return ErrInsane
		}
		free, err := idx.readNode(next)
		if err != nil {
			return err
		}
		next = free.FreelistNext()
	}

	freed := NewNode(KindUnallocated, idx.blockSize, idx.keySize, idx.valueSize)
	freed.setFreelistNext(idx.super.FreelistNext())

	if err := idx.store.WriteBlock(n, freed); err != nil {
		return wrapErr("deallocate", nil, err)
	}

	idx.super.setFreelistNext(n)
	if err := idx.writeSuperblock(); err != nil {
		return err
	}

	idx.store.NotifyDeallocate(n)
	return nil
}
