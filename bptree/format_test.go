package bptree

import (
	"testing"

	"bptree/cache"
)

func TestFormatRequiresThreeBlocks(t *testing.T) {
	store := cache.NewMemStore(512, 2)
	idx, err := New(Options{KeySize: 4, ValueSize: 8}, store)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := idx.Attach(0, true); err == nil {
		t.Fatalf("Attach(create) with 2 blocks succeeded, want error")
	}
}

func TestAttachRejectsNonZeroInitBlock(t *testing.T) {
	store := cache.NewMemStore(512, 4)
	idx, err := New(Options{KeySize: 4, ValueSize: 8}, store)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := idx.Attach(1, true); err != ErrBadInitBlock {
		t.Fatalf("Attach(1, true) = %v, want ErrBadInitBlock", err)
	}
}

func TestFormatTwiceFails(t *testing.T) {
	store := cache.NewMemStore(512, 4)
	idx, err := New(Options{KeySize: 4, ValueSize: 8}, store)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := idx.Attach(0, true); err != nil {
		t.Fatalf("first Attach(create): %v", err)
	}

	idx2, err := New(Options{KeySize: 4, ValueSize: 8}, store)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := idx2.Attach(0, true); err != ErrAlreadyFormatted {
		t.Fatalf("second Attach(create) = %v, want ErrAlreadyFormatted", err)
	}
}

func TestMountAfterDetach(t *testing.T) {
	store := cache.NewMemStore(512, 8)
	idx, err := New(Options{KeySize: 4, ValueSize: 8}, store)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := idx.Attach(0, true); err != nil {
		t.Fatalf("Attach(create): %v", err)
	}
	if err := idx.Insert([]byte("aaaa"), []byte("val00001")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := idx.Detach(); err != nil {
		t.Fatalf("Detach: %v", err)
	}

	remounted, err := New(Options{KeySize: 4, ValueSize: 8}, store)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := remounted.Attach(0, false); err != nil {
		t.Fatalf("Attach(mount): %v", err)
	}
	val, err := remounted.Lookup([]byte("aaaa"))
	if err != nil {
		t.Fatalf("Lookup after remount: %v", err)
	}
	if string(val) != "val00001" {
		t.Fatalf("Lookup after remount = %q, want val00001", val)
	}
}

func TestMountRejectsUnformattedStore(t *testing.T) {
	store := cache.NewMemStore(512, 4)
	idx, err := New(Options{KeySize: 4, ValueSize: 8}, store)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := idx.Attach(0, false); err == nil {
		t.Fatalf("Attach(mount) on unformatted store succeeded, want error")
	}
}
