package cache

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestFileStoreReadWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	f, err := Open(Config{Path: path, BlockSize: 128, BlockCount: 4})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	if f.BlockSize() != 128 || f.BlockCount() != 4 {
		t.Fatalf("BlockSize/BlockCount = %d/%d, want 128/4", f.BlockSize(), f.BlockCount())
	}

	buf := bytes.Repeat([]byte{0x42}, 128)
	if err := f.WriteBlock(2, buf); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}
	got, err := f.ReadBlock(2)
	if err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if !bytes.Equal(got, buf) {
		t.Fatalf("ReadBlock = %x, want %x", got, buf)
	}
}

func TestFileStoreReopenPreservesContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	f, err := Open(Config{Path: path, BlockSize: 64, BlockCount: 2})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	buf := bytes.Repeat([]byte{0x7A}, 64)
	if err := f.WriteBlock(0, buf); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(Config{Path: path, BlockSize: 64, BlockCount: 2})
	if err != nil {
		t.Fatalf("Open (reopen): %v", err)
	}
	defer reopened.Close()
	got, err := reopened.ReadBlock(0)
	if err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if !bytes.Equal(got, buf) {
		t.Fatalf("ReadBlock after reopen = %x, want %x", got, buf)
	}
}

func TestFileStoreBoundsChecking(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	f, err := Open(Config{Path: path, BlockSize: 32, BlockCount: 2})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	if _, err := f.ReadBlock(2); err == nil {
		t.Fatalf("ReadBlock(2) on a 2-block store succeeded, want error")
	}
	if err := f.WriteBlock(0, make([]byte, 4)); err == nil {
		t.Fatalf("WriteBlock with wrong-size buffer succeeded, want error")
	}
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	if _, err := Open(Config{Path: path, BlockSize: 0, BlockCount: 2}); err == nil {
		t.Fatalf("Open with BlockSize=0 succeeded, want error")
	}
}
