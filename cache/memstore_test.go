package cache

import (
	"bytes"
	"testing"
)

func TestMemStoreReadWriteRoundTrip(t *testing.T) {
	m := NewMemStore(64, 4)
	buf := bytes.Repeat([]byte{0xAB}, 64)
	if err := m.WriteBlock(1, buf); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}
	got, err := m.ReadBlock(1)
	if err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if !bytes.Equal(got, buf) {
		t.Fatalf("ReadBlock = %x, want %x", got, buf)
	}

	other, err := m.ReadBlock(2)
	if err != nil {
		t.Fatalf("ReadBlock(2): %v", err)
	}
	if !bytes.Equal(other, make([]byte, 64)) {
		t.Fatalf("untouched block is not zeroed: %x", other)
	}
}

func TestMemStoreReadIsACopy(t *testing.T) {
	m := NewMemStore(8, 2)
	buf := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if err := m.WriteBlock(0, buf); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}
	got, err := m.ReadBlock(0)
	if err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	got[0] = 0xFF
	again, err := m.ReadBlock(0)
	if err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if again[0] == 0xFF {
		t.Fatalf("mutating a returned block leaked into the store")
	}
}

func TestMemStoreBoundsChecking(t *testing.T) {
	m := NewMemStore(16, 2)
	if _, err := m.ReadBlock(-1); err == nil {
		t.Fatalf("ReadBlock(-1) succeeded, want error")
	}
	if _, err := m.ReadBlock(2); err == nil {
		t.Fatalf("ReadBlock(2) on a 2-block store succeeded, want error")
	}
	if err := m.WriteBlock(0, make([]byte, 4)); err == nil {
		t.Fatalf("WriteBlock with wrong-size buffer succeeded, want error")
	}
}

func TestMemStoreNotifyCounters(t *testing.T) {
	m := NewMemStore(16, 2)
	m.NotifyAllocate(0)
	m.NotifyAllocate(1)
	m.NotifyDeallocate(0)
	allocs, deallocs := m.Stats()
	if allocs != 2 || deallocs != 1 {
		t.Fatalf("Stats() = (%d,%d), want (2,1)", allocs, deallocs)
	}
}
