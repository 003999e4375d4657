package bptree

import (
	"testing"

	"github.com/go-faker/faker/v4"

	"bptree/cache"
)

// newTestIndex formats a fresh MemStore-backed Index, grounded on the
// teacher's pattern of driving the tree against an in-memory store in
// tests rather than a file.
func newTestIndex(t *testing.T, keySize, valueSize, blockSize, blockCount int) (*Index, *cache.MemStore) {
	t.Helper()
	store := cache.NewMemStore(blockSize, blockCount)
	idx, err := New(Options{KeySize: keySize, ValueSize: valueSize}, store)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := idx.Attach(0, true); err != nil {
		t.Fatalf("Attach(create): %v", err)
	}
	return idx, store
}

// fixedWidth pads or truncates faker-generated text to exactly n bytes,
// following the teacher's faker.Word() fixture style (lsm-store/cmd/main.go)
// adapted to this package's fixed-width key/value requirement.
func fixedWidth(n int) []byte {
	word := faker.Word()
	for len(word) < n {
		word += faker.Word()
	}
	return []byte(word[:n])
}

// seqKey renders i as a decimal string zero-padded/truncated to n bytes,
// used where tests need an ordering they can predict rather than a random
// fixture.
func seqKey(i, n int) []byte {
	s := zeroPad(i, n)
	return []byte(s)
}

func zeroPad(i, n int) string {
	digits := []byte{}
	if i == 0 {
		digits = append(digits, '0')
	}
	for v := i; v > 0; v /= 10 {
		digits = append([]byte{byte('0' + v%10)}, digits...)
	}
	for len(digits) < n {
		digits = append([]byte{'0'}, digits...)
	}
	return string(digits[len(digits)-n:])
}
