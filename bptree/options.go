package bptree

import "fmt"

// Options configures a new Index (spec §6.2 constructor parameters).
// Unique is accepted for interface parity with the spec but currently
// unused -- keys are always unique, same as the source this is grounded on.
type Options struct {
	KeySize   int
	ValueSize int
	Unique    bool
}

func (o Options) validate(blockSize int) error {
	if o.KeySize <= 0 {
		return fmt.Errorf("bptree: keysize must be positive, got %d", o.KeySize)
	}
	if o.ValueSize <= 0 {
		return fmt.Errorf("bptree: valuesize must be positive, got %d", o.ValueSize)
	}
	if MaxKeys(blockSize, o.KeySize, o.ValueSize) < 1 {
		return fmt.Errorf("bptree: blocksize %d too small for keysize %d / valuesize %d",
			blockSize, o.KeySize, o.ValueSize)
	}
	return nil
}
