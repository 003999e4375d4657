package cache

import (
	"fmt"
	"log"
	"os"
	"sync"
)

// Config configures a FileStore.
type Config struct {
	Path       string
	BlockSize  int
	BlockCount int
	// Logger receives allocate/deallocate diagnostics. Defaults to
	// log.Default() when nil.
	Logger *log.Logger
}

// FileStore backs a fixed number of fixed-size blocks with a single
// on-disk file, pre-sized with Truncate and addressed with ReadAt/WriteAt.
// Grounded on the varint/offset block layout style of
// lsm-store/sstable/block_writer.go and the single-file paging shown in
// the pack's persistent-B+tree reference (pbtree.go), adapted here to a
// fixed-size-block model rather than a growable log.
//
// FileStore assumes single-writer, synchronous access, per spec §5: the
// mutex below only protects its own bookkeeping (open/close), it does not
// serialize concurrent ReadBlock/WriteBlock calls -- callers must do that
// themselves if they share a FileStore across goroutines.
type FileStore struct {
	mu        sync.Mutex
	file      *os.File
	blockSize int
	count     int
	logger    *log.Logger
}

// Open creates or truncates the backing file to hold cfg.BlockCount
// blocks of cfg.BlockSize bytes and returns a ready FileStore.
func Open(cfg Config) (*FileStore, error) {
	if cfg.BlockSize <= 0 || cfg.BlockCount <= 0 {
		return nil, fmt.Errorf("cache: invalid config %+v", cfg)
	}
	f, err := os.OpenFile(cfg.Path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", cfg.Path, err)
	}
	size := int64(cfg.BlockSize) * int64(cfg.BlockCount)
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, fmt.Errorf("cache: truncate %s: %w", cfg.Path, err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &FileStore{file: f, blockSize: cfg.BlockSize, count: cfg.BlockCount, logger: logger}, nil
}

func (f *FileStore) BlockSize() int  { return f.blockSize }
func (f *FileStore) BlockCount() int { return f.count }

func (f *FileStore) ReadBlock(n int) ([]byte, error) {
	if n < 0 || n >= f.count {
		return nil, fmt.Errorf("cache: block %d out of range [0,%d)", n, f.count)
	}
	buf := make([]byte, f.blockSize)
	off := int64(n) * int64(f.blockSize)
	if _, err := f.file.ReadAt(buf, off); err != nil {
		return nil, fmt.Errorf("cache: read block %d: %w", n, err)
	}
	return buf, nil
}

func (f *FileStore) WriteBlock(n int, buf []byte) error {
	if n < 0 || n >= f.count {
		return fmt.Errorf("cache: block %d out of range [0,%d)", n, f.count)
	}
	if len(buf) != f.blockSize {
		return fmt.Errorf("cache: write buffer size %d != block size %d", len(buf), f.blockSize)
	}
	off := int64(n) * int64(f.blockSize)
	if _, err := f.file.WriteAt(buf, off); err != nil {
		return fmt.Errorf("cache: write block %d: %w", n, err)
	}
	return nil
}

func (f *FileStore) NotifyAllocate(n int) {
	f.logger.Printf("cache: allocate block %d", n)
}

func (f *FileStore) NotifyDeallocate(n int) {
	f.logger.Printf("cache: deallocate block %d", n)
}

// Close flushes and releases the backing file.
func (f *FileStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	if err := f.file.Sync(); err != nil {
		f.file.Close()
		f.file = nil
		return fmt.Errorf("cache: sync: %w", err)
	}
	err := f.file.Close()
	f.file = nil
	return err
}
