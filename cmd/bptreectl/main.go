// Command bptreectl wires a cache.FileStore to a bptree.Index and a cli
// shell, mirroring the teacher's main.go (scanner + tree + cli.Start).
package main

import (
	"flag"
	"log"
	"os"

	"bptree/bptree"
	"bptree/cache"
	"bptree/cli"
)

func main() {
	path := flag.String("file", "bptree.db", "path to the backing store file")
	create := flag.Bool("create", false, "format a fresh store instead of mounting an existing one")
	keySize := flag.Int("keysize", 4, "fixed key width in bytes")
	valueSize := flag.Int("valuesize", 8, "fixed value width in bytes")
	blockSize := flag.Int("blocksize", 512, "block size in bytes")
	blockCount := flag.Int("blockcount", 64, "number of blocks; the backing file is resized to this many blocks on open, with or without -create")
	flag.Parse()

	store, err := cache.Open(cache.Config{
		Path:       *path,
		BlockSize:  *blockSize,
		BlockCount: *blockCount,
	})
	if err != nil {
		log.Fatalf("bptreectl: %v", err)
	}
	defer store.Close()

	idx, err := bptree.New(bptree.Options{KeySize: *keySize, ValueSize: *valueSize}, store)
	if err != nil {
		log.Fatalf("bptreectl: %v", err)
	}

	if err := idx.Attach(0, *create); err != nil {
		log.Fatalf("bptreectl: attach: %v", err)
	}
	defer func() {
		if _, err := idx.Detach(); err != nil {
			log.Printf("bptreectl: detach: %v", err)
		}
	}()

	shell := cli.New(os.Stdin, os.Stdout, idx)
	shell.Run()
}
