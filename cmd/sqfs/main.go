// Command sqfs opens a SquashFS archive and dumps its superblock, inode
// table and fragment table to stderr. It is a thin shell around the
// squashfs package: all decoding lives there.
package main

import (
	"fmt"
	"os"

	"github.com/jeremielate/squashfs"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <squashfs-file>\n", os.Args[0])
		os.Exit(1)
	}

	if err := run(os.Args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "sqfs: %s\n", err)
		os.Exit(1)
	}
}

func run(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	img, err := squashfs.Open(f)
	if err != nil {
		return err
	}

	sb := img.Superblock()
	fmt.Fprintf(os.Stderr, "superblock: version=%d.%d compressor=%s block_size=%d inodes=%d flags=%s\n",
		sb.VMajor, sb.VMinor, sb.Comp, sb.BlockSize, sb.InodeCnt, sb.Flags)

	_, inodes, err := img.Inodes()
	if err != nil {
		return fmt.Errorf("inode table: %w", err)
	}
	for i, ino := range inodes {
		fmt.Fprintf(os.Stderr, "inode[%d]: %s\n", i, ino)
	}

	frags, err := img.Fragments()
	if err != nil {
		return fmt.Errorf("fragment table: %w", err)
	}
	for i, frag := range frags {
		fmt.Fprintf(os.Stderr, "fragment[%d]: start_block=%d size=%d\n", i, frag.StartBlock, frag.CompressedSize())
	}

	return nil
}
