package squashfs

import (
	"errors"
	"fmt"
)

// Package-specific error variables that can be used with errors.Is() for error handling.
var (
	// ErrBadSuperblock is returned when the 96-byte superblock fails magic,
	// block-size/block-log, or xattr validation.
	ErrBadSuperblock = errors.New("squashfs: bad superblock")

	// ErrBadMetadataBlock is returned when a metadata block's stored size
	// exceeds the 8KiB ceiling, or its decompressed size doesn't match what
	// the caller declared it expected.
	ErrBadMetadataBlock = errors.New("squashfs: bad metadata block")

	// ErrUnsupportedCompressor is returned for a compressor ID other than
	// GZIP (1) or XZ (4).
	ErrUnsupportedCompressor = errors.New("squashfs: unsupported compressor")

	// ErrUnknownInodeType is returned when an inode tag falls outside 1..=14.
	ErrUnknownInodeType = errors.New("squashfs: unknown inode type")

	// ErrTruncatedInodeTable is returned when a non-final inode-table
	// metadata block decompresses short, or the root reference lies outside
	// the scanned buffer.
	ErrTruncatedInodeTable = errors.New("squashfs: truncated inode table")

	// ErrRootInodeNotLocated is returned when the inode-table scan never
	// passes through the block boundary the root reference points at.
	ErrRootInodeNotLocated = errors.New("squashfs: root inode not located")

	// ErrCorruptedFragmentIndex is returned when an inode's fragment index
	// exceeds the superblock's fragment count.
	ErrCorruptedFragmentIndex = errors.New("squashfs: corrupted fragment index")
)

// badSuperblock wraps ErrBadSuperblock with the specific validation failure.
func badSuperblock(reason string) error {
	return fmt.Errorf("%w: %s", ErrBadSuperblock, reason)
}

// badMetadataBlock wraps ErrBadMetadataBlock with the specific framing failure.
func badMetadataBlock(reason string) error {
	return fmt.Errorf("%w: %s", ErrBadMetadataBlock, reason)
}

// unsupportedCompressor wraps ErrUnsupportedCompressor with the offending ID.
func unsupportedCompressor(id SquashComp) error {
	return fmt.Errorf("%w: %d (%s)", ErrUnsupportedCompressor, uint16(id), id)
}

// unknownInodeType wraps ErrUnknownInodeType with the offending tag.
func unknownInodeType(tag uint16) error {
	return fmt.Errorf("%w: %d", ErrUnknownInodeType, tag)
}
