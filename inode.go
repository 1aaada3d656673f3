package squashfs

import (
	"bytes"
)

// minInodeHeaderSize is the number of bytes the scanner requires between
// the root inode's position and the end of the decoded inode table: the
// 32-byte fixed size of a basic directory or regular-file inode. Smaller
// variants exist (IPC is 20 bytes, symlink and device 24), so a root of one
// of those kinds that ends the table is reported as ErrTruncatedInodeTable.
const minInodeHeaderSize = 32

// scanInodeTable walks every metadata block between the superblock's
// inode_table_start and directory_table_start, concatenates their
// decompressed payloads into one logical buffer, locates the root inode's
// (block, offset) position within it, and parses every inode header the
// buffer contains in on-disk order.
//
// It returns the root inode header and the full ordered slice (the root
// also appears at its natural position in that slice).
func scanInodeTable(sb *Superblock, comp *Compressor) (InodeHeader, []InodeHeader, error) {
	start := int64(sb.InodeTableStart)
	end := int64(sb.DirTableStart)
	rootRef := inodeRef(sb.RootInode)

	rootBlockStart := start + int64(rootRef.Index())
	rootBlockOffset := int64(rootRef.Offset())

	var table bytes.Buffer
	rootBlockIndex := int64(-1)

	for start < end {
		if start == rootBlockStart {
			rootBlockIndex = int64(table.Len())
		}

		consumed, err := readMetadataBlock(sb.fs, &table, comp, start, -1)
		if err != nil {
			return InodeHeader{}, nil, err
		}
		start += int64(consumed)

		if start < end && table.Len()%MetadataSize != 0 {
			// a non-final block decompressed short.
			return InodeHeader{}, nil, ErrTruncatedInodeTable
		}
	}

	if rootBlockIndex < 0 {
		return InodeHeader{}, nil, ErrRootInodeNotLocated
	}

	buf := table.Bytes()
	rootPos := rootBlockIndex + rootBlockOffset
	if rootPos < 0 || int64(len(buf))-rootPos < minInodeHeaderSize {
		return InodeHeader{}, nil, ErrTruncatedInodeTable
	}

	root, err := decodeInodeHeader(bytes.NewReader(buf[rootPos:]), sb)
	if err != nil {
		return InodeHeader{}, nil, err
	}

	var all []InodeHeader
	r := bytes.NewReader(buf)
	for r.Len() > 0 {
		h, err := decodeInodeHeader(r, sb)
		if err != nil {
			return InodeHeader{}, nil, err
		}
		all = append(all, h)
	}

	Log.WithField("inodes", len(all)).Debug("squashfs: inode table scanned")

	return root, all, nil
}
