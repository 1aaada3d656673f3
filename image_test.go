package squashfs_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/jeremielate/squashfs"
)

// buildMinimalArchive assembles the S1 scenario: GZIP compressor, no
// compressor options, a single directory inode, no fragments, no export
// table, and an id table holding exactly the id 0. Every metadata block
// is stored uncompressed (INODES_STORED_UNCOMPRESSED-equivalent framing
// at the block level) to keep the fixture self-contained.
func buildMinimalArchive(t *testing.T) []byte {
	t.Helper()
	le := binary.LittleEndian

	// --- inode table: one Directory inode in one metadata block ---
	var dirInode bytes.Buffer
	dirInode.Write(u16le(1))  // inode_type = Directory
	dirInode.Write(u16le(0o755))
	dirInode.Write(u16le(0)) // uid idx
	dirInode.Write(u16le(0)) // gid idx
	dirInode.Write(u32le(0)) // mtime
	dirInode.Write(u32le(1)) // inode_number
	dirInode.Write(u32le(0)) // start_block
	dirInode.Write(u32le(1)) // nlink
	dirInode.Write(u16le(3)) // file_size
	dirInode.Write(u16le(0)) // offset
	dirInode.Write(u32le(1)) // parent_inode
	if dirInode.Len() != 32 {
		t.Fatalf("synthetic directory inode is %d bytes, want 32", dirInode.Len())
	}

	const inodeTableStart = 96
	inodeBlock := framedUncompressed(dirInode.Bytes())
	directoryTableStart := inodeTableStart + len(inodeBlock)

	// --- id table: one entry, value 0 ---
	idTableStart := directoryTableStart
	idBlock := framedUncompressed(u32le(0))
	idPointer := idTableStart + 8 // one outer pointer, 8 bytes
	idIndex := make([]byte, 8)
	le.PutUint64(idIndex, uint64(idPointer))

	fragTableStart := idPointer + len(idBlock)

	totalLen := fragTableStart

	buf := make([]byte, totalLen)

	// superblock
	le.PutUint32(buf[0:4], 0x73717368)
	le.PutUint32(buf[4:8], 1)       // inodes
	le.PutUint32(buf[8:12], 0)      // mtime
	le.PutUint32(buf[12:16], 131072)
	le.PutUint32(buf[16:20], 0) // fragments
	le.PutUint16(buf[20:22], 1) // GZip
	le.PutUint16(buf[22:24], 17)
	le.PutUint16(buf[24:26], 0) // flags
	le.PutUint16(buf[26:28], 1) // no_ids
	le.PutUint16(buf[28:30], 4)
	le.PutUint16(buf[30:32], 0)
	le.PutUint64(buf[32:40], 0) // root_inode: block 0, offset 0
	le.PutUint64(buf[40:48], uint64(totalLen))
	le.PutUint64(buf[48:56], uint64(idTableStart))
	le.PutUint64(buf[56:64], ^uint64(0)) // no xattr table
	le.PutUint64(buf[64:72], uint64(inodeTableStart))
	le.PutUint64(buf[72:80], uint64(directoryTableStart))
	le.PutUint64(buf[80:88], uint64(fragTableStart))
	le.PutUint64(buf[88:96], ^uint64(0)) // no export table

	copy(buf[inodeTableStart:], inodeBlock)
	copy(buf[idIndexOffset(idTableStart):], idIndex)
	copy(buf[idPointer:], idBlock)

	return buf
}

func idIndexOffset(tableStart int) int { return tableStart }

func framedUncompressed(payload []byte) []byte {
	var b bytes.Buffer
	var header [2]byte
	binary.LittleEndian.PutUint16(header[:], 0x8000|uint16(len(payload)))
	b.Write(header[:])
	b.Write(payload)
	return b.Bytes()
}

func u16le(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func u32le(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func TestImageMinimalArchive(t *testing.T) {
	data := buildMinimalArchive(t)

	img, err := squashfs.Open(&mockReader{data: data})
	if err != nil {
		t.Fatalf("Open: %s", err)
	}

	root, all, err := img.Inodes()
	if err != nil {
		t.Fatalf("Inodes: %s", err)
	}
	if root.Directory == nil {
		t.Fatalf("expected root to be a Directory, got %s", root)
	}
	if root.Directory.Mode != 0o755 {
		t.Errorf("root mode = %#o, want 0755", root.Directory.Mode)
	}
	if len(all) != 1 {
		t.Fatalf("got %d inodes, want 1", len(all))
	}

	frags, err := img.Fragments()
	if err != nil {
		t.Fatalf("Fragments: %s", err)
	}
	if len(frags) != 0 {
		t.Errorf("expected no fragments, got %d", len(frags))
	}

	ids, err := img.IDTable()
	if err != nil {
		t.Fatalf("IDTable: %s", err)
	}
	if got := ids.IDs(); len(got) != 1 || got[0] != 0 {
		t.Errorf("id table = %v, want [0]", got)
	}

	exports, err := img.ExportTable()
	if err != nil {
		t.Fatalf("ExportTable: %s", err)
	}
	if len(exports) != 0 {
		t.Errorf("expected no export table, got %d entries", len(exports))
	}
}
