package squashfs

import (
	"encoding/binary"
	"fmt"
	"io"
)

// superblockMagic is "hsqs" read little-endian: the only byte order this
// core accepts. mksquashfs has never shipped a big-endian archive in
// practice and spec.md doesn't ask for one.
const superblockMagic = 0x73717368

// superblockSize is the fixed on-disk size of the superblock, in bytes.
const superblockSize = 96

// Superblock is the archive's 96-byte header: https://dr-emann.github.io/squashfs/
type Superblock struct {
	fs io.ReaderAt

	Magic             uint32
	InodeCnt          uint32
	ModTime           uint32
	BlockSize         uint32
	FragCount         uint32
	Comp              SquashComp
	BlockLog          uint16
	Flags             SquashFlags
	IdCount           uint16
	VMajor            uint16
	VMinor            uint16
	RootInode         uint64
	BytesUsed         uint64
	IdTableStart      uint64
	XattrIdTableStart uint64
	InodeTableStart   uint64
	DirTableStart     uint64
	FragTableStart    uint64
	ExportTableStart  uint64

	inoOfft uint64
}

// New reads and validates the superblock at the start of fs, applying any
// options given (see InodeOffset).
func New(fs io.ReaderAt, opts ...Option) (*Superblock, error) {
	sb := &Superblock{fs: fs}

	head := make([]byte, superblockSize)
	if _, err := fs.ReadAt(head, 0); err != nil {
		return nil, err
	}

	if err := sb.unmarshal(head); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		if err := opt(sb); err != nil {
			return nil, err
		}
	}

	Log.WithFields(map[string]interface{}{
		"compressor": sb.Comp.String(),
		"block_size": sb.BlockSize,
		"inodes":     sb.InodeCnt,
	}).Debug("squashfs: superblock parsed")

	return sb, nil
}

func (s *Superblock) unmarshal(data []byte) error {
	if len(data) != superblockSize {
		return badSuperblock(fmt.Sprintf("short read: got %d bytes, want %d", len(data), superblockSize))
	}

	le := binary.LittleEndian

	s.Magic = le.Uint32(data[0:4])
	if s.Magic != superblockMagic {
		return badSuperblock(fmt.Sprintf("bad magic %#08x", s.Magic))
	}

	s.InodeCnt = le.Uint32(data[4:8])
	s.ModTime = le.Uint32(data[8:12])
	s.BlockSize = le.Uint32(data[12:16])
	s.FragCount = le.Uint32(data[16:20])
	s.Comp = SquashComp(le.Uint16(data[20:22]))
	s.BlockLog = le.Uint16(data[22:24])
	s.Flags = SquashFlags(le.Uint16(data[24:26]))
	s.IdCount = le.Uint16(data[26:28])
	s.VMajor = le.Uint16(data[28:30])
	s.VMinor = le.Uint16(data[30:32])
	s.RootInode = le.Uint64(data[32:40])
	s.BytesUsed = le.Uint64(data[40:48])
	s.IdTableStart = le.Uint64(data[48:56])
	s.XattrIdTableStart = le.Uint64(data[56:64])
	s.InodeTableStart = le.Uint64(data[64:72])
	s.DirTableStart = le.Uint64(data[72:80])
	s.FragTableStart = le.Uint64(data[80:88])
	s.ExportTableStart = le.Uint64(data[88:96])

	if s.VMajor != 4 {
		return badSuperblock(fmt.Sprintf("unsupported version %d.%d", s.VMajor, s.VMinor))
	}

	if s.BlockLog > 31 || s.BlockSize != 1<<s.BlockLog {
		return badSuperblock(fmt.Sprintf("block_size %d does not match block_log %d", s.BlockSize, s.BlockLog))
	}

	if !s.Comp.supported() {
		return unsupportedCompressor(s.Comp)
	}

	if s.XattrIdTableStart != noTableSentinel {
		return badSuperblock("xattr id table present; xattr tables are not supported")
	}

	return nil
}

// HasXattrTable reports whether the archive carries an xattr id table.
// Its absence is signalled on disk by XattrIdTableStart holding the
// all-ones sentinel (-1 as uint64).
func (s *Superblock) HasXattrTable() bool {
	return s.XattrIdTableStart != noTableSentinel
}

// HasExportTable reports whether the archive carries an export (NFS
// inode-lookup) table, signalled the same way as the xattr table.
func (s *Superblock) HasExportTable() bool {
	return s.ExportTableStart != noTableSentinel
}

// noTableSentinel is the all-ones uint64 used on disk to mean "this
// optional table does not exist".
const noTableSentinel = ^uint64(0)

// BlockLogSize returns 1<<BlockLog, i.e. BlockSize, as a convenience for
// callers that only have a Superblock in hand.
func (s *Superblock) BlockLogSize() uint32 {
	return 1 << s.BlockLog
}
