package squashfs

import (
	"encoding/binary"
	"io"
)

// idEntrySize is the on-disk size of one id-table entry.
const idEntrySize = 4

// IDTable wraps the archive's uid/gid index, a flat vector of 32-bit IDs
// addressed by a uid/gid index stored on inodes.
type IDTable struct {
	ids []uint32
}

// Get returns the ID at idx, or 0 if idx is out of range (mirroring a
// lookup against an index nothing in this inode could have produced).
func (t IDTable) Get(idx uint16) uint32 {
	if int(idx) >= len(t.ids) {
		return 0
	}
	return t.ids[idx]
}

// Len returns the number of IDs in the table.
func (t IDTable) Len() int {
	return len(t.ids)
}

// IDs returns the table's entries as a slice, in on-disk order.
func (t IDTable) IDs() []uint32 {
	return t.ids
}

func readIDTable(fs io.ReaderAt, comp *Compressor, sb *Superblock) (IDTable, error) {
	payload, err := readTwoLevelTable(fs, comp, int64(sb.IdTableStart), int(sb.IdCount), idEntrySize)
	if err != nil {
		return IDTable{}, err
	}
	ids := make([]uint32, sb.IdCount)
	for i := range ids {
		ids[i] = binary.LittleEndian.Uint32(payload[i*idEntrySize : (i+1)*idEntrySize])
	}
	return IDTable{ids: ids}, nil
}
