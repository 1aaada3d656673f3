package squashfs

import (
	"encoding/binary"
	"io"
)

// exportEntrySize is the on-disk size of one export-table entry.
const exportEntrySize = 8

// readExportTable reads the NFS-export inode-lookup table: one inode
// reference (as a raw u64 file offset) per inode number, in the same
// two-level shape as the fragment and id tables. Returns nil when the
// archive carries no export table (ExportTableStart is the sentinel).
func readExportTable(fs io.ReaderAt, comp *Compressor, sb *Superblock) ([]uint64, error) {
	if !sb.HasExportTable() {
		return nil, nil
	}

	payload, err := readTwoLevelTable(fs, comp, int64(sb.ExportTableStart), int(sb.InodeCnt), exportEntrySize)
	if err != nil {
		return nil, err
	}

	refs := make([]uint64, sb.InodeCnt)
	for i := range refs {
		refs[i] = binary.LittleEndian.Uint64(payload[i*exportEntrySize : (i+1)*exportEntrySize])
	}
	return refs, nil
}
