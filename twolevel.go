package squashfs

import (
	"bytes"
	"encoding/binary"
	"io"
)

// readTwoLevelTable implements the shared two-level-indexed table shape
// used by the fragment, id, and export tables: an outer vector of 8-byte
// block pointers, each pointing at a metadata block; the decompressed
// payloads concatenate into entryCount*entrySize bytes.
func readTwoLevelTable(fs io.ReaderAt, comp *Compressor, tableStart int64, entryCount, entrySize int) ([]byte, error) {
	if entryCount == 0 {
		return nil, nil
	}

	totalBytes := entryCount * entrySize
	innerBlockCount := (totalBytes + MetadataSize - 1) / MetadataSize

	indexBytes := make([]byte, innerBlockCount*8)
	if _, err := fs.ReadAt(indexBytes, tableStart); err != nil {
		return nil, err
	}

	payload := make([]byte, 0, totalBytes)
	buf := bytes.NewBuffer(payload)

	for i := 0; i < innerBlockCount; i++ {
		ptr := int64(binary.LittleEndian.Uint64(indexBytes[i*8 : i*8+8]))

		expected := MetadataSize
		if i+1 == innerBlockCount {
			if rem := totalBytes % MetadataSize; rem != 0 {
				expected = rem
			}
		}

		if _, err := readMetadataBlock(fs, buf, comp, ptr, expected); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}
