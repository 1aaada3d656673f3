package squashfs

import (
	"bytes"
	"encoding/binary"
	"io"
)

// MetadataSize is the maximum number of bytes a single metadata block can
// decompress to. Inode, directory, fragment-index, id and export tables are
// all built out of blocks framed this way.
const MetadataSize = 8192

// metadataUncompressedBit is the top bit of a metadata block's 2-byte
// on-disk header. When set, the block's payload is stored raw; when clear,
// the payload is compressed. Fragment and data block sizes use the same
// sense with a different bit (see fragmentBlockUncompressedBit).
const metadataUncompressedBit = 0x8000

// readMetadataBlock reads one framed metadata block from src at the given
// absolute offset, decompressing it (if needed) into dst. If expected is
// non-negative, the number of bytes written to dst must equal it exactly or
// the read fails with ErrBadMetadataBlock. It returns the number of bytes
// consumed from src (stored_size + 2), so callers can advance a cursor.
func readMetadataBlock(src io.ReaderAt, dst io.Writer, comp *Compressor, start int64, expected int) (uint16, error) {
	var header [2]byte
	if _, err := src.ReadAt(header[:], start); err != nil {
		return 0, err
	}
	raw := binary.LittleEndian.Uint16(header[:])

	uncompressed := raw&metadataUncompressedBit != 0
	storedSize := raw &^ metadataUncompressedBit

	if storedSize > MetadataSize {
		return 0, badMetadataBlock("stored size exceeds 8KiB")
	}

	payload := make([]byte, storedSize)
	if storedSize > 0 {
		if _, err := src.ReadAt(payload, start+2); err != nil {
			return 0, err
		}
	}

	var written int
	if uncompressed {
		n, err := dst.Write(payload)
		if err != nil {
			return 0, err
		}
		written = n
	} else {
		n, err := comp.Decompress(bytes.NewReader(payload), dst)
		if err != nil {
			Log.WithError(err).Debug("squashfs: metadata block decompression failed")
			return 0, err
		}
		written = int(n)
	}

	if expected >= 0 && written != expected {
		return 0, badMetadataBlock("decompressed size does not match expectation")
	}

	return storedSize + 2, nil
}
