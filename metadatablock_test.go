package squashfs

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"testing"
)

// byteReaderAt adapts a byte slice to io.ReaderAt for these tests.
type byteReaderAt []byte

func (b byteReaderAt) ReadAt(p []byte, off int64) (int, error) {
	n := copy(p, b[off:])
	if n < len(p) {
		return n, bytes.ErrTooLarge
	}
	return n, nil
}

func TestReadMetadataBlockUncompressed(t *testing.T) {
	payload := []byte("hello, squashfs")
	var src bytes.Buffer
	var header [2]byte
	binary.LittleEndian.PutUint16(header[:], metadataUncompressedBit|uint16(len(payload)))
	src.Write(header[:])
	src.Write(payload)

	comp, err := NewCompressor(GZip, false, nil)
	if err != nil {
		t.Fatalf("NewCompressor: %s", err)
	}

	var dst bytes.Buffer
	consumed, err := readMetadataBlock(byteReaderAt(src.Bytes()), &dst, comp, 0, len(payload))
	if err != nil {
		t.Fatalf("readMetadataBlock: %s", err)
	}
	if int(consumed) != len(payload)+2 {
		t.Errorf("consumed = %d, want %d", consumed, len(payload)+2)
	}
	if dst.String() != string(payload) {
		t.Errorf("payload = %q, want %q", dst.String(), payload)
	}
}

func TestReadMetadataBlockCompressed(t *testing.T) {
	payload := bytes.Repeat([]byte("squashfs metadata block payload "), 50)

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(payload); err != nil {
		t.Fatalf("zlib write: %s", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zlib close: %s", err)
	}

	var src bytes.Buffer
	var header [2]byte
	binary.LittleEndian.PutUint16(header[:], uint16(compressed.Len())) // top bit clear: compressed
	src.Write(header[:])
	src.Write(compressed.Bytes())

	comp, err := NewCompressor(GZip, false, nil)
	if err != nil {
		t.Fatalf("NewCompressor: %s", err)
	}

	var dst bytes.Buffer
	consumed, err := readMetadataBlock(byteReaderAt(src.Bytes()), &dst, comp, 0, len(payload))
	if err != nil {
		t.Fatalf("readMetadataBlock: %s", err)
	}
	if int(consumed) != compressed.Len()+2 {
		t.Errorf("consumed = %d, want %d", consumed, compressed.Len()+2)
	}
	if !bytes.Equal(dst.Bytes(), payload) {
		t.Errorf("decompressed payload mismatch")
	}
}

func TestReadMetadataBlockRejectsOversizedStoredSize(t *testing.T) {
	var src bytes.Buffer
	var header [2]byte
	binary.LittleEndian.PutUint16(header[:], MetadataSize+1) // stored_size > 8192
	src.Write(header[:])

	comp, _ := NewCompressor(GZip, false, nil)
	var dst bytes.Buffer
	if _, err := readMetadataBlock(byteReaderAt(append(src.Bytes(), make([]byte, MetadataSize+1)...)), &dst, comp, 0, -1); err == nil {
		t.Fatal("expected error for stored size exceeding 8KiB")
	}
}

func TestReadMetadataBlockExpectedMismatch(t *testing.T) {
	payload := []byte("short")
	var src bytes.Buffer
	var header [2]byte
	binary.LittleEndian.PutUint16(header[:], metadataUncompressedBit|uint16(len(payload)))
	src.Write(header[:])
	src.Write(payload)

	comp, _ := NewCompressor(GZip, false, nil)
	var dst bytes.Buffer
	if _, err := readMetadataBlock(byteReaderAt(src.Bytes()), &dst, comp, 0, len(payload)+1); err == nil {
		t.Fatal("expected mismatch error when declared expectation is wrong")
	}
}
