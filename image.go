package squashfs

import "io"

// Image is the read session facade over one archive: it owns the
// seekable source, caches the parsed superblock, and exposes the
// sub-readers that walk its tables.
type Image struct {
	fs io.ReaderAt
	sb *Superblock
}

// Open validates the superblock at the start of fs and returns a ready
// Image. It does not eagerly decode any table beyond the superblock.
func Open(fs io.ReaderAt, opts ...Option) (*Image, error) {
	sb, err := New(fs, opts...)
	if err != nil {
		return nil, err
	}
	return &Image{fs: fs, sb: sb}, nil
}

// Superblock returns the cached, validated superblock.
func (img *Image) Superblock() *Superblock {
	return img.sb
}

// Compressor (re)constructs the archive's compressor by seeking to the
// byte immediately following the superblock and reading its options
// record, if the superblock flags say one is present.
func (img *Image) Compressor() (*Compressor, error) {
	optsPresent := img.sb.Flags.Has(COMPRESSOR_OPTIONS)
	sr := io.NewSectionReader(img.fs, superblockSize, MetadataSize)
	return NewCompressor(img.sb.Comp, optsPresent, sr)
}

// Inodes scans the inode table and returns the root inode header
// alongside every inode header in on-disk order.
func (img *Image) Inodes() (root InodeHeader, all []InodeHeader, err error) {
	comp, err := img.Compressor()
	if err != nil {
		return InodeHeader{}, nil, err
	}
	return scanInodeTable(img.sb, comp)
}

// Fragments returns every fragment-table entry.
func (img *Image) Fragments() ([]FragmentEntry, error) {
	comp, err := img.Compressor()
	if err != nil {
		return nil, err
	}
	return readFragmentTable(img.fs, comp, img.sb)
}

// FragmentReader returns a streaming fragment-table reader.
func (img *Image) FragmentReader() (*FragmentTableReader, error) {
	comp, err := img.Compressor()
	if err != nil {
		return nil, err
	}
	return NewFragmentTableReader(img.fs, comp, img.sb)
}

// IDTable returns the archive's uid/gid index table.
func (img *Image) IDTable() (IDTable, error) {
	comp, err := img.Compressor()
	if err != nil {
		return IDTable{}, err
	}
	return readIDTable(img.fs, comp, img.sb)
}

// ExportTable returns the archive's NFS-export inode-lookup table, or
// nil if the archive carries none.
func (img *Image) ExportTable() ([]uint64, error) {
	comp, err := img.Compressor()
	if err != nil {
		return nil, err
	}
	return readExportTable(img.fs, comp, img.sb)
}

// FS bundles every top-level table this core decodes, for callers that
// want the whole archive parsed in one call.
type FS struct {
	Fragments   []FragmentEntry
	IDTable     IDTable
	ExportTable []uint64
	Root        InodeHeader
	Inodes      []InodeHeader
}

// ReadFS parses and returns every table this core exposes.
func (img *Image) ReadFS() (*FS, error) {
	root, inodes, err := img.Inodes()
	if err != nil {
		return nil, err
	}
	frags, err := img.Fragments()
	if err != nil {
		return nil, err
	}
	ids, err := img.IDTable()
	if err != nil {
		return nil, err
	}
	exports, err := img.ExportTable()
	if err != nil {
		return nil, err
	}

	return &FS{
		Fragments:   frags,
		IDTable:     ids,
		ExportTable: exports,
		Root:        root,
		Inodes:      inodes,
	}, nil
}
