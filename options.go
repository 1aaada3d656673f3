package squashfs

import "github.com/sirupsen/logrus"

// Option configures a Superblock at construction time.
type Option func(sb *Superblock) error

// InodeOffset records offt on the Superblock. No decoder in this package
// reads it: the inode numbers the decoders return are the on-disk values,
// not shifted by offt.
func InodeOffset(offt uint64) Option {
	return func(sb *Superblock) error {
		sb.inoOfft = offt
		return nil
	}
}

// WithLogger replaces the package-level logger (see Log and SetLogger)
// with l. The change is package-wide: it applies to every archive decoded
// afterwards, not only to this one.
func WithLogger(l logrus.FieldLogger) Option {
	return func(sb *Superblock) error {
		SetLogger(l)
		return nil
	}
}
