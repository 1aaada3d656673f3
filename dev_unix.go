//go:build linux || darwin

package squashfs

import "golang.org/x/sys/unix"

// Major returns the device's major number, decomposed from the packed
// rdev field the way the host libc would for a real device node.
func (d *DevInodeHeader) Major() uint32 {
	return uint32(unix.Major(uint64(d.Rdev)))
}

// Minor returns the device's minor number.
func (d *DevInodeHeader) Minor() uint32 {
	return uint32(unix.Minor(uint64(d.Rdev)))
}

// Major returns the device's major number.
func (d *LDevInodeHeader) Major() uint32 {
	return uint32(unix.Major(uint64(d.Rdev)))
}

// Minor returns the device's minor number.
func (d *LDevInodeHeader) Minor() uint32 {
	return uint32(unix.Minor(uint64(d.Rdev)))
}
