// hostdisk.go - reference HostDisk backend: a flat disk-image file
// (SPEC_FULL S3 "golang.org/x/sys")

/*
ideadapter
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package ideadapter

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// FlatFileDisk is the reference HostDisk implementation: a plain flat
// sector-addressable image file, advisory-locked for the lifetime the
// emulator holds it open the way doismellburning-samoyed/src/ptt.go claims
// an exclusive ioctl handle on a device file before driving it. Embedders
// are free to substitute their own HostDisk (sparse image, raw device,
// network block store); this one exists so the module is runnable and
// testable without one.
type FlatFileDisk struct {
	f                       *os.File
	cyls, heads, sects      int
	locked                  bool
}

// OpenFlatFileDisk opens path and advisory-locks it exclusively via
// unix.Flock, reporting the fixed C/H/S geometry the caller supplies (the
// image format here carries no on-disk geometry table of its own).
func OpenFlatFileDisk(path string, cyls, heads, sects int) (*FlatFileDisk, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("ideadapter: open disk image %s: %w", path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("ideadapter: lock disk image %s: %w", path, err)
	}
	return &FlatFileDisk{f: f, cyls: cyls, heads: heads, sects: sects, locked: true}, nil
}

func (fd *FlatFileDisk) Geometry() (cyls, heads, sects int) {
	return fd.cyls, fd.heads, fd.sects
}

func (fd *FlatFileDisk) ReadSector(lba uint64, buf []byte) error {
	if len(buf) != BytesPerSector {
		return fmt.Errorf("ideadapter: read buffer must be %d bytes, got %d", BytesPerSector, len(buf))
	}
	n, err := fd.f.ReadAt(buf, int64(lba)*BytesPerSector)
	if err != nil {
		return fmt.Errorf("ideadapter: read sector %d: %w", lba, err)
	}
	if n != BytesPerSector {
		return fmt.Errorf("ideadapter: short read at sector %d: got %d bytes", lba, n)
	}
	return nil
}

func (fd *FlatFileDisk) WriteSector(lba uint64, buf []byte) error {
	if len(buf) != BytesPerSector {
		return fmt.Errorf("ideadapter: write buffer must be %d bytes, got %d", BytesPerSector, len(buf))
	}
	n, err := fd.f.WriteAt(buf, int64(lba)*BytesPerSector)
	if err != nil {
		return fmt.Errorf("ideadapter: write sector %d: %w", lba, err)
	}
	if n != BytesPerSector {
		return fmt.Errorf("ideadapter: short write at sector %d: got %d bytes", lba, n)
	}
	return nil
}

// Close releases the advisory lock and closes the backing file.
func (fd *FlatFileDisk) Close() error {
	if fd.locked {
		unix.Flock(int(fd.f.Fd()), unix.LOCK_UN)
		fd.locked = false
	}
	return fd.f.Close()
}
