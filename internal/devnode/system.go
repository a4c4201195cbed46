package devnode

import (
	"fmt"
	"os"
	"os/user"
	"strconv"

	"golang.org/x/sys/unix"
)

// System is the OS surface the manager needs. The production implementation
// talks to the kernel; tests substitute a recording fake.
type System interface {
	// Mknod creates a device special file. mode carries both the permission
	// bits and the S_IFBLK/S_IFCHR file type.
	Mknod(path string, mode uint32, dev uint64) error
	Chown(path string, uid, gid int) error
	Symlink(target, link string) error
	Unlink(path string) error
	MkdirAll(path string, perm os.FileMode) error
	// Umask sets the process file-creation mask and returns the previous one.
	Umask(mask int) int
	// LookupGroupID resolves a group name to its numeric gid.
	LookupGroupID(name string) (int, error)
}

type unixSystem struct{}

// NewUnixSystem returns the System backed by real syscalls.
func NewUnixSystem() System {
	return unixSystem{}
}

func (unixSystem) Mknod(path string, mode uint32, dev uint64) error {
	return unix.Mknod(path, mode, int(dev))
}

func (unixSystem) Chown(path string, uid, gid int) error {
	return unix.Chown(path, uid, gid)
}

func (unixSystem) Symlink(target, link string) error {
	return unix.Symlink(target, link)
}

func (unixSystem) Unlink(path string) error {
	return unix.Unlink(path)
}

func (unixSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (unixSystem) Umask(mask int) int {
	return unix.Umask(mask)
}

func (unixSystem) LookupGroupID(name string) (int, error) {
	group, err := user.LookupGroup(name)
	if err != nil {
		return 0, err
	}
	gid, err := strconv.Atoi(group.Gid)
	if err != nil {
		return 0, fmt.Errorf("group %q has non-numeric gid %q: %w", name, group.Gid, err)
	}
	return gid, nil
}
