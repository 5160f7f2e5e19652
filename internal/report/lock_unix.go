//go:build unix

package report

import (
	"os"
	"syscall"
)

// OS-level advisory locking is available on unix via flock(2).
const lockingSupported = true

func flockExclusive(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_EX)
}

func flockRelease(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
}
