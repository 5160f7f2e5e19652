//go:build !unix

package report

import "os"

// No OS-level advisory locking here; callers can check LockingActive and
// fail closed. The atomic-rename write path remains the correctness
// fallback either way.
const lockingSupported = false

func flockExclusive(*os.File) error { return nil }

func flockRelease(*os.File) error { return nil }
