//go:build !unix

package container

import "os"

// Advisory locking is only available on unix; elsewhere a single writer
// per container is the caller's responsibility.
func lockFile(*os.File) error { return nil }

func unlockFile(*os.File) {}
