//go:build unix

package launcher

import (
	"sync"

	"golang.org/x/sys/unix"
)

// umask is process wide; callers are serialized so a restore never races
// another caller's change.
var umaskMu sync.Mutex

// WithUmask runs fn with the process umask set to mask and restores the
// previous value afterwards, including when fn panics.
func WithUmask(mask int, fn func() error) error {
	umaskMu.Lock()
	defer umaskMu.Unlock()

	prev := unix.Umask(mask)
	defer unix.Umask(prev)

	return fn()
}
