//go:build unix

package launcher

import "golang.org/x/sys/unix"

// currentUmask reads the mask without changing it; callers must not run in
// parallel with WithUmask from another goroutine.
func currentUmask() int {
	prev := unix.Umask(0)
	unix.Umask(prev)
	return prev
}
