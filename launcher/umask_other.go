//go:build !unix

package launcher

// WithUmask runs fn; there is no umask outside unix.
func WithUmask(mask int, fn func() error) error {
	return fn()
}
