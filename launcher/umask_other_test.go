//go:build !unix

package launcher

func currentUmask() int { return 0 }
