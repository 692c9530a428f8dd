//go:build !unix

package rlimit

// Raise is a no-op on platforms without rlimit support.
func Raise(uint64) (uint64, error) {
	return 0, nil
}
