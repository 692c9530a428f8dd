//go:build unix

// Package rlimit raises the open-file limit before many concurrent
// probes are started.
package rlimit

import "golang.org/x/sys/unix"

// Raise lifts the soft RLIMIT_NOFILE to at least want, bounded by the
// hard limit. It returns the resulting soft limit. Failure is reported
// to the caller but is expected to be treated as non-fatal.
func Raise(want uint64) (uint64, error) {
	var lim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &lim); err != nil {
		return 0, err
	}
	if lim.Cur >= want {
		return lim.Cur, nil
	}

	target := want
	if target > lim.Max {
		target = lim.Max
	}
	lim.Cur = target
	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &lim); err != nil {
		return 0, err
	}
	return lim.Cur, nil
}
