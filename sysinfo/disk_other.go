//go:build !linux

package sysinfo

import "errors"

// DiskPercent is only implemented on Linux.
func DiskPercent(path string) (float64, error) {
	return 0, errors.New("disk usage not supported on this platform")
}
