//go:build linux

package sysinfo

import (
	"fmt"
	"math"
	"syscall"
)

// DiskPercent reports used space on the filesystem holding path, matching
// the Use% column of df (reserved blocks excluded from the total).
func DiskPercent(path string) (float64, error) {
	var st syscall.Statfs_t
	if err := syscall.Statfs(path, &st); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	used := st.Blocks - st.Bfree
	avail := st.Bavail
	if used+avail == 0 {
		return 0, nil
	}
	return math.Ceil(float64(used) / float64(used+avail) * 100), nil
}
