package sysinfo

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeProc(t *testing.T, root, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestMemoryPercent(t *testing.T) {
	root := t.TempDir()
	writeProc(t, root, "meminfo", "MemTotal:       16000000 kB\nMemFree:         1000000 kB\nMemAvailable:    4000000 kB\n")
	p := &Prober{Root: root}
	got, err := p.MemoryPercent()
	if err != nil {
		t.Fatal(err)
	}
	if got != 75 {
		t.Errorf("want 75, got %v", got)
	}
}

func TestCPUBusy(t *testing.T) {
	a := cpuTimes{idle: 800, total: 1000}
	b := cpuTimes{idle: 1100, total: 1400}
	// 400 ticks elapsed, 300 idle.
	if got := cpuBusy(a, b); got != 25 {
		t.Errorf("want 25, got %v", got)
	}
	if got := cpuBusy(b, a); got != 0 {
		t.Errorf("counter reset should give 0, got %v", got)
	}
}

func TestReadCPU(t *testing.T) {
	root := t.TempDir()
	writeProc(t, root, "stat", "cpu  100 0 50 800 50 0 0 0 0 0\ncpu0 1 2 3 4 5\n")
	ct, err := (&Prober{Root: root}).readCPU()
	if err != nil {
		t.Fatal(err)
	}
	if ct.total != 1000 || ct.idle != 850 {
		t.Errorf("got %+v", ct)
	}
}

func TestSample_PartialFailure(t *testing.T) {
	root := t.TempDir()
	writeProc(t, root, "uptime", "93784.51 170000.00\n")
	p := &Prober{Root: root, DiskPath: filepath.Join(root, "missing"), CPUInterval: time.Millisecond}

	m := p.Sample(context.Background())
	if m.CPU != 0 || m.RAM != 0 || m.Disk != 0 {
		t.Errorf("failed probes should be zero: %+v", m)
	}
	if m.Uptime != "up 1 day, 2 hours, 3 minutes" {
		t.Errorf("uptime: got %q", m.Uptime)
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "up 0 minutes"},
		{61 * time.Minute, "up 1 hour, 1 minute"},
		{15*24*time.Hour + 5*time.Minute, "up 2 weeks, 1 day, 5 minutes"},
	}
	for _, tt := range tests {
		if got := FormatUptime(tt.d); got != tt.want {
			t.Errorf("FormatUptime(%s): want %q, got %q", tt.d, tt.want, got)
		}
	}
}
