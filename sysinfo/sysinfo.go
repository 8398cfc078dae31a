// Package sysinfo samples host CPU, memory, disk and uptime from procfs.
package sysinfo

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Prober reads host metrics. Root is the procfs mount, "/proc" by default.
type Prober struct {
	Root     string
	DiskPath string

	// CPUInterval is the gap between the two /proc/stat samples.
	CPUInterval time.Duration
}

func NewProber() *Prober {
	return &Prober{Root: "/proc", DiskPath: "/", CPUInterval: 200 * time.Millisecond}
}

// Metrics is one sample of host usage. Percentages are 0-100.
type Metrics struct {
	CPU    float64
	RAM    float64
	Disk   float64
	Uptime string
}

// Sample probes every metric. A probe that fails leaves its field at 0
// (or "--" for uptime) and the others are still filled.
func (p *Prober) Sample(ctx context.Context) Metrics {
	m := Metrics{Uptime: "--"}
	if v, err := p.CPUPercent(ctx); err == nil {
		m.CPU = v
	}
	if v, err := p.MemoryPercent(); err == nil {
		m.RAM = v
	}
	if v, err := DiskPercent(p.DiskPath); err == nil {
		m.Disk = v
	}
	if d, err := p.Uptime(); err == nil {
		m.Uptime = FormatUptime(d)
	}
	return m
}

type cpuTimes struct {
	idle, total uint64
}

func (p *Prober) readCPU() (cpuTimes, error) {
	data, err := os.ReadFile(filepath.Join(p.Root, "stat"))
	if err != nil {
		return cpuTimes{}, fmt.Errorf("read stat: %w", err)
	}
	line, _, _ := bytes.Cut(data, []byte("\n"))
	fields := strings.Fields(string(line))
	if len(fields) < 5 || fields[0] != "cpu" {
		return cpuTimes{}, fmt.Errorf("unexpected stat line %q", line)
	}
	var t cpuTimes
	for i, f := range fields[1:] {
		v, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return cpuTimes{}, fmt.Errorf("parse stat field %d: %w", i, err)
		}
		t.total += v
		// idle and iowait
		if i == 3 || i == 4 {
			t.idle += v
		}
	}
	return t, nil
}

// CPUPercent measures busy time across all CPUs between two samples.
func (p *Prober) CPUPercent(ctx context.Context) (float64, error) {
	a, err := p.readCPU()
	if err != nil {
		return 0, err
	}
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-time.After(p.CPUInterval):
	}
	b, err := p.readCPU()
	if err != nil {
		return 0, err
	}
	return cpuBusy(a, b), nil
}

func cpuBusy(a, b cpuTimes) float64 {
	if b.total <= a.total {
		return 0
	}
	total := float64(b.total - a.total)
	idle := float64(b.idle - a.idle)
	return round1((total - idle) / total * 100)
}

// MemoryPercent is (MemTotal - MemAvailable) / MemTotal.
func (p *Prober) MemoryPercent() (float64, error) {
	f, err := os.Open(filepath.Join(p.Root, "meminfo"))
	if err != nil {
		return 0, fmt.Errorf("read meminfo: %w", err)
	}
	defer f.Close()

	var total, avail uint64
	var haveAvail bool
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, rest, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			continue
		}
		v, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			continue
		}
		switch key {
		case "MemTotal":
			total = v
		case "MemAvailable":
			avail, haveAvail = v, true
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("read meminfo: %w", err)
	}
	if total == 0 || !haveAvail {
		return 0, fmt.Errorf("meminfo missing MemTotal or MemAvailable")
	}
	return math.Round(float64(total-avail) / float64(total) * 100), nil
}

// Uptime reads the first field of /proc/uptime.
func (p *Prober) Uptime() (time.Duration, error) {
	data, err := os.ReadFile(filepath.Join(p.Root, "uptime"))
	if err != nil {
		return 0, fmt.Errorf("read uptime: %w", err)
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty uptime")
	}
	secs, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("parse uptime: %w", err)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// FormatUptime renders d the way `uptime -p` does, e.g.
// "up 2 days, 3 hours, 1 minute".
func FormatUptime(d time.Duration) string {
	mins := int64(d / time.Minute)
	days := mins / (24 * 60)
	hours := (mins / 60) % 24
	mins %= 60

	var parts []string
	add := func(n int64, unit string) {
		if n == 0 {
			return
		}
		if n == 1 {
			parts = append(parts, "1 "+unit)
			return
		}
		parts = append(parts, fmt.Sprintf("%d %ss", n, unit))
	}
	if weeks := days / 7; weeks > 0 {
		add(weeks, "week")
		days %= 7
	}
	add(days, "day")
	add(hours, "hour")
	add(mins, "minute")
	if len(parts) == 0 {
		return "up 0 minutes"
	}
	return "up " + strings.Join(parts, ", ")
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
