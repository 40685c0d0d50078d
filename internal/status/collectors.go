package status

import (
	"context"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/disk"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"
)

// Collector reads a single host health metric for the dashboard's status
// endpoint. A nil return means the reading failed and the metric is
// omitted from the snapshot.
type Collector interface {
	Name() string
	Collect(ctx context.Context) interface{}
	Unit() string
}

// CPUCollector reads overall CPU utilization.
type CPUCollector struct {
	Logger zerolog.Logger
}

func (c *CPUCollector) Name() string {
	return "cpu"
}

func (c *CPUCollector) Collect(ctx context.Context) interface{} {
	cpuPercentages, err := cpu.Percent(0, false)
	if err != nil {
		c.Logger.Error().Err(err).Msg("Failed to get CPU usage")
		return nil
	}

	if len(cpuPercentages) == 0 {
		c.Logger.Warn().Msg("CPU usage data is empty")
		return nil
	}

	return &cpuPercentages[0]
}

func (c *CPUCollector) Unit() string {
	return "percentage"
}

// MemoryCollector reads the percentage of used virtual memory.
type MemoryCollector struct {
	Logger zerolog.Logger
}

func (m *MemoryCollector) Name() string {
	return "memory"
}

func (m *MemoryCollector) Collect(ctx context.Context) interface{} {
	memStats, err := mem.VirtualMemory()
	if err != nil {
		m.Logger.Error().Err(err).Msg("Failed to retrieve memory statistics")
		return nil
	}

	return &memStats.UsedPercent
}

func (m *MemoryCollector) Unit() string {
	return "percentage"
}

// DiskCollector reads disk usage of the root filesystem, where the export
// directory usually lives.
type DiskCollector struct {
	Logger zerolog.Logger
}

func (d *DiskCollector) Name() string {
	return "disk"
}

func (d *DiskCollector) Collect(ctx context.Context) interface{} {
	diskStats, err := disk.Usage("/")
	if err != nil {
		d.Logger.Error().Err(err).Msg("Failed to get disk usage")
		return nil
	}

	return &diskStats.UsedPercent
}

func (d *DiskCollector) Unit() string {
	return "percentage"
}

// UptimeCollector reads how long the host has been up.
type UptimeCollector struct {
	Logger zerolog.Logger
}

func (u *UptimeCollector) Name() string {
	return "uptime"
}

func (u *UptimeCollector) Collect(ctx context.Context) interface{} {
	uptime, err := host.Uptime()
	if err != nil {
		u.Logger.Error().Err(err).Msg("Failed to retrieve host uptime")
		return nil
	}

	seconds := float64(uptime)
	return &seconds
}

func (u *UptimeCollector) Unit() string {
	return "seconds"
}

// GoroutineCollector reads the number of active goroutines in the daemon
// itself.
type GoroutineCollector struct {
	Logger zerolog.Logger
}

func (g *GoroutineCollector) Name() string {
	return "goroutines"
}

func (g *GoroutineCollector) Collect(ctx context.Context) interface{} {
	n := float64(runtime.NumGoroutine())
	return &n
}

func (g *GoroutineCollector) Unit() string {
	return "count"
}
