package monitor

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// sample takes one CPU/memory/disk reading. CPU percent is measured over a
// short blocking window (gopsutil's cpu.Percent), so callers must submit it
// to the concurrency facility's I/O pool rather than call it from the main
// loop.
func sample(ctx context.Context, rootPath string) (Snapshot, error) {
	cpuPercents, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false)
	if err != nil {
		return Snapshot{}, err
	}
	var cpuPercent float64
	if len(cpuPercents) > 0 {
		cpuPercent = cpuPercents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	du, err := disk.UsageWithContext(ctx, rootPath)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		CPUPercent:    cpuPercent,
		MemoryPercent: vm.UsedPercent,
		DiskPercent:   du.UsedPercent,
		SampledAt:     time.Now(),
	}, nil
}

// uptimeSeconds reports host uptime, the uptime loop's sole reading.
func uptimeSeconds(ctx context.Context) (float64, error) {
	up, err := host.UptimeWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return float64(up), nil
}
