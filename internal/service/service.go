// Package service reports the health of the daemon and the machine it runs on.
package service

import (
	"time"

	"github.com/1023-Ventures/qlaunch/internal/models"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

type Service struct {
	startTime time.Time
	diskPath  string
}

// NewService records the start time used for Uptime. diskPath is the volume
// whose usage is reported, normally the first workspace root.
func NewService(diskPath string) *Service {
	if diskPath == "" {
		diskPath = "/"
	}
	return &Service{startTime: time.Now(), diskPath: diskPath}
}

// Uptime is the daemon uptime in seconds.
func (s *Service) Uptime() int64 {
	return int64(time.Since(s.startTime).Seconds())
}

// GetHostMetrics samples the host. Values that cannot be read stay zero.
func (s *Service) GetHostMetrics() *models.HostMetrics {
	m := &models.HostMetrics{}
	if cpuPercent, err := cpu.Percent(0, false); err == nil && len(cpuPercent) > 0 {
		m.CPUUsage = cpuPercent[0]
	}
	if memStat, err := mem.VirtualMemory(); err == nil {
		m.MemoryUsage = memStat.UsedPercent
	}
	if diskStat, err := disk.Usage(s.diskPath); err == nil {
		m.DiskUsage = diskStat.UsedPercent
	}
	if hostInfo, err := host.Info(); err == nil {
		m.Hostname = hostInfo.Hostname
		m.OS = hostInfo.OS
		m.Uptime = hostInfo.Uptime
	}
	return m
}
