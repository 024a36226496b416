package models

type HostMetrics struct {
	CPUUsage    float64 `json:"cpu_usage"`
	MemoryUsage float64 `json:"memory_usage"`
	DiskUsage   float64 `json:"disk_usage"`
	Hostname    string  `json:"hostname"`
	OS          string  `json:"os"`
	Uptime      uint64  `json:"uptime"`
}

type HealthCheck struct {
	Status      string       `json:"sys_status"`
	Uptime      int64        `json:"uptime"`
	UIClients   int          `json:"ui_clients"`
	Editors     int          `json:"editor_clients"`
	Terminals   int          `json:"terminals"`
	HostMetrics *HostMetrics `json:"host_metrics,omitempty"`
}
