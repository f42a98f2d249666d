// internal/utils/sysinfo.go
package utils

import (
	"os"
	"runtime"
	"time"
)

// SystemInfo holds host metadata reported with registration and heartbeats
type SystemInfo struct {
	Hostname     string `json:"hostname"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	GoVersion    string `json:"go_version"`
	NumCPU       int    `json:"num_cpu"`
	UptimeSec    int64  `json:"uptime_sec"`
}

var startTime = time.Now()

// CollectSystemInfo returns information about the current host
func CollectSystemInfo() SystemInfo {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	return SystemInfo{
		Hostname:     hostname,
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		UptimeSec:    int64(time.Since(startTime).Seconds()),
	}
}

// Uptime returns time elapsed since process start
func Uptime() time.Duration {
	return time.Since(startTime)
}
