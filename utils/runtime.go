package utils

import (
	"fmt"
	"io"
	"net"
	"os"
	"runtime"
	"sync"
	"time"
)

var (
	hostname     string
	hostnameOnce sync.Once
)

// GetHostname returns the cached hostname
func GetHostname() string {
	hostnameOnce.Do(func() {
		hostname = findHostname()
	})
	return hostname
}

// findHostname attempts to get the hostname
func findHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}

	// Try to get FQDN
	addrs, err := net.LookupHost(hostname)
	if err == nil && len(addrs) > 0 {
		return fmt.Sprintf("%s/%s", hostname, addrs[0])
	}

	return hostname
}

// RuntimeStatus is a point-in-time view of the Go runtime
type RuntimeStatus struct {
	Host        string
	Goroutines  int
	CPUs        int
	AllocKB     uint64
	TotalKB     uint64
	GCCycles    uint32
	Uptime      time.Duration
	CollectedAt time.Time
}

// CollectRuntimeStatus reads memory and scheduler statistics. started is the process start time.
func CollectRuntimeStatus(started time.Time) RuntimeStatus {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	now := time.Now()
	return RuntimeStatus{
		Host:        GetHostname(),
		Goroutines:  runtime.NumGoroutine(),
		CPUs:        runtime.NumCPU(),
		AllocKB:     m.Alloc / 1024,
		TotalKB:     m.TotalAlloc / 1024,
		GCCycles:    m.NumGC,
		Uptime:      now.Sub(started).Truncate(time.Second),
		CollectedAt: now,
	}
}

// WriteTo prints the status as plain text
func (s RuntimeStatus) WriteTo(w io.Writer) (int64, error) {
	n, err := fmt.Fprintf(w, "Host: %s\nUptime: %s\nGoroutines: %d\nCPUs: %d\nMemory Allocated: %d KB\nMemory Total: %d KB\nGC Cycles: %d\n",
		s.Host, s.Uptime, s.Goroutines, s.CPUs, s.AllocKB, s.TotalKB, s.GCCycles)
	return int64(n), err
}
