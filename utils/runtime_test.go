package utils

import (
	"bytes"
	"testing"
	"time"
)

func TestGetHostnameCached(t *testing.T) {
	first := GetHostname()
	if first == "" {
		t.Fatal("Expected a non-empty hostname")
	}
	if second := GetHostname(); second != first {
		t.Errorf("Expected cached hostname %q, got %q", first, second)
	}
}

func TestCollectRuntimeStatus(t *testing.T) {
	status := CollectRuntimeStatus(time.Now().Add(-90 * time.Second))

	if status.Goroutines < 1 {
		t.Errorf("Expected at least one goroutine, got %d", status.Goroutines)
	}
	if status.Uptime < 89*time.Second {
		t.Errorf("Expected uptime of about 90s, got %v", status.Uptime)
	}

	var buf bytes.Buffer
	if _, err := status.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	for _, want := range []string{"Host: ", "Goroutines: ", "Memory Allocated: ", "GC Cycles: "} {
		if !bytes.Contains(buf.Bytes(), []byte(want)) {
			t.Errorf("Expected %q in status output:\n%s", want, buf.String())
		}
	}
}
