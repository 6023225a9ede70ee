package utils

import (
	"os"
	"strings"
	"testing"
)

func TestGetHostname(t *testing.T) {
	hostname, err := GetHostname()
	if err != nil {
		t.Fatalf("GetHostname() error = %v", err)
	}
	if hostname == "" {
		t.Error("GetHostname() returned empty hostname")
	}
	if strings.ContainsAny(hostname, "\n\r") {
		t.Errorf("GetHostname() returned hostname with newline characters: %q", hostname)
	}

	expected, err := os.Hostname()
	if err != nil {
		t.Fatalf("os.Hostname() failed: %v", err)
	}
	if hostname != expected {
		t.Errorf("GetHostname() = %v, want %v", hostname, expected)
	}
}
