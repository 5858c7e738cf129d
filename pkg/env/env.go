// Package env reads process-level settings that sit outside the typed config,
// such as log formatting and the worker identity.
package env

import (
	"os"
	"strings"
)

const instanceIDKey = "BOMCATALOG_INSTANCE_ID"

// Get returns the trimmed value of key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// InstanceID names this process for lock ownership and logs. It prefers the
// explicit setting and falls back to the hostname.
func InstanceID() string {
	if id := Get(instanceIDKey, ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "instance-0"
}
