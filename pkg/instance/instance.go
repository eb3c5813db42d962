package instance

import "os"

// ID identifies this process among replicas in logs and lock owners.
// SERVICEHUB_INSTANCE_ID wins, then the hostname.
func ID() string {
	if id := os.Getenv("SERVICEHUB_INSTANCE_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
