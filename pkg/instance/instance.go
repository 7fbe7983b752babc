package instance

import "os"

// GetID identifies the running replica in logs. CAMPUS_INSTANCE_ID wins,
// then the container hostname.
func GetID() string {
	if id := os.Getenv("CAMPUS_INSTANCE_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
