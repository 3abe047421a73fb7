package instance

import (
	"os"
	"strings"
)

const fallbackID = "local"

// GetID identifies this process in logs. AGROMARKET_INSTANCE_ID wins, then
// the platform's dyno name, then the hostname.
func GetID() string {
	for _, key := range []string{"AGROMARKET_INSTANCE_ID", "DYNO"} {
		if id := strings.TrimSpace(os.Getenv(key)); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
