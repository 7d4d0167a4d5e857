package pairing

import (
	"os"
	"strings"
)

// The bridge caps the instance part of devicetype at 19 characters.
const maxInstanceLength = 19

// DefaultDeviceType derives the devicetype sent in pairing requests
// from the local hostname, in the bridge's expected
// application#instance form.
func DefaultDeviceType() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "device"
	}
	host = strings.TrimSpace(host)
	if len(host) > maxInstanceLength {
		host = host[:maxInstanceLength]
	}
	return "huelink#" + host
}
