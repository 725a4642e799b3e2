package version

import (
	"fmt"
	"runtime"
)

const (
	// Name is the program name used in logs and the HTTP User-Agent.
	Name = "livelox-dl"

	// Version is the release number.
	Version = "1.2.0"
)

// UserAgent identifies outgoing requests to Livelox.
func UserAgent() string {
	return fmt.Sprintf("%s/%s (%s)", Name, Version, runtime.Version())
}
