package version

import (
	"fmt"
	"runtime"
	"time"
)

// Populated through -ldflags at release time; the zero values identify
// a from-source build.
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = time.Now().Format(time.RFC3339)
	GoVersion = runtime.Version()
)

// UserAgent identifies this build to the GitHub API.
func UserAgent() string {
	return fmt.Sprintf("markstash/%s (+https://github.com/markstash/markstash)", Version)
}
