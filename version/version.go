// Package version reports build metadata injected with -ldflags.
package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Set at build time, for example:
//
//	go build -ldflags "-X github.com/grovetools/sensorsession/version.Version=v0.3.0"
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Info holds all the versioning information.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// GetInfo returns a struct populated with the version information.
func GetInfo() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String renders the details below the name line printed by the version
// command.
func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "  Commit:     %s\n", i.Commit)
	fmt.Fprintf(&b, "  Built:      %s\n", i.BuildDate)
	fmt.Fprintf(&b, "  Go:         %s\n", i.GoVersion)
	fmt.Fprintf(&b, "  Platform:   %s", i.Platform)
	return b.String()
}
