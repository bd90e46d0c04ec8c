// Package version carries the build metadata stamped in with -ldflags.
package version

import (
	"fmt"
	"runtime"
	"time"
)

// Set at build time:
//
//	-ldflags "-X .../internal/version.Version=v1.2.0 -X .../internal/version.CommitID=$(git rev-parse --short HEAD)"
var (
	Version   = "dev"
	BuildTime = "unknown"
	CommitID  = "unknown"
)

// APIVersion is the revision of the HTTP and session protocol.
const APIVersion = "v1"

// Info describes the running binary.
type Info struct {
	Version    string `json:"version" yaml:"version"`
	APIVersion string `json:"apiVersion" yaml:"apiVersion"`
	Commit     string `json:"commit" yaml:"commit"`
	BuildTime  string `json:"buildTime" yaml:"buildTime"`
	GoVersion  string `json:"goVersion" yaml:"goVersion"`
	Platform   string `json:"platform" yaml:"platform"`
}

// Current returns the build metadata of this binary.
func Current() Info {
	return Info{
		Version:    Version,
		APIVersion: APIVersion,
		Commit:     CommitID,
		BuildTime:  formatBuildTime(),
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Fields returns the info as a generic map for printers.
func (i Info) Fields() map[string]interface{} {
	return map[string]interface{}{
		"version":    i.Version,
		"apiVersion": i.APIVersion,
		"commit":     i.Commit,
		"buildTime":  i.BuildTime,
		"goVersion":  i.GoVersion,
		"platform":   i.Platform,
	}
}

func (i Info) String() string {
	return fmt.Sprintf("displaysettings %s (commit %s, built %s, %s)", i.Version, i.Commit, i.BuildTime, i.Platform)
}

// formatBuildTime renders an RFC 3339 BuildTime for humans and passes
// anything else through.
func formatBuildTime() string {
	t, err := time.Parse(time.RFC3339, BuildTime)
	if err != nil {
		return BuildTime
	}
	return t.Format("Mon Jan 2 15:04:05 2006")
}
