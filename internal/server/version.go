package server

import (
	"fmt"
	"os"

	"github.com/comcastmike/rdkservices/internal/version"
)

// GetBuildID identifies the running executable by modification time, commit
// and size, so a rebuilt binary is told apart from a stale daemon.
func GetBuildID() string {
	commit := version.CommitID
	execPath, err := os.Executable()
	if err != nil {
		return version.BuildTime + "-" + commit + "-unknown"
	}

	info, err := os.Stat(execPath)
	if err != nil {
		return version.BuildTime + "-" + commit + "-unknown"
	}

	return fmt.Sprintf("%s-%s-%d", info.ModTime().Format("2006-01-02T15:04:05"), commit, info.Size())
}
