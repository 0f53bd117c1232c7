// Package buildinfo reports which xbpar build is running.
//
// Release builds set the variables via ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/xbpar/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/xbpar/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/xbpar/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Without ldflags the commit and date fall back to the VCS stamp embedded by
// the Go toolchain, when there is one.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

var (
	// Version is the semantic version (e.g., "v1.2.3").
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// Info is the build description served by the API.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
}

var stampOnce sync.Once

// stamp fills Commit and Date from the embedded VCS settings if ldflags
// left them unset.
func stamp() {
	stampOnce.Do(func() {
		bi, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		for _, s := range bi.Settings {
			switch {
			case s.Key == "vcs.revision" && Commit == "none":
				Commit = s.Value
			case s.Key == "vcs.time" && Date == "unknown":
				Date = s.Value
			}
		}
	})
}

// Get returns the build description.
func Get() Info {
	stamp()
	return Info{Version: Version, Commit: Commit, Date: Date, GoVersion: runtime.Version()}
}

// Template returns the version template string for cobra.
func Template() string {
	i := Get()
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\ngo: %s\n", i.Version, i.Commit, i.Date, i.GoVersion)
}

// CachePrefix scopes cache keys to the engine build, so placements made by
// one build are never replayed by another. Development builds are told
// apart by commit.
func CachePrefix() string {
	i := Get()
	if i.Version == "dev" && i.Commit != "none" {
		return "xbpar@dev-" + shortCommit(i.Commit) + ":"
	}
	return "xbpar@" + i.Version + ":"
}

func shortCommit(c string) string {
	if len(c) > 12 {
		return c[:12]
	}
	return c
}
