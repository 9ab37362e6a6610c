// Package version holds build metadata for the sitemd binary. The
// variables are stamped with -ldflags at release time:
//
//	go build -ldflags "-X github.com/jmylchreest/sitemd/internal/version.Version=1.2.0" ./cmd/sitemd
package version

import (
	"fmt"
	"runtime"
	"strings"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	Dirty     = "false"
	BuildDate = "unknown"
)

const homepage = "https://github.com/jmylchreest/sitemd"

// Info is the payload of `sitemd version --format json|yaml`.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	Dirty     bool   `json:"dirty" yaml:"dirty"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Dirty:     Dirty == "true",
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		UserAgent: UserAgent(),
	}
}

// String is the short version, suffixed -dirty for modified trees.
func String() string {
	if Dirty == "true" {
		return Version + "-dirty"
	}
	return Version
}

// UserAgent is what the fetcher sends when none is configured.
func UserAgent() string {
	return fmt.Sprintf("sitemd/%s (+%s)", String(), homepage)
}

// Full renders Info for humans.
func Full() string {
	info := Get()
	rows := [][2]string{
		{"Commit", info.Commit},
		{"Built", info.BuildDate},
		{"Go version", info.GoVersion},
		{"OS/Arch", info.Platform},
		{"User-Agent", info.UserAgent},
	}

	var sb strings.Builder
	sb.WriteString("sitemd " + String())
	for _, r := range rows {
		fmt.Fprintf(&sb, "\n  %-11s %s", r[0]+":", r[1])
	}
	return sb.String()
}
