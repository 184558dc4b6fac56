// Package version identifies the agent build. Version and Commit are set
// with -ldflags at release time.
package version

import (
	"fmt"
	"runtime"
)

const Library = "trustshield-go"

var (
	Version = "0.4.0"
	Commit  = "dev"
)

type Info struct {
	Library   string `json:"library"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func GetInfo() Info {
	return Info{
		Library:   Library,
		Version:   Version,
		Commit:    Commit,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// UserAgent is sent with every report.
func UserAgent() string {
	return fmt.Sprintf("%s/%s (%s)", Library, Version, runtime.Version())
}
