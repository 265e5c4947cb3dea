// SPDX-License-Identifier: MIT
//
// Package build exposes the metadata injected with -ldflags at link time:
//
//	go build -ldflags "-X tuner/pkg/build.buildVersion=0.1.0 \
//	    -X tuner/pkg/build.buildCommit=$(git rev-parse --short HEAD) \
//	    -X tuner/pkg/build.buildTime=$(date -u +%FT%TZ)"
//
// Development builds run with the defaults.
package build

import (
	"errors"
	"fmt"
)

// Info describes the running binary.
type Info struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// String formats the version line printed by --version.
func (i Info) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", i.Version, i.Commit, i.Time)
}

var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string

	info = defaults()
)

func defaults() Info {
	return Info{
		Name:        "tuner",
		Description: "Period-based instrument tuner",
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
}

// Initialize copies the link-time values into Info. Flags that were not
// set keep their defaults and are reported in the returned error.
func Initialize() error {
	info = defaults()

	var errs []error
	set := func(dst *string, v, flag string) {
		if v == "" {
			errs = append(errs, fmt.Errorf("%s is not set", flag))
			return
		}
		*dst = v
	}
	if buildName != "" {
		info.Name = buildName
	}
	set(&info.Time, buildTime, "buildTime")
	set(&info.Commit, buildCommit, "buildCommit")
	set(&info.Version, buildVersion, "buildVersion")

	return errors.Join(errs...)
}

// Get returns the build information.
func Get() Info {
	return info
}
