// Package buildinfo contains build information.
//
// Build information should be set during compilation by passing
// -ldflags "-X src.furver.dev/pkg/buildinfo.Var=value" to "go build".
package buildinfo

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"

	"src.furver.dev/pkg/prog"
)

// Version identifies the version of Furver. On development commits, it
// identifies the next release.
const Version = "v0.5.0"

// VersionSuffix is appended to Version to build the full version string. It
// can be overridden when building Furver.
var VersionSuffix = "-dev.unknown"

// Reproducible identifies whether the build is reproducible. This can be
// overridden when building Furver.
var Reproducible = "false"

// Info contains all the build information.
type Info struct {
	Version      string `json:"version"`
	GoVersion    string `json:"goversion"`
	Revision     string `json:"revision,omitempty"`
	Reproducible bool   `json:"reproducible"`
}

// Value returns the build information of the running binary.
func Value() Info {
	info := Info{
		Version:      Version + VersionSuffix,
		GoVersion:    runtime.Version(),
		Reproducible: Reproducible == "true",
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				info.Revision = s.Value
			}
		}
	}
	return info
}

// Program is the buildinfo subprogram.
type Program struct {
	version, buildinfo bool
	json               *bool
}

func (p *Program) RegisterFlags(fs *prog.FlagSet) {
	fs.BoolVar(&p.version, "version", false,
		"Output the Furver version and quit")
	fs.BoolVar(&p.buildinfo, "buildinfo", false,
		"Output information about the Furver build and quit")
	p.json = fs.JSON()
}

func (p *Program) Run(fds [3]*os.File, _ []string) error {
	switch {
	case p.buildinfo:
		info := Value()
		if *p.json {
			fmt.Fprintln(fds[1], mustToJSON(info))
		} else {
			fmt.Fprintln(fds[1], "Version:", info.Version)
			fmt.Fprintln(fds[1], "Go version:", info.GoVersion)
			if info.Revision != "" {
				fmt.Fprintln(fds[1], "Revision:", info.Revision)
			}
			fmt.Fprintln(fds[1], "Reproducible build:", info.Reproducible)
		}
	case p.version:
		if *p.json {
			fmt.Fprintln(fds[1], mustToJSON(Version+VersionSuffix))
		} else {
			fmt.Fprintln(fds[1], Version+VersionSuffix)
		}
	default:
		return prog.ErrNextProgram
	}
	return nil
}

func mustToJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
