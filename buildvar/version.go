// Package buildvar provides the version of an addrlist build.
package buildvar

import (
	"runtime"
	"runtime/debug"
)

// Version is set at startup from the Go module information of the build.
var Version = "(devel)"

// GoVersion is the Go toolchain the binary was built with.
var GoVersion = runtime.Version()

func init() {
	if bi, ok := debug.ReadBuildInfo(); ok {
		Version = version(bi)
	}
}

// version returns the module version, or for development builds the vcs
// revision with a suffix for local modifications.
func version(bi *debug.BuildInfo) string {
	if bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	var rev, modified string
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			modified = s.Value
		}
	}
	switch {
	case rev == "":
		return "(devel)"
	case modified == "false":
		return rev
	case modified == "true":
		return rev + "+modifications"
	}
	return rev + "+unknown"
}
