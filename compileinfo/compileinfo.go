// Package compileinfo reports the build metadata the toolchain stamps into
// a binary, so segmentation outputs can be traced back to the exact code
// that produced them.
package compileinfo

import (
	"fmt"
	"os"
	"runtime/debug"
)

// CompileInfo identifies one build of a binary.
type CompileInfo struct {
	Package    string
	GoVersion  string
	Commit     string
	CommitTime string
	Modified   bool
}

func (c CompileInfo) String() string {
	mod := ""
	if c.Modified {
		mod = " The working tree was modified after that commit."
	}

	return fmt.Sprintf("This %s binary was built with %s at commit %s (%s).%s",
		c.Package, c.GoVersion, c.Commit, c.CommitTime, mod)
}

// Get reads the stamp embedded by the toolchain. Binaries built outside a
// repository carry no commit information.
func Get() CompileInfo {
	out := CompileInfo{Commit: "(unknown)", CommitTime: "(unknown)"}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}

	out.Package = info.Path
	out.GoVersion = info.GoVersion
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Commit = s.Value
		case "vcs.time":
			out.CommitTime = s.Value
		case "vcs.modified":
			out.Modified = s.Value == "true"
		}
	}

	return out
}

// PrintToStdErr writes the build stamp where it cannot pollute piped
// output.
func PrintToStdErr() {
	fmt.Fprintln(os.Stderr, Get())
}
