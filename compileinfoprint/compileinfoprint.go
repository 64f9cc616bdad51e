// Package compileinfoprint is imported for its side effect: it prints the
// build stamp to os.Stderr at startup.
package compileinfoprint

import "github.com/biostacks/nucseg/compileinfo"

func init() {
	compileinfo.PrintToStdErr()
}
