package internal

import (
	"runtime/debug"
)

const (
	_moduleName     = "github.com/luizaranda/go-rest"
	_unknownVersion = "v0.0.0-unknown"
)

// Version is the version of this module as recorded in the build info of the
// running binary.
var Version = func() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return _unknownVersion
	}
	if bi.Main.Path == _moduleName && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	for _, dep := range bi.Deps {
		if dep.Path == _moduleName {
			return dep.Version
		}
	}
	return _unknownVersion
}()
