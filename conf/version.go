package conf

import "runtime/debug"

// GetVersion returns the main module version stamped by the go tool.
func GetVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" {
		return "(devel)"
	}
	return info.Main.Version
}
