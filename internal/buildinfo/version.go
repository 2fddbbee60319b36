package buildinfo

import "runtime/debug"

// Name is the product name reported in User-Agent headers.
const Name = "plt-deploy-action"

// Version returns the build version or revision for the running binary.
func Version() string {
	info, ok := debug.ReadBuildInfo()
	if ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && setting.Value != "" {
				return setting.Value
			}
		}
	}
	return "dev"
}

// UserAgent returns the User-Agent used for outgoing HTTP calls.
func UserAgent() string {
	return Name + "/" + Version()
}
