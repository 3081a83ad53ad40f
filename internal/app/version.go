package app

import "runtime/debug"

// vcsRevision prefers the revision injected at link time and falls back to
// the one recorded by the Go toolchain.
func vcsRevision(value string, defaultValue string) string {
	if value != "" {
		return value
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return defaultValue
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" && len(setting.Value) >= len(defaultValue) {
			return setting.Value
		}
	}
	return defaultValue
}
