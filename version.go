package edustack

import (
	"fmt"
	"runtime/debug"
)

const (
	majorVersion = 0
	minorVersion = 1
	patchVersion = 0
)

func Version() string {
	return fmt.Sprintf("v%d.%d.%d %s", majorVersion, minorVersion, patchVersion, buildInfo())
}

func buildInfo() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "(no build info)"
	}

	var revision, at string
	modified := false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.time":
			at = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}

	if len(revision) > 12 {
		revision = revision[:12]
	}
	if modified {
		revision += "-dirty"
	}
	return fmt.Sprintf("(%s, git:%s, at %s)", info.GoVersion, revision, at)
}
