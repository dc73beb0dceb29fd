package playkit

import "fmt"

const (
	versionMajor = 0
	versionMinor = 3
	versionPatch = 0
)

func Version() string {
	return fmt.Sprintf("%d.%d.%d", versionMajor, versionMinor, versionPatch)
}

func VersionString() string {
	return fmt.Sprintf("playkit-go %s", Version())
}
