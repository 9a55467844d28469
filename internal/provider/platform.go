package provider

import (
	"runtime"
)

// autoPlatform selects the running platform in configuration.
const autoPlatform = "auto"

// Platform describes the OS/architecture parameters sent to the gated mirror.
// Empty fields are omitted from the query.
type Platform struct {
	OS   string // Operating system (android, linux, windows, darwin)
	Arch string // Architecture as named by the mirror (x86_64, aarch64)
}

// Detect returns the current platform (OS and architecture).
func Detect() Platform {
	return Platform{
		OS:   runtime.GOOS,
		Arch: archName(runtime.GOARCH),
	}
}

// ResolvePlatform turns configured values into a Platform.
// "auto" selects the detected value for that field.
func ResolvePlatform(os, arch string) Platform {
	detected := Detect()
	p := Platform{OS: os, Arch: arch}
	if p.OS == autoPlatform {
		p.OS = detected.OS
	}
	if p.Arch == autoPlatform {
		p.Arch = detected.Arch
	}
	return p
}

// archName returns the architecture name used by release listings.
func archName(goarch string) string {
	switch goarch {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "aarch64"
	case "386":
		return "i386"
	default:
		return goarch
	}
}
