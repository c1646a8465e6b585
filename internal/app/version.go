// Package app wires configuration, the variants and the output layers into
// the fibtrio modes: calculate, compare, export, server and REPL.
package app

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
)

// Build-time variables set via -ldflags, for example:
//
//	go build -ldflags="-X github.com/agbru/fibtrio/internal/app.Version=v1.2.3 -X github.com/agbru/fibtrio/internal/app.Commit=abc123"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// HasVersionFlag reports whether args contain a version flag, in any
// position (e.g. "fibtrio -server --version").
func HasVersionFlag(args []string) bool {
	return hasFlag(args, "version", "V")
}

// WantsJSON reports whether args request JSON output.
func WantsJSON(args []string) bool {
	return hasFlag(args, "json")
}

// hasFlag matches -name, --name and the boolean forms -name=true/1.
func hasFlag(args []string, names ...string) bool {
	for _, arg := range args {
		for _, name := range names {
			switch arg {
			case "-" + name, "--" + name, "-" + name + "=true", "--" + name + "=true", "-" + name + "=1":
				return true
			}
		}
	}
	return false
}

// PrintVersion writes the build information to out.
func PrintVersion(out io.Writer) {
	fmt.Fprintf(out, "fibtrio %s\n", Version)
	fmt.Fprintf(out, "  Commit:     %s\n", Commit)
	fmt.Fprintf(out, "  Built:      %s\n", BuildDate)
	fmt.Fprintf(out, "  Go version: %s\n", runtime.Version())
	fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// PrintVersionJSON writes GetVersionInfo as one JSON object.
func PrintVersionJSON(out io.Writer) error {
	return json.NewEncoder(out).Encode(GetVersionInfo())
}

// VersionData is the build information in machine readable form.
type VersionData struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetVersionInfo returns the current build information.
func GetVersionInfo() VersionData {
	return VersionData{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}
