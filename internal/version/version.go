// Package version holds the string rules shared by the catalog, the resolver
// and the driver probe. Versions are dot separated numeric strings such as
// "94.0.4606.61" and are compared as strings, never component-wise.
package version

import (
	"regexp"
	"runtime"
	"strings"
)

// diagnosticPattern matches the browser version chromedriver reports when it
// refuses to create a session.
var diagnosticPattern = regexp.MustCompile(`Current browser version is (.*?) with binary path`)

var versionPattern = regexp.MustCompile(`^\d+(\.\d+)*$`)

// Valid reports whether v is a dot separated numeric version.
func Valid(v string) bool {
	return versionPattern.MatchString(v)
}

// MajorPrefix returns the compatibility key of a version: everything before the
// first dot. "92.0.4515.43" yields "92".
func MajorPrefix(v string) string {
	v = strings.TrimSpace(v)
	if i := strings.IndexByte(v, '.'); i >= 0 {
		return v[:i]
	}
	return v
}

// Compatible reports whether a driver version serves the given browser version.
// The browser side may be a full version or just its major prefix.
func Compatible(driver, browser string) bool {
	major := MajorPrefix(browser)
	if major == "" {
		return false
	}
	return driver == major || strings.HasPrefix(driver, major+".")
}

// ParseDiagnostic extracts the installed browser version from a driver error message.
func ParseDiagnostic(msg string) (string, bool) {
	m := diagnosticPattern.FindStringSubmatch(msg)
	if m == nil {
		return "", false
	}
	detected := strings.TrimSpace(m[1])
	if detected == "" {
		return "", false
	}
	return detected, true
}

// ExecutableSuffix is the file suffix driver binaries carry on this platform.
func ExecutableSuffix() string {
	return executableSuffix(runtime.GOOS)
}

func executableSuffix(goos string) string {
	if goos == "windows" {
		return ".exe"
	}
	return ""
}
