package schemas

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCatalog means no driver binaries were found, so there is nothing to probe.
	ErrEmptyCatalog = errors.New("no driver candidates available")
	// ErrNoCompatibleDriver means the installed browser has no matching driver in the catalog.
	ErrNoCompatibleDriver = errors.New("no compatible driver available")
	// ErrUnparseableDiagnostic marks a failed probe whose message carried no browser version.
	ErrUnparseableDiagnostic = errors.New("probe diagnostic did not report a browser version")
)

// IncompatibleDriverError is returned by a Prober when the driver refused to
// start a session for the installed browser. DetectedVersion holds the browser
// version reported by the driver, or is empty when the driver did not say.
type IncompatibleDriverError struct {
	DriverVersion   string
	DetectedVersion string
	Message         string
}

func (e *IncompatibleDriverError) Error() string {
	if e.DetectedVersion != "" {
		return fmt.Sprintf("driver %s is incompatible with browser %s: %s", e.DriverVersion, e.DetectedVersion, e.Message)
	}
	return fmt.Sprintf("driver %s is incompatible with the installed browser: %s", e.DriverVersion, e.Message)
}
