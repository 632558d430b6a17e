package schemas

import (
	"context"
)

// -- Probe Interfaces --

// DriverSession is a live automation session opened through a specific driver
// binary. Every session returned by a Prober must be closed by the caller; Close
// also terminates the driver process that backs it.
type DriverSession interface {
	// ID returns the session identifier assigned by the driver.
	ID() string
	// DriverVersion returns the catalog version of the driver that opened the session.
	DriverVersion() string
	// Close ends the session and releases the driver process. It is safe to call more than once.
	Close(ctx context.Context) error
}

// Prober attempts to open a session with the driver tied to a catalog version.
// The attempt is the compatibility oracle: a mismatched driver fails with an
// *IncompatibleDriverError that carries the browser version it observed.
type Prober interface {
	Probe(ctx context.Context, driverVersion string) (DriverSession, error)
}

// ProbeFunc adapts a plain function to the Prober interface.
type ProbeFunc func(ctx context.Context, driverVersion string) (DriverSession, error)

// Probe implements Prober.
func (f ProbeFunc) Probe(ctx context.Context, driverVersion string) (DriverSession, error) {
	return f(ctx, driverVersion)
}

// -- Cache Interface --

// VersionCache persists the last driver version that launched successfully.
// It is a search-order hint, never a source of truth.
type VersionCache interface {
	// Read returns the stored version. ok is false when nothing has been recorded yet.
	Read() (version string, ok bool, err error)
	// Write replaces the stored version.
	Write(version string) error
}
