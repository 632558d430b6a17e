package schemas_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/drivermatch/api/schemas"
)

type stubSession struct{ version string }

func (s stubSession) ID() string { return "stub" }

func (s stubSession) DriverVersion() string { return s.version }

func (s stubSession) Close(ctx context.Context) error { return nil }

func TestProbeFunc(t *testing.T) {
	var seen string
	var p schemas.Prober = schemas.ProbeFunc(func(ctx context.Context, v string) (schemas.DriverSession, error) {
		seen = v
		return stubSession{version: v}, nil
	})

	sess, err := p.Probe(context.Background(), "94.0.4606.61")
	require.NoError(t, err)
	assert.Equal(t, "94.0.4606.61", seen)
	assert.Equal(t, "94.0.4606.61", sess.DriverVersion())
}

func TestIncompatibleDriverError(t *testing.T) {
	t.Parallel()

	t.Run("with detected version", func(t *testing.T) {
		err := &schemas.IncompatibleDriverError{
			DriverVersion:   "94.0.4606.61",
			DetectedVersion: "92.0.4515.99",
			Message:         "session not created",
		}
		assert.Equal(t, "driver 94.0.4606.61 is incompatible with browser 92.0.4515.99: session not created", err.Error())
	})

	t.Run("without detected version", func(t *testing.T) {
		err := &schemas.IncompatibleDriverError{DriverVersion: "94.0.4606.61", Message: "boom"}
		assert.Contains(t, err.Error(), "incompatible with the installed browser")
	})

	t.Run("survives wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("probe failed: %w", &schemas.IncompatibleDriverError{DetectedVersion: "92.0.4515.99"})
		var target *schemas.IncompatibleDriverError
		require.True(t, errors.As(wrapped, &target))
		assert.Equal(t, "92.0.4515.99", target.DetectedVersion)
	})
}
