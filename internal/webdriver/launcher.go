// File: internal/webdriver/launcher.go
package webdriver

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/xkilldash9x/drivermatch/api/schemas"
	"github.com/xkilldash9x/drivermatch/internal/config"
	"github.com/xkilldash9x/drivermatch/internal/observability"
	"github.com/xkilldash9x/drivermatch/internal/version"
)

// Launcher opens sessions through the driver binaries of a driver directory.
// It is the production Prober.
type Launcher struct {
	dir     string
	suffix  string
	browser config.BrowserConfig
	probe   config.ProbeConfig
	logger  *zap.Logger
}

var _ schemas.Prober = (*Launcher)(nil)

// NewLauncher creates a Launcher from configuration.
func NewLauncher(cfg config.Interface, logger *zap.Logger) *Launcher {
	return &Launcher{
		dir:     cfg.Driver().Dir,
		suffix:  cfg.Driver().Suffix,
		browser: cfg.Browser(),
		probe:   cfg.Probe(),
		logger:  logger.Named("webdriver"),
	}
}

// DriverPath returns the binary that serves driverVersion.
func (l *Launcher) DriverPath(driverVersion string) string {
	return filepath.Join(l.dir, driverVersion+l.suffix)
}

// Probe implements schemas.Prober.
func (l *Launcher) Probe(ctx context.Context, driverVersion string) (schemas.DriverSession, error) {
	s, err := l.Launch(ctx, driverVersion)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Launch starts the driver for driverVersion and opens a browser session with
// it. A driver that refuses the installed browser yields an
// *schemas.IncompatibleDriverError; the driver process never outlives a failure.
func (l *Launcher) Launch(ctx context.Context, driverVersion string) (*Session, error) {
	logger := observability.ForProbe(l.logger, driverVersion)
	path := l.DriverPath(driverVersion)

	service, err := StartService(ctx, path, ServiceOptions{
		StartupTimeout: l.probe.StartupTimeout,
		ReadyRetries:   l.probe.ReadyRetries,
		ReadyWaitMin:   l.probe.ReadyWaitMin,
		ReadyWaitMax:   l.probe.ReadyWaitMax,
	}, logger)
	if err != nil {
		return nil, err
	}

	client := NewClient(service.BaseURL(), l.probe.RequestTimeout, logger)
	id, caps, err := client.NewSession(ctx, l.capabilities())
	if err != nil {
		client.Close()
		service.Stop()
		return nil, l.translate(driverVersion, err)
	}

	browserVersion, _ := caps["browserVersion"].(string)
	logger.Info("Browser session opened.", zap.String("session_id", id), zap.String("browser_version", browserVersion))
	return &Session{
		id:             id,
		driverVersion:  driverVersion,
		browserVersion: browserVersion,
		client:         client,
		service:        service,
		logger:         logger,
	}, nil
}

// translate turns a refused session into the typed incompatibility error.
func (l *Launcher) translate(driverVersion string, err error) error {
	var wireErr *WireError
	if !errors.As(err, &wireErr) || wireErr.Code != codeSessionNotCreated {
		return fmt.Errorf("driver %s failed to open a session: %w", driverVersion, err)
	}
	detected, _ := version.ParseDiagnostic(wireErr.Message)
	return &schemas.IncompatibleDriverError{
		DriverVersion:   driverVersion,
		DetectedVersion: detected,
		Message:         wireErr.Message,
	}
}

func (l *Launcher) capabilities() map[string]interface{} {
	args := make([]string, 0, len(l.browser.Args)+1)
	if l.browser.Headless {
		args = append(args, "--headless=new")
	}
	args = append(args, l.browser.Args...)

	chromeOptions := map[string]interface{}{"args": args}
	if l.browser.Binary != "" {
		chromeOptions["binary"] = l.browser.Binary
	}
	return map[string]interface{}{
		"alwaysMatch": map[string]interface{}{
			"browserName":        "chrome",
			"goog:chromeOptions": chromeOptions,
		},
	}
}
