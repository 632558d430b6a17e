// File: internal/webdriver/session.go
package webdriver

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/drivermatch/api/schemas"
)

// Session is a browser session together with the driver process serving it.
type Session struct {
	id             string
	driverVersion  string
	browserVersion string
	client         *Client
	service        *Service
	logger         *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

var _ schemas.DriverSession = (*Session)(nil)

func (s *Session) ID() string            { return s.id }
func (s *Session) DriverVersion() string { return s.driverVersion }

// BrowserVersion is the browser version the driver reported when the session opened.
func (s *Session) BrowserVersion() string { return s.browserVersion }

// Navigate loads url in the session.
func (s *Session) Navigate(ctx context.Context, url string) error {
	return s.client.Navigate(ctx, s.id, url)
}

// Title returns the title of the current page.
func (s *Session) Title(ctx context.Context) (string, error) {
	return s.client.Title(ctx, s.id)
}

// Close quits the browser and stops the driver process. The process is
// stopped even when ending the session fails.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		deleteErr := s.client.DeleteSession(ctx, s.id)
		s.client.Close()
		stopErr := s.service.Stop()
		s.closeErr = errors.Join(deleteErr, stopErr)
		if s.closeErr != nil {
			s.logger.Debug("Session closed with errors.", zap.Error(s.closeErr))
		} else {
			s.logger.Debug("Session closed.")
		}
	})
	return s.closeErr
}
