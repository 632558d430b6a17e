// File: internal/webdriver/service.go
package webdriver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapio"

	"github.com/xkilldash9x/drivermatch/internal/network"
	"github.com/xkilldash9x/drivermatch/internal/observability"
)

// Overridable in tests.
var (
	execCommandContext = exec.CommandContext
	freePort           = pickFreePort
)

// ServiceOptions controls how a driver process is started and awaited.
type ServiceOptions struct {
	StartupTimeout time.Duration
	ReadyRetries   int
	ReadyWaitMin   time.Duration
	ReadyWaitMax   time.Duration
}

// Service is a running driver process listening on a loopback port.
type Service struct {
	path    string
	baseURL string
	cmd     *exec.Cmd
	output  *zapio.Writer
	logger  *zap.Logger

	stopOnce sync.Once
	stopErr  error
}

// StartService launches the driver binary at path and waits until its
// /status endpoint reports ready. On any failure the process is stopped.
func StartService(ctx context.Context, path string, opts ServiceOptions, logger *zap.Logger) (*Service, error) {
	port, err := freePort()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate a port for %s: %w", path, err)
	}

	output := observability.DriverOutput(logger)
	cmd := execCommandContext(ctx, path, "--port="+strconv.Itoa(port))
	cmd.Stdout = output
	cmd.Stderr = output

	s := &Service{
		path:    path,
		baseURL: fmt.Sprintf("http://127.0.0.1:%d", port),
		cmd:     cmd,
		output:  output,
		logger:  logger,
	}

	if err := cmd.Start(); err != nil {
		output.Close()
		return nil, fmt.Errorf("failed to start driver %s: %w", path, err)
	}
	logger.Debug("Driver process started.", zap.Int("pid", cmd.Process.Pid), zap.Int("port", port))

	if err := s.waitReady(ctx, opts); err != nil {
		s.Stop()
		return nil, err
	}
	return s, nil
}

// BaseURL is the root of the driver's HTTP API.
func (s *Service) BaseURL() string { return s.baseURL }

// Stop kills the driver process and reaps it. It is safe to call more than once.
func (s *Service) Stop() error {
	s.stopOnce.Do(func() {
		if s.cmd.Process != nil {
			if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				s.stopErr = fmt.Errorf("failed to kill driver process: %w", err)
			}
		}
		// Wait reports the kill signal as an error; only the reaping matters here.
		_ = s.cmd.Wait()
		s.output.Close()
		s.logger.Debug("Driver process stopped.")
	})
	return s.stopErr
}

type statusResponse struct {
	Value struct {
		Ready   bool   `json:"ready"`
		Message string `json:"message"`
	} `json:"value"`
}

var errNotReady = errors.New("driver not ready")

func (s *Service) waitReady(ctx context.Context, opts ServiceOptions) error {
	readyCtx, cancel := context.WithTimeout(ctx, opts.StartupTimeout)
	defer cancel()

	client := retryablehttp.NewClient()
	client.RetryMax = opts.ReadyRetries
	client.RetryWaitMin = opts.ReadyWaitMin
	client.RetryWaitMax = opts.ReadyWaitMax
	client.HTTPClient = network.NewClient(nil, opts.ReadyWaitMax+time.Second)
	client.Logger = NewRetryLogger(s.logger)
	client.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		// Connection refused while the driver is still binding its port.
		if err != nil {
			return true, nil
		}
		return resp.StatusCode != http.StatusOK, nil
	}
	defer client.HTTPClient.CloseIdleConnections()

	req, err := retryablehttp.NewRequestWithContext(readyCtx, http.MethodGet, s.baseURL+"/status", nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("driver %s did not become ready: %w", s.path, err)
	}
	defer resp.Body.Close()

	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("driver %s returned an unreadable status: %w", s.path, err)
	}
	if !status.Value.Ready {
		return fmt.Errorf("driver %s: %w: %s", s.path, errNotReady, status.Value.Message)
	}
	return nil
}

func pickFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
