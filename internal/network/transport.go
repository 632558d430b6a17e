// File: internal/network/transport.go
package network

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Defaults for talking to a driver process on the loopback interface.
const (
	DefaultDialTimeout           = 2 * time.Second
	DefaultKeepAliveInterval     = 15 * time.Second
	DefaultResponseHeaderTimeout = 0 // Session creation can block for as long as the browser takes to start.
	DefaultMaxIdleConnsPerHost   = 4
	DefaultIdleConnTimeout       = 30 * time.Second
)

// TransportConfig holds the settings for the HTTP transport used against a
// local WebDriver endpoint.
type TransportConfig struct {
	DialTimeout           time.Duration
	KeepAlive             time.Duration
	ResponseHeaderTimeout time.Duration
	MaxIdleConnsPerHost   int
	IdleConnTimeout       time.Duration
}

// NewDefaultTransportConfig returns settings tuned for a single local driver.
func NewDefaultTransportConfig() *TransportConfig {
	return &TransportConfig{
		DialTimeout:           DefaultDialTimeout,
		KeepAlive:             DefaultKeepAliveInterval,
		ResponseHeaderTimeout: DefaultResponseHeaderTimeout,
		MaxIdleConnsPerHost:   DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:       DefaultIdleConnTimeout,
	}
}

// NewHTTPTransport creates a plain HTTP/1.1 transport. Proxy settings from the
// environment are ignored: driver traffic never leaves the machine.
func NewHTTPTransport(config *TransportConfig) *http.Transport {
	if config == nil {
		config = NewDefaultTransportConfig()
	}

	dialer := &net.Dialer{
		Timeout:   config.DialTimeout,
		KeepAlive: config.KeepAlive,
	}

	return &http.Transport{
		Proxy: nil,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, fmt.Errorf("tcp dial failed: %w", err)
			}
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				// Small request/response pairs; Nagle only adds latency.
				_ = tcpConn.SetNoDelay(true)
			}
			return conn, nil
		},
		MaxIdleConns:          config.MaxIdleConnsPerHost,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
		ResponseHeaderTimeout: config.ResponseHeaderTimeout,
		DisableCompression:    true,
		ForceAttemptHTTP2:     false,
	}
}

// NewClient creates an http.Client over NewHTTPTransport with an overall
// request timeout. Redirects are not followed; no WebDriver endpoint issues them.
func NewClient(config *TransportConfig, timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: NewHTTPTransport(config),
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
