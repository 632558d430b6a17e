// File: internal/webdriver/client.go
package webdriver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/drivermatch/internal/network"
)

// W3C WebDriver error code returned when the driver cannot start the browser.
const codeSessionNotCreated = "session not created"

// WireError is an error payload returned by a WebDriver endpoint.
type WireError struct {
	Status  int
	Code    string
	Message string
}

func (e *WireError) Error() string {
	return fmt.Sprintf("webdriver %d %s: %s", e.Status, e.Code, e.Message)
}

// envelope is the {"value": ...} wrapper every W3C response uses.
type envelope[T any] struct {
	Value T `json:"value"`
}

type errorValue struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	Stacktrace string `json:"stacktrace"`
}

type newSessionValue struct {
	errorValue
	SessionID    string                 `json:"sessionId"`
	Capabilities map[string]interface{} `json:"capabilities"`
}

// Client speaks the W3C WebDriver protocol to one driver process.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewClient creates a client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	r := resty.NewWithClient(network.NewClient(nil, timeout)).
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json; charset=utf-8").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	return &Client{http: r, logger: logger}
}

// NewSession asks the driver to start a browser with the given capabilities.
// It returns the session id and the capabilities the driver agreed to.
func (c *Client) NewSession(ctx context.Context, capabilities map[string]interface{}) (string, map[string]interface{}, error) {
	var out envelope[newSessionValue]
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{"capabilities": capabilities}).
		SetResult(&out).
		SetError(&out).
		Post("/session")
	if err != nil {
		return "", nil, fmt.Errorf("new session request failed: %w", err)
	}
	if wireErr := asWireError(resp, out.Value.errorValue); wireErr != nil {
		return "", nil, wireErr
	}
	if out.Value.SessionID == "" {
		return "", nil, fmt.Errorf("driver returned no session id (status %d)", resp.StatusCode())
	}
	return out.Value.SessionID, out.Value.Capabilities, nil
}

// Navigate loads url in the session's current top-level browsing context.
func (c *Client) Navigate(ctx context.Context, sessionID, url string) error {
	var out envelope[errorValue]
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("sessionId", sessionID).
		SetBody(map[string]string{"url": url}).
		SetError(&out).
		Post("/session/{sessionId}/url")
	if err != nil {
		return fmt.Errorf("navigate request failed: %w", err)
	}
	if wireErr := asWireError(resp, out.Value); wireErr != nil {
		return wireErr
	}
	return nil
}

// Title returns the document title of the current page.
func (c *Client) Title(ctx context.Context, sessionID string) (string, error) {
	var title envelope[string]
	var failure envelope[errorValue]
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("sessionId", sessionID).
		SetResult(&title).
		SetError(&failure).
		Get("/session/{sessionId}/title")
	if err != nil {
		return "", fmt.Errorf("title request failed: %w", err)
	}
	if wireErr := asWireError(resp, failure.Value); wireErr != nil {
		return "", wireErr
	}
	return title.Value, nil
}

// DeleteSession ends the session and closes the browser.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	var out envelope[errorValue]
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("sessionId", sessionID).
		SetError(&out).
		Delete("/session/{sessionId}")
	if err != nil {
		return fmt.Errorf("delete session request failed: %w", err)
	}
	if wireErr := asWireError(resp, out.Value); wireErr != nil {
		return wireErr
	}
	return nil
}

// Close releases idle connections held by the client.
func (c *Client) Close() {
	c.http.GetClient().CloseIdleConnections()
}

func asWireError(resp *resty.Response, v errorValue) *WireError {
	if !resp.IsError() && v.Error == "" {
		return nil
	}
	status := resp.StatusCode()
	if status == 0 {
		status = http.StatusInternalServerError
	}
	msg := v.Message
	if msg == "" {
		msg = resp.String()
	}
	return &WireError{Status: status, Code: v.Error, Message: msg}
}
