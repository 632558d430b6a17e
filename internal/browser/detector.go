// internal/browser/detector.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/drivermatch/internal/config"
)

const detectTimeout = 60 * time.Second

// ErrUnknownProduct is returned when the DevTools product string carries no version.
var ErrUnknownProduct = errors.New("browser reported an unrecognized product string")

// Detector asks the installed browser for its version over the DevTools
// protocol, without involving any driver binary.
type Detector struct {
	opts   []chromedp.ExecAllocatorOption
	logger *zap.Logger
}

// NewDetector creates a Detector for the configured browser.
func NewDetector(cfg config.Interface, logger *zap.Logger) *Detector {
	return &Detector{
		opts:   execOptions(cfg.Browser()),
		logger: logger.Named("browser"),
	}
}

// InstalledVersion launches the browser, reads its version and shuts it down.
func (d *Detector) InstalledVersion(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, detectTimeout)
	defer cancel()

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, d.opts...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var product string
	err := chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, p, _, _, _, err := cdpbrowser.GetVersion().Do(ctx)
		product = p
		return err
	}))
	if err != nil {
		return "", fmt.Errorf("failed to query browser version: %w", err)
	}

	v, err := ParseProduct(product)
	if err != nil {
		return "", err
	}
	d.logger.Debug("Detected installed browser.", zap.String("product", product), zap.String("browser_version", v))
	return v, nil
}

// ParseProduct extracts the version from a DevTools product string such as
// "HeadlessChrome/94.0.4606.61".
func ParseProduct(product string) (string, error) {
	_, v, found := strings.Cut(strings.TrimSpace(product), "/")
	v = strings.TrimSpace(v)
	if !found || v == "" {
		return "", fmt.Errorf("%w: %q", ErrUnknownProduct, product)
	}
	return v, nil
}

// execOptions translates browser configuration into chromedp allocator options.
func execOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if !cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.Binary != "" {
		opts = append(opts, chromedp.ExecPath(cfg.Binary))
	}

	for _, arg := range cfg.Args {
		key, value, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if key == "" {
			continue
		}
		if !hasValue {
			opts = append(opts, chromedp.Flag(key, true))
			continue
		}
		opts = append(opts, chromedp.Flag(key, value))
	}
	return opts
}
