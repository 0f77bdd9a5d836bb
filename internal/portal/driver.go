package portal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
	"github.com/ysmood/gson"
	"go.uber.org/zap"
)

// ErrSessionClosed is returned when the browser or page is gone. Any
// operation hitting it is fatal for the run.
var ErrSessionClosed = errors.New("browser session closed")

// AuthError reports a rejected login, with whatever error text the page showed.
type AuthError struct {
	Text string
}

func (e *AuthError) Error() string {
	if e.Text == "" {
		return "login failed"
	}
	return "login failed: " + e.Text
}

// Config holds browser configuration.
type Config struct {
	DebuggerURL         string `yaml:"debugger_url"`
	Headless            bool   `yaml:"headless"`
	ViewportWidth       int    `yaml:"viewport_width"`
	ViewportHeight      int    `yaml:"viewport_height"`
	NavigationTimeoutMs int    `yaml:"navigation_timeout_ms"`
	ElementTimeoutMs    int    `yaml:"element_timeout_ms"`
	SettleMs            int    `yaml:"settle_ms"`
	SlowMotionMs        int    `yaml:"slow_motion_ms"`
	ArtifactsDir        string `yaml:"artifacts_dir"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Headless:            false,
		ViewportWidth:       1280,
		ViewportHeight:      900,
		NavigationTimeoutMs: 30000,
		ElementTimeoutMs:    15000,
		SettleMs:            1000,
		SlowMotionMs:        500,
		ArtifactsDir:        "screenshots",
	}
}

// NavigationTimeout returns the navigation timeout.
func (c Config) NavigationTimeout() time.Duration {
	if c.NavigationTimeoutMs == 0 {
		return 30 * time.Second
	}
	return time.Duration(c.NavigationTimeoutMs) * time.Millisecond
}

// ElementTimeout returns the per-wait element timeout.
func (c Config) ElementTimeout() time.Duration {
	if c.ElementTimeoutMs == 0 {
		return 15 * time.Second
	}
	return time.Duration(c.ElementTimeoutMs) * time.Millisecond
}

// Settle returns the fixed post-idle delay. The portal's script framework
// keeps mutating the DOM for a beat after the network goes quiet.
func (c Config) Settle() time.Duration {
	if c.SettleMs == 0 {
		return time.Second
	}
	return time.Duration(c.SettleMs) * time.Millisecond
}

// Driver owns one Chrome instance and the single attendance page. All
// operations are sequential; the portal's postback lifecycle cannot tolerate
// concurrent mutation.
type Driver struct {
	cfg     Config
	log     *zap.Logger
	browser *rod.Browser
	page    *rod.Page
	runID   string
}

// NewDriver launches (or connects to) Chrome and opens a blank page.
func NewDriver(ctx context.Context, cfg Config, log *zap.Logger) (*Driver, error) {
	controlURL := cfg.DebuggerURL
	if controlURL == "" {
		url, err := launcher.New().Headless(cfg.Headless).Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = url
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if cfg.SlowMotionMs > 0 {
		browser = browser.SlowMotion(time.Duration(cfg.SlowMotionMs) * time.Millisecond)
	}
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             cfg.ViewportWidth,
		Height:            cfg.ViewportHeight,
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		log.Warn("failed to set viewport", zap.Error(err))
	}

	return &Driver{
		cfg:     cfg,
		log:     log,
		browser: browser,
		page:    page,
		runID:   time.Now().Format("20060102_150405") + "_" + uuid.NewString()[:8],
	}, nil
}

// Close shuts the browser down.
func (d *Driver) Close() {
	if d.page != nil {
		_ = d.page.Close()
	}
	if d.browser != nil {
		_ = d.browser.Close()
	}
}

// Navigate loads a URL and waits for the page to settle.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := d.page.Context(ctx).Timeout(d.cfg.NavigationTimeout()).Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return d.WaitStable(ctx)
}

// WaitStable blocks until the page looks idle, then applies the fixed settle
// delay. Timeouts here are tolerated: ASP.NET partial postbacks routinely
// keep a connection dangling.
func (d *Driver) WaitStable(ctx context.Context) error {
	if err := d.page.Context(ctx).Timeout(d.cfg.NavigationTimeout()).WaitStable(300 * time.Millisecond); err != nil {
		d.log.Debug("wait-stable timed out, continuing", zap.Error(err))
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d.cfg.Settle()):
	}
	return nil
}

// WaitVisible waits for a selector with a bounded retry count.
func (d *Driver) WaitVisible(ctx context.Context, selector string, retries int) error {
	if retries < 1 {
		retries = 1
	}
	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		el, err := d.page.Context(ctx).Timeout(d.cfg.ElementTimeout()).Element(selector)
		if err == nil {
			if err = el.WaitVisible(); err == nil {
				return nil
			}
		}
		lastErr = err
		d.log.Warn("selector not visible",
			zap.String("selector", selector),
			zap.Int("attempt", attempt),
			zap.Int("retries", retries))
		if attempt < retries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(2 * time.Second):
			}
		}
	}
	return fmt.Errorf("element %s not visible: %w", selector, lastErr)
}

// Fill replaces the content of an input.
func (d *Driver) Fill(ctx context.Context, selector, text string) error {
	el, err := d.page.Context(ctx).Timeout(d.cfg.ElementTimeout()).Element(selector)
	if err != nil {
		return fmt.Errorf("element %s: %w", selector, err)
	}
	_ = el.SelectAllText()
	return el.Input(text)
}

// Click clicks the first element matching the selector.
func (d *Driver) Click(ctx context.Context, selector string) error {
	el, err := d.page.Context(ctx).Timeout(d.cfg.ElementTimeout()).Element(selector)
	if err != nil {
		return fmt.Errorf("element %s: %w", selector, err)
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// ClickIfPresent clicks the selector when it exists; reports whether it did.
func (d *Driver) ClickIfPresent(ctx context.Context, selector string) (bool, error) {
	has, el, err := d.page.Context(ctx).Has(selector)
	if err != nil || !has {
		return false, err
	}
	return true, el.Click(proto.InputMouseButtonLeft, 1)
}

// SelectValue picks a <select> option by its value attribute, dispatching the
// real change events so the portal's postback handler fires.
func (d *Driver) SelectValue(ctx context.Context, selector, value string) error {
	el, err := d.page.Context(ctx).Timeout(d.cfg.ElementTimeout()).Element(selector)
	if err != nil {
		return fmt.Errorf("element %s: %w", selector, err)
	}
	return el.Select([]string{fmt.Sprintf(`[value=%q]`, value)}, true, rod.SelectorTypeCSSSector)
}

// Eval runs a JS function in the page and returns its JSON result.
func (d *Driver) Eval(ctx context.Context, js string, args ...interface{}) (json.RawMessage, error) {
	res, err := d.page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:           js,
		JSArgs:       args,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	if res == nil || res.Value.Nil() {
		return json.RawMessage("null"), nil
	}
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal eval result: %w", err)
	}
	return raw, nil
}

// EvalJSON evaluates js and returns the result as gson for callers that
// want its accessors instead of decoding into a struct.
func (d *Driver) EvalJSON(ctx context.Context, js string, args ...interface{}) (gson.JSON, error) {
	res, err := d.page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:           js,
		JSArgs:       args,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil {
		return gson.New(nil), fmt.Errorf("evaluate: %w", err)
	}
	if res == nil {
		return gson.New(nil), nil
	}
	return res.Value, nil
}

// Type types text into the focused element key by key. The autocomplete
// widget needs real key events to trigger its AJAX search.
func (d *Driver) Type(ctx context.Context, selector, text string) error {
	el, err := d.page.Context(ctx).Timeout(d.cfg.ElementTimeout()).Element(selector)
	if err != nil {
		return fmt.Errorf("element %s: %w", selector, err)
	}
	if err := el.Focus(); err != nil {
		return err
	}
	for _, r := range text {
		if err := el.Input(string(r)); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(80 * time.Millisecond):
		}
	}
	return nil
}

// Page exposes the underlying rod page for element-level protocols that the
// selector helpers cannot express.
func (d *Driver) Page() *rod.Page { return d.page }

// CurrentURL returns the page's current URL.
func (d *Driver) CurrentURL() string {
	info, err := d.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// HTML returns the page's current markup.
func (d *Driver) HTML(ctx context.Context) (string, error) {
	return d.page.Context(ctx).HTML()
}

// SessionClosed reports whether the browser or page has gone away.
func (d *Driver) SessionClosed() bool {
	if d.browser == nil || d.page == nil {
		return true
	}
	if _, err := d.browser.Version(); err != nil {
		return true
	}
	_, err := d.page.Info()
	return err != nil
}

// Frame returns the rod page of the first iframe inside the selector, used
// for the portal's confirmation dialogs.
func (d *Driver) Frame(ctx context.Context, panelSelector string) (*rod.Page, error) {
	panel, err := d.page.Context(ctx).Timeout(d.cfg.ElementTimeout()).Element(panelSelector)
	if err != nil {
		return nil, err
	}
	iframe, err := panel.Element("iframe")
	if err != nil {
		return nil, err
	}
	return iframe.Frame()
}

// HandleFileDialog arms interception of the next native file chooser and
// returns the function that resolves it with concrete paths.
func (d *Driver) HandleFileDialog() (func([]string) error, error) {
	return d.page.HandleFileDialog()
}

// Screenshot writes a timestamped full-page capture under the per-run
// artifacts directory. Failures are logged, never propagated: diagnostics
// must not break the run.
func (d *Driver) Screenshot(label string) {
	dir := filepath.Join(d.cfg.ArtifactsDir, d.runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		d.log.Debug("screenshot dir", zap.Error(err))
		return
	}
	data, err := d.page.Screenshot(true, nil)
	if err != nil {
		d.log.Debug("screenshot failed", zap.String("label", label), zap.Error(err))
		return
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", time.Now().Format("150405"), label))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		d.log.Debug("screenshot write failed", zap.Error(err))
		return
	}
	d.log.Debug("screenshot saved", zap.String("path", path))
}

// DumpHTML writes the current page markup next to the screenshots, for
// selector debugging when the grid comes back empty.
func (d *Driver) DumpHTML(ctx context.Context, label string) {
	html, err := d.HTML(ctx)
	if err != nil {
		d.log.Debug("html dump failed", zap.Error(err))
		return
	}
	dir := filepath.Join(d.cfg.ArtifactsDir, d.runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.html", time.Now().Format("150405"), label))
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		d.log.Debug("html dump write failed", zap.Error(err))
	}
}
