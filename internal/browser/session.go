// Package browser provides the single long-lived browser session used by
// every navigation attempt in a critiq session, plus the page tools the
// navigation agent drives. It wraps chromedp; the rest of the system only
// sees structured observations and failures.
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config contains browser session settings.
type Config struct {
	// Headless controls whether the browser runs without a visible window.
	Headless bool
	// NavTimeout bounds each page action (0 means 30s).
	NavTimeout time.Duration
	// UserAgent overrides the default user agent.
	UserAgent string
}

// PageInfo describes the current page after an action.
type PageInfo struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// LoadMetrics aggregates page-load observations across a session.
type LoadMetrics struct {
	// PageLoads is the number of completed navigations.
	PageLoads int
	// TotalLoadTime is the summed wall-clock time of those navigations.
	TotalLoadTime time.Duration
	// Responses is the number of network responses observed.
	Responses int
	// ErrorResponses is the number of responses with status >= 400.
	ErrorResponses int
}

// AverageLoadTime returns the mean navigation time, or zero without loads.
func (m LoadMetrics) AverageLoadTime() time.Duration {
	if m.PageLoads == 0 {
		return 0
	}
	return m.TotalLoadTime / time.Duration(m.PageLoads)
}

// CleanupStatus reports the outcome of closing the session. Cleanup failures
// are non-fatal but observable.
type CleanupStatus struct {
	// Err holds the close failure, if any.
	Err error
}

// Clean returns true if the session shut down without error.
func (s CleanupStatus) Clean() bool {
	return s.Err == nil
}

// Session owns one browser page/context for the lifetime of a critiq
// session. It is opened once at session start and closed once at session
// end; it is never accessed concurrently.
type Session struct {
	ctx         context.Context
	allocCancel context.CancelFunc
	ctxCancel   context.CancelFunc
	navTimeout  time.Duration

	mu      sync.Mutex
	metrics LoadMetrics
	closed  bool
}

// NewSession launches a browser and returns the session handle. The caller
// must Close the session on every exit path.
func NewSession(cfg Config) (*Session, error) {
	navTimeout := cfg.NavTimeout
	if navTimeout == 0 {
		navTimeout = 30 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.WindowSize(1280, 720),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, ctxCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:         ctx,
		allocCancel: allocCancel,
		ctxCancel:   ctxCancel,
		navTimeout:  navTimeout,
	}

	chromedp.ListenTarget(ctx, func(ev interface{}) {
		if resp, ok := ev.(*network.EventResponseReceived); ok {
			s.recordResponse(resp.Response.Status)
		}
	})

	// Launch the browser eagerly so startup failures surface here, before
	// any attempt begins.
	if err := chromedp.Run(ctx, network.Enable()); err != nil {
		ctxCancel()
		allocCancel()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	return s, nil
}

// actionCtx returns a per-action timeout context derived from the session.
func (s *Session) actionCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(s.ctx, s.navTimeout)
}

func (s *Session) recordResponse(status int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.Responses++
	if status >= 400 {
		s.metrics.ErrorResponses++
	}
}

func (s *Session) recordLoad(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.PageLoads++
	s.metrics.TotalLoadTime += d
}

// Metrics returns a snapshot of the session's load metrics.
func (s *Session) Metrics() LoadMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics
}

// Navigate loads the given URL and waits for the document body.
func (s *Session) Navigate(url string) (PageInfo, error) {
	ctx, cancel := s.actionCtx()
	defer cancel()

	start := time.Now()
	var title, location string
	err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Title(&title),
		chromedp.Location(&location),
	)
	if err != nil {
		return PageInfo{}, fmt.Errorf("navigate to %s: %w", url, err)
	}
	s.recordLoad(time.Since(start))

	return PageInfo{URL: location, Title: title}, nil
}

// ClickResult describes the effect of a click.
type ClickResult struct {
	// Navigated is true if the click changed the page URL.
	Navigated bool
	// From and To are the URLs before and after the click.
	From, To string
}

// Count returns how many elements on the current page match the selector.
func (s *Session) Count(selector string) (int, error) {
	ctx, cancel := s.actionCtx()
	defer cancel()

	var count int
	expr := fmt.Sprintf("document.querySelectorAll(%q).length", selector)
	if err := chromedp.Run(ctx, chromedp.Evaluate(expr, &count)); err != nil {
		return 0, fmt.Errorf("count %q: %w", selector, err)
	}
	return count, nil
}

// Click clicks the first visible element matching the selector and reports
// whether navigation occurred.
func (s *Session) Click(selector string) (ClickResult, error) {
	ctx, cancel := s.actionCtx()
	defer cancel()

	var before string
	if err := chromedp.Run(ctx, chromedp.Location(&before)); err != nil {
		return ClickResult{}, fmt.Errorf("read location: %w", err)
	}

	if err := chromedp.Run(ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return ClickResult{}, fmt.Errorf("click %q: %w", selector, err)
	}

	// Give any triggered navigation a moment to settle.
	var after string
	settle, settleCancel := context.WithTimeout(s.ctx, 3*time.Second)
	defer settleCancel()
	if err := chromedp.Run(settle, chromedp.WaitReady("body", chromedp.ByQuery), chromedp.Location(&after)); err != nil {
		after = before
	}

	return ClickResult{Navigated: before != after, From: before, To: after}, nil
}

// ExtractText returns the visible text of the first element matching the
// selector, or the whole page body when the selector is empty. Output is
// truncated to keep tool results bounded.
func (s *Session) ExtractText(selector string) (string, error) {
	if selector == "" {
		selector = "body"
	}

	ctx, cancel := s.actionCtx()
	defer cancel()

	var text string
	if err := chromedp.Run(ctx, chromedp.Text(selector, &text, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("extract text %q: %w", selector, err)
	}

	text = strings.TrimSpace(text)
	if len(text) > 4000 {
		text = text[:4000] + "\n... (truncated)"
	}
	return text, nil
}

// ElementInfo describes one element found on the page.
type ElementInfo struct {
	Tag     string `json:"tag"`
	Text    string `json:"text"`
	Href    string `json:"href"`
	ID      string `json:"id"`
	Class   string `json:"class"`
	Type    string `json:"type"`
	Visible bool   `json:"visible"`
}

const elementInfoJS = `(() => {
	const els = Array.from(document.querySelectorAll(%q)).slice(0, %d);
	return els.map(el => ({
		tag: el.tagName.toLowerCase(),
		text: (el.textContent || '').trim().slice(0, 60),
		href: el.getAttribute('href') || '',
		id: el.id || '',
		class: (el.className && el.className.toString().split(/\s+/).slice(0, 2).join(' ')) || '',
		type: el.getAttribute('type') || '',
		visible: !!(el.offsetWidth || el.offsetHeight || el.getClientRects().length),
	}));
})()`

// Elements returns information about up to limit elements matching the
// selector on the current page.
func (s *Session) Elements(selector string, limit int) ([]ElementInfo, error) {
	if limit <= 0 {
		limit = 5
	}

	ctx, cancel := s.actionCtx()
	defer cancel()

	var infos []ElementInfo
	expr := fmt.Sprintf(elementInfoJS, selector, limit)
	if err := chromedp.Run(ctx, chromedp.Evaluate(expr, &infos)); err != nil {
		return nil, fmt.Errorf("inspect %q: %w", selector, err)
	}
	return infos, nil
}

// CurrentPage returns the URL and title of the current page.
func (s *Session) CurrentPage() (PageInfo, error) {
	ctx, cancel := s.actionCtx()
	defer cancel()

	var title, location string
	if err := chromedp.Run(ctx, chromedp.Location(&location), chromedp.Title(&title)); err != nil {
		return PageInfo{}, fmt.Errorf("read current page: %w", err)
	}
	return PageInfo{URL: location, Title: title}, nil
}

// Back navigates to the previous page in history.
func (s *Session) Back() (PageInfo, error) {
	ctx, cancel := s.actionCtx()
	defer cancel()

	var title, location string
	err := chromedp.Run(ctx,
		chromedp.NavigateBack(),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Title(&title),
		chromedp.Location(&location),
	)
	if err != nil {
		return PageInfo{}, fmt.Errorf("navigate back: %w", err)
	}
	return PageInfo{URL: location, Title: title}, nil
}

// Healthy verifies the browser still responds. The runner uses it to tell a
// failed attempt apart from a dead session.
func (s *Session) Healthy() error {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	var ready string
	if err := chromedp.Run(ctx, chromedp.Evaluate("document.readyState", &ready)); err != nil {
		return fmt.Errorf("browser session unresponsive: %w", err)
	}
	return nil
}

// Close shuts the browser down. It is safe to call more than once; only the
// first call releases resources.
func (s *Session) Close() CleanupStatus {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return CleanupStatus{}
	}
	s.closed = true
	s.mu.Unlock()

	// Cancel the page context first so the browser process exits, then
	// release the allocator.
	var err error
	if c := chromedp.Cancel(s.ctx); c != nil {
		err = fmt.Errorf("close browser: %w", c)
	}
	s.ctxCancel()
	s.allocCancel()

	return CleanupStatus{Err: err}
}
