package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"cgcookie-dl/internal/apperrors"
	"cgcookie-dl/internal/config"
)

// Session wraps a single chromedp browser context. The whole run shares one
// session; nothing here is safe for concurrent use and nothing needs to be.
type Session struct {
	ctx     context.Context
	cancels []context.CancelFunc
	log     zerolog.Logger
}

// Open launches the browser. A persisted profile directory is reused when it
// can be created; otherwise the browser starts with a fresh profile and the
// failure is only logged.
func Open(parent context.Context, cfg *config.Config, log zerolog.Logger) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("window-size", "1920,1080"),
		chromedp.UserAgent(config.DefaultHeaders["User-Agent"]),
	)

	if cfg.ProfileDir != "" {
		if err := os.MkdirAll(cfg.ProfileDir, 0755); err != nil {
			log.Warn().Err(err).Str("dir", cfg.ProfileDir).
				Msg("Could not create profile directory, using a fresh profile")
		} else {
			opts = append(opts, chromedp.UserDataDir(cfg.ProfileDir))
		}
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	ctx, ctxCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:     ctx,
		cancels: []context.CancelFunc{ctxCancel, allocCancel},
		log:     log,
	}

	// Starting the browser is deferred until the first action; run one now so
	// a missing binary fails here instead of mid-pipeline.
	if err := chromedp.Run(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	// Point browser downloads at the configured directory so manually
	// triggered downloads land where the fallback watches for them.
	if cfg.DownloadsDir != "" {
		err := chromedp.Run(ctx, cdpbrowser.
			SetDownloadBehavior(cdpbrowser.SetDownloadBehaviorBehaviorAllow).
			WithDownloadPath(cfg.DownloadsDir))
		if err != nil {
			log.Warn().Err(err).Msg("Could not set browser download directory")
		}
	}

	return s, nil
}

// Ctx exposes the browser context for callers that build their own actions.
func (s *Session) Ctx() context.Context {
	return s.ctx
}

// Close tears the browser down. Safe to call more than once.
func (s *Session) Close() {
	for _, cancel := range s.cancels {
		cancel()
	}
}

// Navigate loads a URL and waits for the document to be ready.
func (s *Session) Navigate(url string) error {
	if err := chromedp.Run(s.ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// Location returns the current page URL.
func (s *Session) Location() (string, error) {
	var url string
	if err := chromedp.Run(s.ctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

// WaitVisible blocks until the selector renders or the timeout elapses.
func (s *Session) WaitVisible(selector string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	if err := chromedp.Run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			url, _ := s.Location()
			return apperrors.NewScrapeTimeoutError(selector, url)
		}
		return err
	}
	return nil
}

// PageSource returns the full rendered markup of the current page.
func (s *Session) PageSource() (string, error) {
	var html string
	if err := chromedp.Run(s.ctx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("failed to capture page source: %w", err)
	}
	return html, nil
}

// Attribute reads an attribute from the first node matching selector. A node
// that never appears within the timeout is reported as absent, not an error.
func (s *Session) Attribute(selector, name string, timeout time.Duration) (string, bool, error) {
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	var value string
	var ok bool
	err := chromedp.Run(ctx,
		chromedp.WaitReady(selector, chromedp.ByQuery),
		chromedp.AttributeValue(selector, name, &value, &ok, chromedp.ByQuery),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, ok, nil
}

// Click waits for the selector and clicks it.
func (s *Session) Click(selector string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	err := chromedp.Run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			url, _ := s.Location()
			return apperrors.NewScrapeTimeoutError(selector, url)
		}
		return err
	}
	return nil
}

// ClickXPath waits for an XPath match and clicks it. Used for controls that
// have no stable class or id, like the course-files button.
func (s *Session) ClickXPath(xpath string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	err := chromedp.Run(ctx,
		chromedp.WaitVisible(xpath, chromedp.BySearch),
		chromedp.Click(xpath, chromedp.BySearch),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			url, _ := s.Location()
			return apperrors.NewScrapeTimeoutError(xpath, url)
		}
		return err
	}
	return nil
}

// ClickXY dispatches a raw mouse click at viewport coordinates.
func (s *Session) ClickXY(x, y float64) error {
	return chromedp.Run(s.ctx, chromedp.MouseClickXY(x, y))
}

// Evaluate runs a JavaScript expression on the current page.
func (s *Session) Evaluate(expr string, res interface{}) error {
	return chromedp.Run(s.ctx, chromedp.Evaluate(expr, res))
}

// Authenticate submits credentials into the sign-in form and waits for the
// signed-in marker. Timing out is fatal per the error contract; the caller
// closes the session.
func (s *Session) Authenticate(email, password string, timeout time.Duration) error {
	loginURL := config.CGCookieBaseUrl + config.CGCookieLoginPath
	if err := s.Navigate(loginURL); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	err := chromedp.Run(ctx,
		chromedp.WaitVisible(config.SelectorLoginEmail, chromedp.ByQuery),
		chromedp.SendKeys(config.SelectorLoginEmail, email, chromedp.ByQuery),
		chromedp.SendKeys(config.SelectorLoginPassword, password, chromedp.ByQuery),
		chromedp.Click(config.SelectorLoginSubmit, chromedp.ByQuery),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return apperrors.NewAuthError("login form never rendered")
		}
		return fmt.Errorf("failed to submit login form: %w", err)
	}

	if err := s.WaitSignedIn(timeout); err != nil {
		return err
	}

	s.log.Info().Str("email", email).Msg("Logged in")
	return nil
}

// WaitSignedIn waits for the signed-in marker. Used both right after an
// automated login and, with a much longer timeout, while a human completes
// the login by hand in a visible browser window.
func (s *Session) WaitSignedIn(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	err := chromedp.Run(ctx, chromedp.WaitVisible(config.SelectorSignedInMarker, chromedp.ByQuery))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return apperrors.NewAuthError("signed-in marker never appeared")
		}
		return err
	}
	return nil
}
