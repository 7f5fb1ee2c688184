package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/lysyi3m/profile-comb/app/cfg"
	"github.com/lysyi3m/profile-comb/app/profile"
)

// Manager owns a single browser instance and hands out at most one live
// authenticated session at a time. Sessions are reused across passes and
// recreated only after Invalidate or a dead tab.
type Manager struct {
	mu          sync.Mutex
	allocCtx    context.Context
	allocCancel context.CancelFunc
	session     *Session

	baseURL     string
	username    string
	password    string
	cookiesFile string
	maxRetries  int
	retryDelay  time.Duration
	timeout     time.Duration
}

// Session is one authenticated browser tab. Exclusively owned by the
// Manager; callers hold it only for the duration of a pass.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc
}

var _ profile.Page = (*Session)(nil)

func NewManager() *Manager {
	appCfg := cfg.Get()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", appCfg.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.UserAgent(appCfg.UserAgent),
	)

	// Allow pointing at a specific Chrome/Chromium binary.
	if path := os.Getenv("CHROME_PATH"); path != "" {
		opts = append(opts, chromedp.ExecPath(path))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Manager{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		baseURL:     strings.TrimRight(appCfg.BaseURL, "/"),
		username:    appCfg.Username,
		password:    appCfg.Password,
		cookiesFile: appCfg.CookiesFile,
		maxRetries:  appCfg.MaxRetries,
		retryDelay:  time.Duration(appCfg.RetryDelay) * time.Second,
		timeout:     time.Duration(appCfg.PageTimeout) * time.Second,
	}
}

// Acquire returns a live authenticated session, reusing the current one
// when possible. Transient failures are retried with backoff; rejected
// credentials surface immediately as an AuthError.
func (m *Manager) Acquire(ctx context.Context) (profile.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil && m.session.Alive() {
		return m.session, nil
	}
	m.closeSessionLocked()

	var lastErr error
	for attempt := 1; attempt <= m.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		session, err := m.newSession(ctx)
		if err == nil {
			m.session = session
			return session, nil
		}

		var authErr *AuthError
		if errors.As(err, &authErr) {
			return nil, err
		}

		lastErr = err
		slog.Warn("Session acquisition failed", "attempt", attempt,
			"max_attempts", m.maxRetries, "error", err)

		if attempt < m.maxRetries {
			timer := time.NewTimer(time.Duration(attempt) * m.retryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
	}

	return nil, fmt.Errorf("session acquisition failed after %d attempts: %w", m.maxRetries, lastErr)
}

// Invalidate discards the current session. The next Acquire builds a
// fresh one.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeSessionLocked()
}

// Close tears down the session and the browser process.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeSessionLocked()
	m.allocCancel()
}

func (m *Manager) closeSessionLocked() {
	if m.session != nil {
		m.session.cancel()
		m.session = nil
	}
}

func (m *Manager) newSession(ctx context.Context) (*Session, error) {
	tabCtx, tabCancel := chromedp.NewContext(m.allocCtx)
	session := &Session{ctx: tabCtx, cancel: tabCancel}

	if err := m.restoreSession(session); err == nil {
		slog.Info("Session restored from saved cookies")
		return session, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		slog.Debug("Saved cookies unusable, logging in", "error", err)
	}

	if err := m.login(session); err != nil {
		tabCancel()
		return nil, err
	}

	if err := saveCookies(session.ctx, m.cookiesFile); err != nil {
		slog.Warn("Failed to persist session cookies", "error", err)
	}

	slog.Info("Session established", "user", m.username)

	return session, nil
}

// restoreSession loads saved cookies and verifies they still authenticate.
func (m *Manager) restoreSession(session *Session) error {
	if err := loadCookies(session.ctx, m.cookiesFile); err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(session.ctx, m.timeout)
	defer cancel()

	var loggedIn bool
	err := chromedp.Run(runCtx,
		chromedp.Navigate(m.baseURL+"/"),
		chromedp.Evaluate(`document.querySelector("a[href*='/logout/']") !== null`, &loggedIn),
	)
	if err != nil {
		return fmt.Errorf("failed to verify restored session: %w", err)
	}
	if !loggedIn {
		return fmt.Errorf("saved cookies expired")
	}

	return nil
}

// login drives the site's login form and verifies the browser left the
// login page afterwards.
func (m *Manager) login(session *Session) error {
	runCtx, cancel := context.WithTimeout(session.ctx, m.timeout)
	defer cancel()

	loginURL := m.baseURL + "/login/"

	err := chromedp.Run(runCtx,
		chromedp.Navigate(loginURL),
		chromedp.WaitVisible("#nick", chromedp.ByQuery),
		chromedp.SetValue("#nick", m.username, chromedp.ByQuery),
		chromedp.SetValue("#pass", m.password, chromedp.ByQuery),
		chromedp.Click("form button[type='submit']", chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
	)
	if err != nil {
		return fmt.Errorf("login flow failed: %w", err)
	}

	var location string
	if err := chromedp.Run(runCtx, chromedp.Location(&location)); err != nil {
		return fmt.Errorf("failed to read post-login location: %w", err)
	}

	if strings.Contains(location, "/login") {
		return &AuthError{Reason: "credentials rejected"}
	}

	return nil
}

// Alive reports whether the tab behind the session is still usable.
func (s *Session) Alive() bool {
	return s.ctx.Err() == nil
}

// HTML navigates to a URL, waits for the readiness selector bounded by the
// page timeout, and returns the rendered document.
func (s *Session) HTML(ctx context.Context, url, waitSelector string, timeout time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	runCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible(waitSelector, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", url, err)
	}

	return html, nil
}
