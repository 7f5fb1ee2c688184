package profile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/lysyi3m/profile-comb/app/cfg"
)

// Page structure selectors. Profile fields are located structurally: a
// label element followed by a sibling carrying the value.
const (
	selProfileReady   = "div.cl"
	selAvatarImage    = "img[src*='avatar-imgs']"
	selFollowersCount = "span.cl.sp.clb"
	selPublicPosts    = "a[href*='/profile/public/'] button div"
	selIntro          = "div.ow span.nos"
	selLastPost       = "div.post-text"
	selLastPostTime   = "time"
	selOnlineUsers    = "li bdi"
)

// Extractor fetches and parses public profile pages through a live browser
// page. One fetch is in flight at a time; the caller owns pacing.
type Extractor struct {
	baseURL    string
	maxRetries int
	retryDelay time.Duration
	timeout    time.Duration
}

func NewExtractor() *Extractor {
	appCfg := cfg.Get()

	return &Extractor{
		baseURL:    strings.TrimRight(appCfg.BaseURL, "/"),
		maxRetries: appCfg.MaxRetries,
		retryDelay: time.Duration(appCfg.RetryDelay) * time.Second,
		timeout:    time.Duration(appCfg.PageTimeout) * time.Second,
	}
}

// Fetch captures one profile. It attempts the page load up to the configured
// retry limit; exhaustion yields a FetchError so the caller can skip the
// identifier without aborting the worklist.
func (e *Extractor) Fetch(ctx context.Context, page Page, identifier string) (*Raw, error) {
	url := fmt.Sprintf("%s/users/%s/", e.baseURL, identifier)

	var lastErr error
	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		html, err := page.HTML(ctx, url, selProfileReady, e.timeout)
		if err == nil {
			raw, parseErr := e.parse(identifier, url, html)
			if parseErr == nil {
				return raw, nil
			}
			err = parseErr
		}

		lastErr = err
		slog.Warn("Fetch attempt failed", "identifier", identifier,
			"attempt", attempt, "max_attempts", e.maxRetries, "error", err)

		if attempt < e.maxRetries {
			if err := sleepCtx(ctx, e.backoff(attempt)); err != nil {
				return nil, err
			}
		}
	}

	return nil, &FetchError{Identifier: identifier, Attempts: e.maxRetries, Err: lastErr}
}

// DiscoverOnline scrapes the online-users page into a worklist of
// identifiers, preserving page order.
func (e *Extractor) DiscoverOnline(ctx context.Context, page Page) ([]string, error) {
	url := e.baseURL + "/online_kon/"

	html, err := page.HTML(ctx, url, selOnlineUsers, e.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to load online users page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse online users page: %w", err)
	}

	seen := make(map[string]bool)
	identifiers := make([]string, 0)
	doc.Find(selOnlineUsers).Each(func(_ int, s *goquery.Selection) {
		identifier := CleanText(s.Text())
		if identifier == "" || seen[identifier] {
			return
		}
		seen[identifier] = true
		identifiers = append(identifiers, identifier)
	})

	slog.Debug("Discovered online users", "count", len(identifiers))

	return identifiers, nil
}

func (e *Extractor) parse(identifier, url, html string) (*Raw, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse profile page: %w", err)
	}

	raw := &Raw{
		Identifier:  identifier,
		Nickname:    identifier,
		City:        labeledValue(doc, "City:"),
		Gender:      labeledValue(doc, "Gender:"),
		Married:     labeledValue(doc, "Married:"),
		Age:         labeledValue(doc, "Age:"),
		Joined:      labeledValue(doc, "Joined:"),
		Followers:   doc.Find(selFollowersCount).First().Text(),
		Posts:       doc.Find(selPublicPosts).First().Text(),
		Intro:       doc.Find(selIntro).First().Text(),
		LastPost:    doc.Find(selLastPost).First().Text(),
		ProfileLink: url,
		FetchedAt:   time.Now(),
	}

	if src, ok := doc.Find(selAvatarImage).First().Attr("src"); ok {
		raw.ImageLink = src
	}
	if ts, ok := doc.Find(selLastPostTime).First().Attr("datetime"); ok {
		raw.LastPostAt = ts
	} else {
		raw.LastPostAt = doc.Find(selLastPostTime).First().Text()
	}

	return raw, nil
}

// labeledValue finds a label element by its exact text and returns the text
// of the element that follows it.
func labeledValue(doc *goquery.Document, label string) string {
	var value string
	doc.Find("b, span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.Text()) == label {
			value = s.Next().Text()
			return false
		}
		return true
	})
	return value
}

// backoff grows linearly with the attempt number, capped at 30 seconds.
func (e *Extractor) backoff(attempt int) time.Duration {
	delay := time.Duration(attempt) * e.retryDelay
	if delay > 30*time.Second {
		delay = 30 * time.Second
	}
	return delay
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
