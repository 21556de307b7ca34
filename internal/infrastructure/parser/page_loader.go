package parser

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// PageLoader turns a URL into a parsed HTML document.
type PageLoader interface {
	Load(ctx context.Context, pageURL string) (*goquery.Document, error)
}

// HTTPLoader fetches server-rendered pages with a plain HTTP client.
type HTTPLoader struct {
	client *http.Client
}

// NewHTTPLoader wires an HTTP client; a nil client gets a 60s timeout.
func NewHTTPLoader(client *http.Client) *HTTPLoader {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPLoader{client: client}
}

// Load downloads and parses the page.
func (h *HTTPLoader) Load(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept-Language", "fr-CH,fr;q=0.9,en;q=0.8")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// ChromeLoader renders pages in headless Chrome for sites that build results client-side.
type ChromeLoader struct {
	execPath     string
	waitSelector string
	timeout      time.Duration
}

// NewChromeLoader waits for waitSelector before capturing the DOM; an empty execPath uses the default browser lookup.
func NewChromeLoader(execPath, waitSelector string, timeout time.Duration) *ChromeLoader {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ChromeLoader{execPath: execPath, waitSelector: waitSelector, timeout: timeout}
}

// Load navigates to the page and parses the rendered DOM.
func (c *ChromeLoader) Load(ctx context.Context, pageURL string) (*goquery.Document, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(browserUserAgent),
	)
	if c.execPath != "" {
		opts = append(opts, chromedp.ExecPath(c.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	runCtx, cancel := context.WithTimeout(browserCtx, c.timeout)
	defer cancel()

	var html string
	actions := []chromedp.Action{chromedp.Navigate(pageURL)}
	if c.waitSelector != "" {
		actions = append(actions, chromedp.WaitReady(c.waitSelector, chromedp.ByQuery))
	}
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(runCtx, actions...); err != nil {
		return nil, fmt.Errorf("render %s: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse rendered document: %w", err)
	}
	return doc, nil
}
