package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"HousingAlerts/internal/domain"
	"HousingAlerts/internal/scanner"
)

const (
	homegateBaseURL = "https://www.homegate.ch"
	homegateName    = "homegate"

	// ResultListSelector is the container Homegate renders around search results.
	ResultListSelector = `div[data-test="result-list"]`
	resultItemSelector = `a[data-test="result-list-item"]`
)

var errNoResultContainer = errors.New("result list container not found")

// HomegateScanner extracts rental listings from Homegate search result pages.
type HomegateScanner struct {
	loader  PageLoader
	baseURL string
	logger  *slog.Logger
	now     func() time.Time
}

// NewHomegateScanner wires a page loader; an empty baseURL targets homegate.ch.
func NewHomegateScanner(loader PageLoader, baseURL string, log *slog.Logger) *HomegateScanner {
	if baseURL == "" {
		baseURL = homegateBaseURL
	}
	return &HomegateScanner{
		loader:  loader,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  log,
		now:     time.Now,
	}
}

// Name identifies the adapter inside the registry.
func (h *HomegateScanner) Name() string {
	return homegateName
}

// Scan loads one result page for the request and returns its raw listings.
func (h *HomegateScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.RawListing, error) {
	pageURL, err := buildSearchURL(h.baseURL, req)
	if err != nil {
		return nil, err
	}
	h.debug("load search page", "url", pageURL)

	doc, err := h.loader.Load(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("homegate %s: %w", req.Location, err)
	}

	if doc.Find(ResultListSelector).Length() == 0 {
		return nil, fmt.Errorf("homegate %s: %w", req.Location, errNoResultContainer)
	}

	listings := extractListings(doc, h.baseURL, h.now().UTC())
	h.debug("extracted listings", "location", req.Location, "count", len(listings))
	return listings, nil
}

func extractListings(doc *goquery.Document, baseURL string, fetchedAt time.Time) []domain.RawListing {
	base, _ := url.Parse(baseURL)

	var out []domain.RawListing
	doc.Find(resultItemSelector).Each(func(_ int, item *goquery.Selection) {
		href, _ := item.Attr("href")
		out = append(out, domain.RawListing{
			Title:     cleanText(item.Find(`span[data-test="listing-title"]`).First().Text()),
			PriceText: cleanText(item.Find(`span[data-test="listing-price"]`).First().Text()),
			Address:   cleanText(item.Find("address").First().Text()),
			URL:       absoluteURL(base, href),
			Details:   characteristics(item),
			FetchedAt: fetchedAt,
		})
	})
	return out
}

func characteristics(item *goquery.Selection) []string {
	var details []string
	item.Find(`span[class*="Characteristic"]`).Each(func(_ int, s *goquery.Selection) {
		if text := cleanText(s.Text()); text != "" {
			details = append(details, text)
		}
	})
	return details
}

func absoluteURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "http") || base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func buildSearchURL(base string, req scanner.Request) (string, error) {
	parsed, err := url.Parse(base + "/rent/real-estate/matching-list")
	if err != nil {
		return "", fmt.Errorf("invalid base url %s: %w", base, err)
	}

	query := parsed.Query()
	if req.MaxPrice > 0 {
		query.Set("ep", strconv.Itoa(req.MaxPrice))
	}
	if req.MinRooms > 0 {
		query.Set("nrf", strconv.FormatFloat(req.MinRooms, 'f', -1, 64))
	}
	query.Set("loc", req.Location)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (h *HomegateScanner) debug(msg string, args ...interface{}) {
	if h.logger != nil {
		h.logger.Debug(msg, args...)
	}
}
