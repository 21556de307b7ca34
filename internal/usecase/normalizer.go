package usecase

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"HousingAlerts/internal/domain"
)

var (
	priceDigits   = regexp.MustCompile(`\d+(?:['’,\s\x{00a0}\x{202f}]\d+)*`)
	roomsPattern  = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*-?\s*(?:rooms?|pi[eè]ces?|pces?|zimmer|zi\.)`)
	areaPattern   = regexp.MustCompile(`(?i)(\d+)(?:[.,]\d+)?\s*m(?:²|2)`)
	postalCity    = regexp.MustCompile(`^(\d{4})\s+(.+)$`)
	trailingID    = regexp.MustCompile(`/(\d+)/?$`)
	newMarkers    = regexp.MustCompile(`(?i)neubau|new building|newly built|neuf|erstbezug|première location`)
	renovMarkers  = regexp.MustCompile(`(?i)r[eé]nov`)
	hlmMarkers    = regexp.MustCompile(`(?i)\bhlm\b|subventionn|subsidi|logement social`)
	busMarkers    = regexp.MustCompile(`(?i)\bbus\b`)
	trainMarkers  = regexp.MustCompile(`(?i)\b(gare|train|bahnhof|cff|sbb)\b`)
	nonDigitRunes = regexp.MustCompile(`\D`)
)

// NormalizeStats counts what a batch normalization discarded or synthesized.
type NormalizeStats struct {
	Rejected     int
	SyntheticIDs int
}

// Normalizer converts raw adapter records into canonical listings.
type Normalizer struct {
	allowSynthetic bool
	logger         *slog.Logger
	now            func() time.Time
}

// NewNormalizer builds a normalizer. When allowSynthetic is false, records without a stable identity are rejected.
func NewNormalizer(allowSynthetic bool, log *slog.Logger) *Normalizer {
	return &Normalizer{allowSynthetic: allowSynthetic, logger: log, now: time.Now}
}

// NormalizeBatch normalizes raws in order; offset shifts the ordinal used for synthetic identities.
func (n *Normalizer) NormalizeBatch(source string, raws []domain.RawListing, offset int) ([]domain.Listing, NormalizeStats) {
	var stats NormalizeStats
	out := make([]domain.Listing, 0, len(raws))
	for i, raw := range raws {
		listing, synthetic, ok := n.Normalize(source, raw, offset+i)
		if !ok {
			stats.Rejected++
			continue
		}
		if synthetic {
			stats.SyntheticIDs++
			n.warn("assigned synthetic listing id", "source", source, "external_id", listing.ExternalID, "url", raw.URL)
		}
		out = append(out, listing)
	}
	return out, stats
}

// Normalize converts one record. ok is false when the record must be discarded.
func (n *Normalizer) Normalize(source string, raw domain.RawListing, index int) (listing domain.Listing, synthetic bool, ok bool) {
	title := strings.TrimSpace(raw.Title)
	address := strings.TrimSpace(raw.Address)
	link := strings.TrimSpace(raw.URL)
	price := parsePrice(raw.PriceText)
	if title == "" || address == "" || link == "" || price <= 0 {
		return domain.Listing{}, false, false
	}

	externalID, synthetic := n.identity(source, raw, link, index)
	if externalID == "" {
		return domain.Listing{}, false, false
	}

	texts := make([]string, 0, len(raw.Details)+1)
	texts = append(texts, raw.Details...)
	texts = append(texts, title)
	listing = domain.Listing{
		ExternalID:  externalID,
		Source:      source,
		Title:       title,
		Address:     address,
		ListingURL:  link,
		Price:       price,
		Rooms:       parseRooms(texts),
		Area:        parseArea(texts),
		IsNew:       matchesAny(newMarkers, texts),
		IsRenovated: matchesAny(renovMarkers, texts),
		NearBus:     matchesAny(busMarkers, texts),
		NearTrain:   matchesAny(trainMarkers, texts),
		IsActive:    true,
	}
	if matchesAny(hlmMarkers, texts) {
		hlm := true
		listing.IsHLM = &hlm
	}
	listing.PostalCode, listing.City = splitAddress(address)
	return listing, synthetic, true
}

func (n *Normalizer) identity(source string, raw domain.RawListing, link string, index int) (string, bool) {
	if native := strings.TrimSpace(raw.NativeID); native != "" {
		return source + "_" + native, false
	}

	path := link
	if parsed, err := url.Parse(link); err == nil {
		path = parsed.Path
	}
	if m := trailingID.FindStringSubmatch(path); m != nil {
		return source + "_" + m[1], false
	}

	if !n.allowSynthetic {
		return "", false
	}
	fetched := raw.FetchedAt
	if fetched.IsZero() {
		fetched = n.now()
	}
	return fmt.Sprintf("%s_%d_%d", source, fetched.UnixMilli(), index), true
}

func parsePrice(text string) int {
	run := priceDigits.FindString(text)
	if run == "" {
		return 0
	}
	value, err := strconv.Atoi(nonDigitRunes.ReplaceAllString(run, ""))
	if err != nil || value <= 0 {
		return 0
	}
	return value
}

// parseRooms reads the first "<n> rooms|pièces|Zimmer" token; details come before the title.
func parseRooms(texts []string) *float64 {
	for _, text := range texts {
		m := roomsPattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
		if err != nil {
			continue
		}
		return &value
	}
	return nil
}

func parseArea(texts []string) *int {
	for _, text := range texts {
		m := areaPattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return &value
	}
	return nil
}

// splitAddress reads "<street>, <NPA> <city>"; anything else leaves both nil.
func splitAddress(address string) (*string, *string) {
	parts := strings.Split(address, ",")
	last := strings.TrimSpace(parts[len(parts)-1])
	m := postalCity.FindStringSubmatch(last)
	if m == nil {
		return nil, nil
	}
	postal, city := m[1], strings.TrimSpace(m[2])
	return &postal, &city
}

func matchesAny(re *regexp.Regexp, texts []string) bool {
	for _, t := range texts {
		if re.MatchString(t) {
			return true
		}
	}
	return false
}

func (n *Normalizer) warn(msg string, args ...interface{}) {
	if n.logger != nil {
		n.logger.Warn(msg, args...)
	}
}
