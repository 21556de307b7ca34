package usecase

import "HousingAlerts/internal/domain"

// Deduplicate keeps one listing per external id. A later occurrence replaces an earlier one.
func Deduplicate(listings []domain.Listing) []domain.Listing {
	index := make(map[string]int, len(listings))
	out := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		if i, ok := index[l.ExternalID]; ok {
			out[i] = l
			continue
		}
		index[l.ExternalID] = len(out)
		out = append(out, l)
	}
	return out
}
