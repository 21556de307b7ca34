package httpapi

import (
	"time"

	"HousingAlerts/internal/domain"
)

type searchView struct {
	ID          int64            `json:"id"`
	UserID      string           `json:"user_id"`
	Name        string           `json:"name"`
	Location    string           `json:"location"`
	Anchor      *domain.GeoPoint `json:"anchor,omitempty"`
	RadiusKm    *float64         `json:"radius_km"`
	MaxPrice    *int             `json:"max_price"`
	MinRooms    *float64         `json:"min_rooms"`
	MinArea     *int             `json:"min_area"`
	NearBus     bool             `json:"near_bus"`
	NearTrain   bool             `json:"near_train"`
	Condition   domain.Condition `json:"condition"`
	PriorityHLM bool             `json:"priority_hlm"`
	IsActive    bool             `json:"is_active"`
}

type listingView struct {
	ExternalID  string    `json:"external_id"`
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	Price       int       `json:"price"`
	Rooms       *float64  `json:"rooms"`
	Area        *int      `json:"area"`
	Address     string    `json:"address"`
	PostalCode  *string   `json:"postal_code"`
	City        *string   `json:"city"`
	ListingURL  string    `json:"listing_url"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	IsNew       bool      `json:"is_new"`
	IsRenovated bool      `json:"is_renovated"`
	IsHLM       *bool     `json:"is_hlm"`
	NearBus     bool      `json:"near_bus"`
	NearTrain   bool      `json:"near_train"`
	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
	DistanceKm  *float64  `json:"distance_km"`
}

func newSearchView(s domain.SavedSearch) searchView {
	return searchView{
		ID:          s.ID,
		UserID:      s.UserID,
		Name:        s.Name,
		Location:    s.Location,
		Anchor:      s.Anchor,
		RadiusKm:    s.RadiusKm,
		MaxPrice:    s.MaxPrice,
		MinRooms:    s.MinRooms,
		MinArea:     s.MinArea,
		NearBus:     s.NearBus,
		NearTrain:   s.NearTrain,
		Condition:   s.Condition,
		PriorityHLM: s.PriorityHLM,
		IsActive:    s.IsActive,
	}
}

func newListingViews(matches []domain.Match) []listingView {
	out := make([]listingView, 0, len(matches))
	for _, m := range matches {
		l := m.Listing
		out = append(out, listingView{
			ExternalID:  l.ExternalID,
			Source:      l.Source,
			Title:       l.Title,
			Price:       l.Price,
			Rooms:       l.Rooms,
			Area:        l.Area,
			Address:     l.Address,
			PostalCode:  l.PostalCode,
			City:        l.City,
			ListingURL:  l.ListingURL,
			Latitude:    l.Latitude,
			Longitude:   l.Longitude,
			IsNew:       l.IsNew,
			IsRenovated: l.IsRenovated,
			IsHLM:       l.IsHLM,
			NearBus:     l.NearBus,
			NearTrain:   l.NearTrain,
			FirstSeenAt: l.FirstSeenAt,
			LastSeenAt:  l.LastSeenAt,
			DistanceKm:  m.DistanceKm,
		})
	}
	return out
}
