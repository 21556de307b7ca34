package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"HousingAlerts/internal/domain"
	"HousingAlerts/internal/ports"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func sampleListing(id string, price int) domain.Listing {
	return domain.Listing{
		ExternalID: id,
		Source:     "homegate",
		Title:      "Appartement " + id,
		Address:    "Rue du Lac 5, 1260 Nyon",
		ListingURL: "https://www.homegate.ch/rent/" + id,
		Price:      price,
	}
}

func TestMemoryUpsertIsIdempotent(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	store := NewMemoryListingStore(clock.Now)
	ctx := context.Background()

	first, err := store.Upsert(ctx, sampleListing("homegate_1", 2500))
	if err != nil || first != domain.UpsertCreated {
		t.Fatalf("first upsert: %v %v", first, err)
	}

	clock.now = clock.now.Add(time.Hour)
	second, err := store.Upsert(ctx, sampleListing("homegate_1", 2400))
	if err != nil || second != domain.UpsertUpdated {
		t.Fatalf("second upsert: %v %v", second, err)
	}

	all := store.All()
	if len(all) != 1 {
		t.Fatalf("expected one row, got %d", len(all))
	}
	if all[0].Price != 2400 {
		t.Fatalf("expected second price, got %d", all[0].Price)
	}
	if !all[0].LastSeenAt.Equal(clock.now) || all[0].FirstSeenAt.Equal(clock.now) {
		t.Fatalf("unexpected timestamps: first=%v last=%v", all[0].FirstSeenAt, all[0].LastSeenAt)
	}
}

func TestMemoryUpsertKeepsCoordinatesWhenMissing(t *testing.T) {
	t.Parallel()

	store := NewMemoryListingStore(nil)
	ctx := context.Background()

	located := sampleListing("homegate_1", 2500)
	lat, lng := 46.38, 6.24
	located.Latitude, located.Longitude = &lat, &lng
	if _, err := store.Upsert(ctx, located); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := store.Upsert(ctx, sampleListing("homegate_1", 2500)); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, _ := store.Get("homegate_1")
	if got.Latitude == nil || *got.Latitude != lat {
		t.Fatalf("coordinates should be preserved, got %v", got.Latitude)
	}
}

func TestMemoryUpsertRejectsInvalid(t *testing.T) {
	t.Parallel()

	store := NewMemoryListingStore(nil)
	_, err := store.Upsert(context.Background(), sampleListing("homegate_1", 0))
	if !errors.Is(err, domain.ErrInvalidListing) {
		t.Fatalf("expected invalid listing error, got %v", err)
	}
	if len(store.All()) != 0 {
		t.Fatalf("invalid listing must not be stored")
	}
}

func TestMemoryMarkStaleInactive(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	store := NewMemoryListingStore(func() time.Time { return now })

	stale := sampleListing("homegate_old", 2000)
	stale.IsActive = true
	stale.LastSeenAt = now.Add(-8 * 24 * time.Hour)
	fresh := sampleListing("homegate_recent", 2000)
	fresh.IsActive = true
	fresh.LastSeenAt = now.Add(-6 * 24 * time.Hour)
	store.Put(stale)
	store.Put(fresh)

	retired, err := store.MarkStaleInactive(context.Background(), 7*24*time.Hour)
	if err != nil {
		t.Fatalf("MarkStaleInactive returned error: %v", err)
	}
	if retired != 1 {
		t.Fatalf("expected 1 retired, got %d", retired)
	}

	if got, _ := store.Get("homegate_old"); got.IsActive {
		t.Fatalf("8-day-old listing should be retired")
	}
	if got, _ := store.Get("homegate_recent"); !got.IsActive {
		t.Fatalf("6-day-old listing should stay active")
	}
}

func TestMemoryAccounts(t *testing.T) {
	t.Parallel()

	repo := NewMemoryAccounts()
	ctx := context.Background()

	repo.AddAlert(domain.AlertSetting{UserID: "u1", Email: "a@example.ch", Frequency: domain.FrequencyDaily, IsActive: true})
	repo.AddAlert(domain.AlertSetting{UserID: "u2", Email: "b@example.ch", Frequency: domain.FrequencyWeekly, IsActive: true})
	repo.AddAlert(domain.AlertSetting{UserID: "u3", Email: "c@example.ch", Frequency: domain.FrequencyDaily, IsActive: false})

	daily, err := repo.ActiveAlerts(ctx, domain.FrequencyDaily)
	if err != nil || len(daily) != 1 || daily[0].UserID != "u1" {
		t.Fatalf("unexpected daily alerts: %v %v", daily, err)
	}

	active := repo.AddSearch(domain.SavedSearch{UserID: "u1", Name: "Nyon", IsActive: true})
	repo.AddSearch(domain.SavedSearch{UserID: "u1", Name: "Old", IsActive: false})

	searches, err := repo.ActiveSearches(ctx, "u1")
	if err != nil || len(searches) != 1 || searches[0].ID != active.ID {
		t.Fatalf("unexpected searches: %v %v", searches, err)
	}

	if _, err := repo.SearchByID(ctx, 99); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	sentAt := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	if err := repo.MarkSent(ctx, "u1", sentAt); err != nil {
		t.Fatalf("MarkSent returned error: %v", err)
	}
	if a, _ := repo.Alert("u1"); a.LastSentAt == nil || !a.LastSentAt.Equal(sentAt) {
		t.Fatalf("last sent not recorded: %+v", a)
	}
}
