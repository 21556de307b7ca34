package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"HousingAlerts/internal/domain"
	"HousingAlerts/internal/infrastructure/storage"
	"HousingAlerts/internal/ports"
)

func twoTargets() []ports.SearchTarget {
	return []ports.SearchTarget{
		{Source: "homegate", Location: "1260", RadiusKm: 10, MaxPrice: 3500, MinRooms: 4},
		{Source: "homegate", Location: "1271", RadiusKm: 10, MaxPrice: 3000, MinRooms: 4},
	}
}

func newTestIngestion(source ports.ListingSource, store ports.ListingStore, sleeper Sleeper, guard *RunGuard) *Ingestion {
	return NewIngestion(IngestionDeps{
		Source:  source,
		Store:   store,
		Guard:   guard,
		Sleeper: sleeper,
		Clock:   fixedClock,
	}, IngestionPolicy{
		Targets:           twoTargets(),
		FreshnessWindow:   7 * 24 * time.Hour,
		InterRequestDelay: 10 * time.Second,
		AllowSyntheticIDs: true,
	})
}

func TestIngestionDelaysBetweenSourcesOnly(t *testing.T) {
	t.Parallel()

	source := &fakeSource{results: map[string][]domain.RawListing{
		"1260": {rawListing("https://www.homegate.ch/rent/1", "CHF 2’000.–")},
		"1271": {rawListing("https://www.homegate.ch/rent/2", "CHF 2’100.–")},
	}}
	sleeper := &recordingSleeper{}
	store := storage.NewMemoryListingStore(fixedClock)

	outcome := newTestIngestion(source, store, sleeper, nil).Run(context.Background())

	if outcome.Status != domain.RunCompleted {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if len(sleeper.calls) != 1 || sleeper.calls[0] != 10*time.Second {
		t.Fatalf("expected exactly one 10s delay, got %v", sleeper.calls)
	}
	if len(source.calls) != 2 || source.calls[0] != "1260" || source.calls[1] != "1271" {
		t.Fatalf("sources must run sequentially in order, got %v", source.calls)
	}
	if outcome.Counts.Created != 2 || outcome.Counts.Fetched != 2 || outcome.Phase != PhaseDone {
		t.Fatalf("unexpected counts: %+v phase=%s", outcome.Counts, outcome.Phase)
	}
	if outcome.ID == "" {
		t.Fatalf("outcome should carry a run id")
	}
}

func TestIngestionDegradesFailingSource(t *testing.T) {
	t.Parallel()

	source := &fakeSource{
		results: map[string][]domain.RawListing{
			"1271": {rawListing("https://www.homegate.ch/rent/2", "CHF 2’100.–")},
		},
		errs: map[string]error{"1260": errors.New("result list container not found")},
	}
	store := storage.NewMemoryListingStore(fixedClock)

	outcome := newTestIngestion(source, store, &recordingSleeper{}, nil).Run(context.Background())

	if outcome.Status != domain.RunCompleted {
		t.Fatalf("a failing source must not fail the run: %+v", outcome)
	}
	if outcome.Counts.SourcesFailed != 1 || outcome.Counts.SourcesRun != 2 || outcome.Counts.Created != 1 {
		t.Fatalf("unexpected counts: %+v", outcome.Counts)
	}
}

func TestIngestionDeduplicatesAcrossSources(t *testing.T) {
	t.Parallel()

	source := &fakeSource{results: map[string][]domain.RawListing{
		"1260": {rawListing("https://www.homegate.ch/rent/7", "CHF 2’500.–")},
		"1271": {rawListing("https://www.homegate.ch/rent/7", "CHF 2’400.–")},
	}}
	store := storage.NewMemoryListingStore(fixedClock)

	outcome := newTestIngestion(source, store, &recordingSleeper{}, nil).Run(context.Background())

	if outcome.Counts.Unique != 1 || outcome.Counts.Created != 1 {
		t.Fatalf("unexpected counts: %+v", outcome.Counts)
	}
	if got, _ := store.Get("homegate_7"); got.Price != 2400 {
		t.Fatalf("later observation should win, got %d", got.Price)
	}
}

func TestIngestionRetiresBeforeFetching(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryListingStore(fixedClock)
	stale := listing("homegate_1", 2000)
	stale.LastSeenAt = testNow.Add(-10 * 24 * time.Hour)
	gone := listing("homegate_2", 2000)
	gone.LastSeenAt = testNow.Add(-10 * 24 * time.Hour)
	store.Put(stale)
	store.Put(gone)

	var retiredBeforeFetch bool
	source := &fakeSource{results: map[string][]domain.RawListing{
		"1260": {rawListing("https://www.homegate.ch/rent/1", "CHF 1’950.–")},
	}}
	source.onFetch = func(ports.SearchTarget) {
		got, _ := store.Get("homegate_2")
		retiredBeforeFetch = !got.IsActive
	}

	outcome := newTestIngestion(source, store, &recordingSleeper{}, nil).Run(context.Background())

	if !retiredBeforeFetch {
		t.Fatalf("retirement must happen before fetching")
	}
	if outcome.Counts.Retired != 2 || outcome.Counts.Updated != 1 {
		t.Fatalf("unexpected counts: %+v", outcome.Counts)
	}
	if got, _ := store.Get("homegate_1"); !got.IsActive {
		t.Fatalf("re-observed listing should be re-activated")
	}
	if got, _ := store.Get("homegate_2"); got.IsActive {
		t.Fatalf("unseen listing should stay retired")
	}
}

func TestIngestionFailsWhenStoreUnavailable(t *testing.T) {
	t.Parallel()

	store := &failingStore{ListingStore: storage.NewMemoryListingStore(fixedClock), retireErr: errUnavailable}
	source := &fakeSource{}

	outcome := newTestIngestion(source, store, &recordingSleeper{}, nil).Run(context.Background())

	if outcome.Status != domain.RunFailed || outcome.Phase != PhaseRetiringStale {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if !errors.Is(outcome.Err, ports.ErrStoreUnavailable) || outcome.Error == "" {
		t.Fatalf("failed outcome should carry the cause: %+v", outcome)
	}
	if len(source.calls) != 0 {
		t.Fatalf("no source should be fetched after a fatal error")
	}
}

func TestIngestionFailsDuringReconcile(t *testing.T) {
	t.Parallel()

	mem := storage.NewMemoryListingStore(fixedClock)
	store := &failingStore{ListingStore: mem, upsertErr: map[string]error{"homegate_2": errUnavailable}}
	source := &fakeSource{results: map[string][]domain.RawListing{
		"1260": {
			rawListing("https://www.homegate.ch/rent/1", "CHF 2’000.–"),
			rawListing("https://www.homegate.ch/rent/2", "CHF 2’000.–"),
		},
	}}

	outcome := newTestIngestion(source, store, &recordingSleeper{}, nil).Run(context.Background())

	if outcome.Status != domain.RunFailed || outcome.Phase != PhaseReconciling {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if _, ok := mem.Get("homegate_1"); !ok {
		t.Fatalf("rows applied before the failure stand")
	}
}

func TestIngestionCompletedWithZeroResultsIsDistinct(t *testing.T) {
	t.Parallel()

	outcome := newTestIngestion(&fakeSource{}, storage.NewMemoryListingStore(fixedClock), &recordingSleeper{}, nil).Run(context.Background())

	if outcome.Status != domain.RunCompleted || outcome.Err != nil {
		t.Fatalf("empty run should complete: %+v", outcome)
	}
	if outcome.Counts.Created != 0 || outcome.Counts.Fetched != 0 {
		t.Fatalf("unexpected counts: %+v", outcome.Counts)
	}
}

func TestIngestionSkipsWhenAlreadyRunning(t *testing.T) {
	t.Parallel()

	guard := NewRunGuard()
	release, err := guard.Acquire(domain.RunIngestion)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer release()

	source := &fakeSource{}
	outcome := newTestIngestion(source, storage.NewMemoryListingStore(fixedClock), &recordingSleeper{}, guard).Run(context.Background())

	if outcome.Status != domain.RunSkipped || !errors.Is(outcome.Err, ports.ErrRunInProgress) {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if len(source.calls) != 0 {
		t.Fatalf("skipped run must not fetch")
	}
}

func TestIngestionStopsOnCancellationBetweenSources(t *testing.T) {
	t.Parallel()

	source := &fakeSource{results: map[string][]domain.RawListing{
		"1260": {rawListing("https://www.homegate.ch/rent/1", "CHF 2’000.–")},
	}}
	sleeper := &recordingSleeper{err: context.Canceled}
	store := storage.NewMemoryListingStore(fixedClock)

	outcome := newTestIngestion(source, store, sleeper, nil).Run(context.Background())

	if outcome.Status != domain.RunFailed || !errors.Is(outcome.Err, context.Canceled) {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if len(source.calls) != 1 {
		t.Fatalf("second source must not be fetched, calls=%v", source.calls)
	}
	if len(store.All()) != 0 {
		t.Fatalf("nothing should be reconciled after cancellation")
	}
}

func TestIngestionGeocodesMissingCoordinates(t *testing.T) {
	t.Parallel()

	source := &fakeSource{results: map[string][]domain.RawListing{
		"1260": {rawListing("https://www.homegate.ch/rent/1", "CHF 2’000.–")},
	}}
	geocoder := &fakeGeocoder{points: map[string]domain.GeoPoint{"1260": {Lat: 46.38, Lng: 6.24}}}
	store := storage.NewMemoryListingStore(fixedClock)

	ingestion := NewIngestion(IngestionDeps{
		Source:   source,
		Store:    store,
		Geocoder: geocoder,
		Sleeper:  &recordingSleeper{},
		Clock:    fixedClock,
	}, IngestionPolicy{Targets: twoTargets()[:1], AllowSyntheticIDs: true})

	outcome := ingestion.Run(context.Background())
	if outcome.Counts.Geocoded != 1 {
		t.Fatalf("unexpected counts: %+v", outcome.Counts)
	}
	got, _ := store.Get("homegate_1")
	if got.Latitude == nil || *got.Latitude != 46.38 {
		t.Fatalf("coordinates not stored: %+v", got)
	}
}
