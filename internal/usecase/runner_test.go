package usecase

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"HousingAlerts/internal/domain"
	"HousingAlerts/internal/infrastructure/storage"
	"HousingAlerts/internal/logging"
)

func TestRunnerRecordsAndLogsOutcomes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logging.NewWithWriter(&buf, "debug", "text")

	store := storage.NewMemoryListingStore(fixedClock)
	ingestion := NewIngestion(IngestionDeps{Source: &fakeSource{}, Store: store, Sleeper: &recordingSleeper{}, Clock: fixedClock}, IngestionPolicy{})
	dispatcher := NewDispatcher(DispatchDeps{Clock: fixedClock}, DispatchPolicy{})
	runner := NewRunner(ingestion, dispatcher, nil, log)

	if o := runner.Ingest(context.Background()); o.Status != domain.RunCompleted {
		t.Fatalf("unexpected ingest outcome: %+v", o)
	}
	if o := runner.Dispatch(context.Background(), domain.FrequencyWeekly); o.Status != domain.RunFailed {
		t.Fatalf("dispatch without deliverer should fail: %+v", o)
	}

	recent := runner.Recent(10)
	if len(recent) != 2 || recent[0].Kind != domain.RunDispatchWeekly || recent[1].Kind != domain.RunIngestion {
		t.Fatalf("unexpected history: %+v", recent)
	}

	out := buf.String()
	if !strings.Contains(out, "run completed") || !strings.Contains(out, "run failed") {
		t.Fatalf("expected both outcomes logged, got %s", out)
	}
}
