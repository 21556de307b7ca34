package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"HousingAlerts/internal/config"
	"HousingAlerts/internal/domain"
	"HousingAlerts/internal/ports"
)

func TestApplicationDispatchWithoutProviderFails(t *testing.T) {
	cfg := config.Config{}
	cfg.Delivery.Provider = "resend"

	application, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer application.Close()

	err = application.Dispatch(context.Background(), domain.FrequencyDaily)
	if !errors.Is(err, ports.ErrNoDeliverer) {
		t.Fatalf("expected ErrNoDeliverer, got %v", err)
	}
}

func TestNewDelivererSelectsProvider(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	cases := []struct {
		name string
		cfg  config.DeliveryConfig
		want bool
	}{
		{"resend", config.DeliveryConfig{Provider: "resend", Resend: config.ResendConfig{APIKey: "re_test"}}, true},
		{"resend without key", config.DeliveryConfig{Provider: "resend"}, false},
		{"telegram", config.DeliveryConfig{Provider: "telegram", Telegram: config.TelegramConfig{BotToken: "123:abc"}}, true},
		{"unknown", config.DeliveryConfig{Provider: "pigeon", Resend: config.ResendConfig{APIKey: "re_test"}}, false},
	}
	for _, tc := range cases {
		if got := newDeliverer(tc.cfg, log) != nil; got != tc.want {
			t.Fatalf("%s: deliverer configured = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestTargetsCopiesConfig(t *testing.T) {
	got := targets([]config.TargetConfig{{Source: "homegate", Location: "1260", RadiusKm: 10, MaxPrice: 3500, MinRooms: 4}})
	want := ports.SearchTarget{Source: "homegate", Location: "1260", RadiusKm: 10, MaxPrice: 3500, MinRooms: 4}
	if len(got) != 1 || got[0] != want {
		t.Fatalf("unexpected targets: %+v", got)
	}
}
