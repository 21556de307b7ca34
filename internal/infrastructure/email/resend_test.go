package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"HousingAlerts/internal/config"
	"HousingAlerts/internal/domain"
)

func TestSendPostsJSON(t *testing.T) {
	t.Parallel()

	var auth string
	var payload struct {
		From    string   `json:"from"`
		To      []string `json:"to"`
		Subject string   `json:"subject"`
		HTML    string   `json:"html"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{"id":"49a3999c-0ce1-4ea6-ab68-afcd6dc2e794"}`))
	}))
	defer server.Close()

	client := NewResendClient(config.ResendConfig{
		Endpoint: server.URL,
		APIKey:   "re_test",
		From:     "Housing Alerts <alerts@resend.dev>",
	})

	err := client.Send(context.Background(), "user@example.ch", domain.Message{
		Subject: "🏠 1 nouveaux logements - Nyon",
		HTML:    "<p>Attique</p>",
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	if auth != "Bearer re_test" {
		t.Fatalf("unexpected auth header: %s", auth)
	}
	if len(payload.To) != 1 || payload.To[0] != "user@example.ch" {
		t.Fatalf("unexpected recipients: %v", payload.To)
	}
	if payload.Subject != "🏠 1 nouveaux logements - Nyon" || payload.HTML != "<p>Attique</p>" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestSendSurfacesProviderError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid from address"}`))
	}))
	defer server.Close()

	client := NewResendClient(config.ResendConfig{Endpoint: server.URL, APIKey: "re_test", From: "x"})
	err := client.Send(context.Background(), "user@example.ch", domain.Message{})
	if err == nil || !strings.Contains(err.Error(), "invalid from address") {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestSendRequiresConfiguration(t *testing.T) {
	t.Parallel()

	client := NewResendClient(config.ResendConfig{Endpoint: "http://localhost", From: "x"})
	if err := client.Send(context.Background(), "user@example.ch", domain.Message{}); err == nil {
		t.Fatalf("expected error without api key")
	}
}
