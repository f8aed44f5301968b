package advisor

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"motocusto/internal/ports"
)

func chatServer(t *testing.T, status int, content string, bodies chan<- string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if bodies != nil {
			bodies <- string(body)
		}
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
			return
		}
		_, _ = w.Write([]byte(`{
			"id":"chatcmpl-test",
			"object":"chat.completion",
			"created":1700000000,
			"model":"gpt-4o-mini",
			"choices":[{"index":0,"message":{"role":"assistant","content":` + content + `},"finish_reason":"stop"}]
		}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

var sampleEntries = []ports.AdvisorEntry{
	{Date: "2025-05-05", DistanceKm: 120, FoodExpense: 25, OtherExpenses: 0, GrossEarnings: 240},
	{Date: "2025-05-06", DistanceKm: 80.5, FoodExpense: 18, OtherExpenses: 4, GrossEarnings: 150},
}

func TestClient_Suggest(t *testing.T) {
	bodies := make(chan string, 1)
	srv := chatServer(t, http.StatusOK, `"{\"suggestions\":[\"Ride at lunch peak\",\" \",\"Cut idle km\"]}"`, bodies)

	c := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	got, err := c.Suggest(context.Background(), sampleEntries)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(got) != 2 || got[0] != "Ride at lunch peak" || got[1] != "Cut idle km" {
		t.Fatalf("unexpected suggestions %q", got)
	}

	body := <-bodies
	if !strings.Contains(body, `"model":"gpt-4o-mini"`) {
		t.Errorf("request body missing default model: %s", body)
	}
	if !strings.Contains(body, "2025-05-06") || !strings.Contains(body, "80.5 km") {
		t.Errorf("request body missing entries: %s", body)
	}
}

func TestClient_SuggestUpstreamError(t *testing.T) {
	srv := chatServer(t, http.StatusTooManyRequests, "", nil)

	c := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	if _, err := c.Suggest(context.Background(), sampleEntries); err == nil {
		t.Fatal("expected error from upstream failure")
	}
}

func TestParseSuggestions(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
		wantErr bool
	}{
		{"plain", `{"suggestions":["a","b"]}`, []string{"a", "b"}, false},
		{"fenced", "```json\n{\"suggestions\":[\"a\"]}\n```", []string{"a"}, false},
		{"empty list", `{"suggestions":[]}`, []string{}, false},
		{"not json", `Try riding more`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSuggestions(tt.content)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %q, want %q", got, tt.want)
				}
			}
		})
	}
}

func TestDisabled(t *testing.T) {
	if _, err := (Disabled{}).Suggest(context.Background(), sampleEntries); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}
