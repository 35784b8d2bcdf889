package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/voyago/tripsync/internal/credentials"
	"github.com/voyago/tripsync/internal/gateway"
)

func TestClient(t *testing.T) {
	ctx := context.Background()

	t.Run("create sends bearer token and returns server id", func(t *testing.T) {
		var gotAuth, gotPath string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotPath = r.URL.Path

			var body gateway.Trip
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("Failed to decode body: %v", err)
			}
			if body.Name != "Lisbon" {
				t.Errorf("Name = %s, want Lisbon", body.Name)
			}
			if body.ID != "" {
				t.Errorf("Create payload must not carry an id, got %s", body.ID)
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"id": "srv-42"})
		}))
		defer srv.Close()

		client := New(srv.URL, credentials.NewBearerSource("token-abc"))
		res := client.CreateTrip(ctx, gateway.Trip{Name: "Lisbon"})

		if !res.OK {
			t.Fatalf("CreateTrip failed: %s", res.Err)
		}
		if res.ServerID != "srv-42" {
			t.Errorf("ServerID = %s, want srv-42", res.ServerID)
		}
		if gotAuth != "Bearer token-abc" {
			t.Errorf("Authorization = %q, want Bearer token-abc", gotAuth)
		}
		if gotPath != "/api/v1/trips" {
			t.Errorf("Path = %s, want /api/v1/trips", gotPath)
		}
	})

	t.Run("server rejection becomes a failed result", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "amount must be positive", http.StatusUnprocessableEntity)
		}))
		defer srv.Close()

		client := New(srv.URL, credentials.NewBearerSource("token-abc"))
		res := client.CreateExpense(ctx, gateway.Expense{TripID: "srv-1", Description: "Bad"})

		if res.OK {
			t.Fatal("Expected rejection")
		}
		if res.Err == "" {
			t.Error("Expected an error description")
		}
	})

	t.Run("missing id in create response is a failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("{}"))
		}))
		defer srv.Close()

		client := New(srv.URL, credentials.NewBearerSource("token-abc"))
		if res := client.CreateTrip(ctx, gateway.Trip{Name: "No ID"}); res.OK {
			t.Error("Expected failure when the server returns no id")
		}
	})

	t.Run("list decodes child collections under their parent", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/v1/trips/srv-1/participants" {
				t.Errorf("Path = %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode([]gateway.Participant{
				{ID: "srv-p1", TripID: "srv-1", Name: "Alice"},
				{ID: "srv-p2", TripID: "srv-1", Name: "Bob"},
			})
		}))
		defer srv.Close()

		client := New(srv.URL, credentials.NewBearerSource("token-abc"))
		res := client.ListParticipants(ctx, "srv-1")

		if !res.OK {
			t.Fatalf("ListParticipants failed: %s", res.Err)
		}
		if len(res.Participants) != 2 || res.Participants[1].Name != "Bob" {
			t.Errorf("Unexpected participants: %+v", res.Participants)
		}
	})

	t.Run("transport failure becomes a failed result", func(t *testing.T) {
		client := New("http://127.0.0.1:1", credentials.NewBearerSource("token-abc"))
		if res := client.ListTrips(ctx); res.OK {
			t.Error("Expected transport failure")
		}
	})

	t.Run("missing credential fails before the network", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
		}))
		defer srv.Close()

		client := New(srv.URL, credentials.NewBearerSource(""))
		if res := client.CreateTrip(ctx, gateway.Trip{Name: "No Auth"}); res.OK {
			t.Error("Expected failure without a credential")
		}
		if calls != 0 {
			t.Errorf("Expected no requests, got %d", calls)
		}
	})
}
