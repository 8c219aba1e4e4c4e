package negotiate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nitish-vaani/codeyoung/internal/config"
	"github.com/nitish-vaani/codeyoung/internal/domain"
)

func newTestNegotiator(t *testing.T, handler http.HandlerFunc) *Negotiator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(config.BackendConfig{
		TriggerChatURL: srv.URL + "/api/trigger-chat/",
		ChatTokenURL:   srv.URL + "/api/get-chat-token/",
		RequestTimeout: 5 * time.Second,
	})
}

func TestCreateSessionSuccess(t *testing.T) {
	t.Parallel()

	var got CreateSessionRequest
	n := newTestNegotiator(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true, "room_id": "r1"})
	})

	roomID, err := n.CreateSession(context.Background(), CreateSessionRequest{
		UserID:    "bob",
		AgentID:   "3",
		Name:      "Bob",
		AgentName: "Codeyoung Agent",
		SessionID: "bob_a1b2c3d4_20250314",
	})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if roomID != "r1" {
		t.Fatalf("unexpected room id %q", roomID)
	}
	if got.UserID != "bob" || got.AgentID != "3" || got.SessionID != "bob_a1b2c3d4_20250314" {
		t.Fatalf("unexpected request payload: %+v", got)
	}
}

func TestCreateSessionServerReportedFailure(t *testing.T) {
	t.Parallel()

	n := newTestNegotiator(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "agent busy"})
	})

	_, err := n.CreateSession(context.Background(), CreateSessionRequest{UserID: "bob"})
	var perr *domain.ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
	if perr.Reason != "agent busy" {
		t.Fatalf("expected server message to be carried, got %q", perr.Reason)
	}
}

func TestCreateSessionServerReportedError(t *testing.T) {
	t.Parallel()

	n := newTestNegotiator(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "agent busy"})
	})

	_, err := n.CreateSession(context.Background(), CreateSessionRequest{UserID: "bob"})
	var perr *domain.ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
	if perr.Reason != "agent busy" {
		t.Fatalf("expected server error to be carried, got %q", perr.Reason)
	}
}

func TestCreateSessionErrorFieldWinsOverMessage(t *testing.T) {
	t.Parallel()

	n := newTestNegotiator(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": false, "error": "agent busy", "message": "request handled",
		})
	})

	_, err := n.CreateSession(context.Background(), CreateSessionRequest{UserID: "bob"})
	var perr *domain.ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
	if perr.Reason != "agent busy" {
		t.Fatalf("error field should take precedence, got %q", perr.Reason)
	}
}

func TestCreateSessionHTTPFailure(t *testing.T) {
	t.Parallel()

	n := newTestNegotiator(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	})

	_, err := n.CreateSession(context.Background(), CreateSessionRequest{UserID: "bob"})
	var nerr *domain.NegotiationError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected NegotiationError, got %v", err)
	}
	if nerr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", nerr.StatusCode)
	}
	if nerr.Body == "" {
		t.Fatal("expected response body to be carried for diagnostics")
	}
}

func TestCreateSessionMissingRoomID(t *testing.T) {
	t.Parallel()

	n := newTestNegotiator(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	})

	_, err := n.CreateSession(context.Background(), CreateSessionRequest{UserID: "bob"})
	var perr *domain.ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProtocolError for missing room_id, got %v", err)
	}
}

func TestFetchTokenSuccess(t *testing.T) {
	t.Parallel()

	n := newTestNegotiator(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req["room_id"] != "r1" || req["user_name"] != "Bob" {
			t.Errorf("unexpected token request: %v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true, "token": "t1"})
	})

	token, err := n.FetchToken(context.Background(), "r1", "Bob")
	if err != nil {
		t.Fatalf("FetchToken failed: %v", err)
	}
	if token != "t1" {
		t.Fatalf("unexpected token %q", token)
	}
}

func TestFetchTokenMissingToken(t *testing.T) {
	t.Parallel()

	n := newTestNegotiator(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	})

	_, err := n.FetchToken(context.Background(), "r1", "Bob")
	var perr *domain.ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProtocolError for missing token, got %v", err)
	}
}
