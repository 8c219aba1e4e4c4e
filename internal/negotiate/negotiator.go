// Package negotiate performs the two-call HTTP handshake that turns a chat
// intent into a room identity and an access token.
package negotiate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/nitish-vaani/codeyoung/internal/config"
	"github.com/nitish-vaani/codeyoung/internal/domain"
	"github.com/nitish-vaani/codeyoung/pkg/log"
)

// Negotiator creates chat sessions and mints access tokens against the
// backend. It performs no retries; the caller decides whether to retry.
type Negotiator struct {
	cfg    config.BackendConfig
	client *http.Client
}

func New(cfg config.BackendConfig) *Negotiator {
	return &Negotiator{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// CreateSessionRequest is the trigger-chat payload.
type CreateSessionRequest struct {
	UserID    string `json:"user_id"`
	AgentID   string `json:"agent_id"`
	Name      string `json:"name"`
	AgentName string `json:"agent_name"`
	SessionID string `json:"session_id"`
}

type createSessionResponse struct {
	Success bool   `json:"success"`
	RoomID  string `json:"room_id"`
	// The backend reports failure reasons in either field depending on the
	// code path; error takes precedence.
	Error   string `json:"error"`
	Message string `json:"message"`
}

// reason returns the server-reported failure reason, empty when none.
func (r createSessionResponse) reason() string {
	if r.Error != "" {
		return r.Error
	}
	return r.Message
}

type fetchTokenRequest struct {
	RoomID   string `json:"room_id"`
	UserName string `json:"user_name"`
}

type fetchTokenResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

// CreateSession asks the backend to create a chat session and returns the
// negotiated room id.
func (n *Negotiator) CreateSession(ctx context.Context, req CreateSessionRequest) (string, error) {
	var resp createSessionResponse
	if err := n.post(ctx, n.cfg.TriggerChatURL, req, &resp); err != nil {
		return "", err
	}

	if !resp.Success {
		reason := resp.reason()
		if reason == "" {
			reason = "failed to create chat session"
		}
		return "", &domain.ProtocolError{Endpoint: n.cfg.TriggerChatURL, Reason: reason}
	}
	if resp.RoomID == "" {
		return "", &domain.ProtocolError{Endpoint: n.cfg.TriggerChatURL, Reason: "response missing room_id"}
	}

	log.Ctx(ctx).Info().
		Str(log.FieldUserID, req.UserID).
		Str(log.FieldRoomID, resp.RoomID).
		Msg("chat session created")
	return resp.RoomID, nil
}

// FetchToken mints an access token for the given room.
func (n *Negotiator) FetchToken(ctx context.Context, roomID, userName string) (string, error) {
	var resp fetchTokenResponse
	req := fetchTokenRequest{RoomID: roomID, UserName: userName}
	if err := n.post(ctx, n.cfg.ChatTokenURL, req, &resp); err != nil {
		return "", err
	}

	if !resp.Success {
		return "", &domain.ProtocolError{Endpoint: n.cfg.ChatTokenURL, Reason: "failed to get access token"}
	}
	if resp.Token == "" {
		return "", &domain.ProtocolError{Endpoint: n.cfg.ChatTokenURL, Reason: "response missing token"}
	}

	log.Ctx(ctx).Info().Str(log.FieldRoomID, roomID).Msg("access token received")
	return resp.Token, nil
}

func (n *Negotiator) post(ctx context.Context, url string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach %s: %w", url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Ctx(ctx).Warn().
			Int(log.FieldStatus, resp.StatusCode).
			Str("url", url).
			Msg("negotiation call failed")
		return &domain.NegotiationError{
			Endpoint:   url,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &domain.ProtocolError{Endpoint: url, Reason: fmt.Sprintf("unparsable response body: %v", err)}
	}
	return nil
}
