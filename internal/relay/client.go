package relay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/troupekit/troupe/internal/transcript"
)

const (
	defaultServerURL = "http://127.0.0.1:37888"
	httpTimeout      = 5 * time.Second
)

// Client is the thin HTTP client out-of-scope collaborators (chat relays,
// activity handlers) embed to feed the engine's write surface.
type Client struct {
	http      *http.Client
	serverURL string
}

// NewClient creates a relay client.
// Respects TROUPE_URL env var, falls back to http://127.0.0.1:37888.
func NewClient() *Client {
	url := os.Getenv("TROUPE_URL")
	if url == "" {
		url = defaultServerURL
	}
	return &Client{
		http:      &http.Client{Timeout: httpTimeout},
		serverURL: url,
	}
}

// RecordEvent posts an interaction event between two characters.
func (c *Client) RecordEvent(sourceID, targetID, eventType string, intensity, affinityDelta float64, context string) error {
	payload := map[string]any{
		"source_id":      sourceID,
		"target_id":      targetID,
		"event_type":     eventType,
		"intensity":      intensity,
		"affinity_delta": affinityDelta,
		"context":        context,
	}
	_, err := c.post("/api/events", payload)
	return err
}

// SubmitSweep sends a dialogue window for narrative evaluation.
func (c *Client) SubmitSweep(msgs []transcript.Message) error {
	_, err := c.post("/api/sweep", map[string]any{"messages": msgs})
	return err
}

// Healthy checks if the server is reachable.
func (c *Client) Healthy() bool {
	resp, err := c.http.Get(c.serverURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *Client) post(path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", path, err)
	}

	resp, err := c.http.Post(c.serverURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response %s: %w", path, err)
	}
	if resp.StatusCode >= 400 {
		return data, fmt.Errorf("POST %s: status %d: %s", path, resp.StatusCode, data)
	}
	return data, nil
}
