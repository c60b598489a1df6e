// Package api is the HTTP client for the canvas persistence service.
// The server itself is an external collaborator; this package only
// speaks its REST contract.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"CanvasBoard/internal/element"
	"CanvasBoard/internal/session"
)

// Client calls the canvas REST endpoints with the session's bearer
// token. Load and the canvas-management calls surface their errors;
// Update is best-effort because it fires on every gesture end and a
// dropped save is repaired by the next one.
type Client struct {
	baseURL string
	sess    *session.Session
	http    *http.Client
}

// NewClient returns a client rooted at baseURL, e.g. "http://host:8080".
func NewClient(baseURL string, sess *session.Session) *Client {
	return &Client{
		baseURL: baseURL,
		sess:    sess,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type loadResponse struct {
	Elements []element.Element `json:"elements"`
}

type updateRequest struct {
	CanvasID string            `json:"canvasId"`
	Elements []element.Element `json:"elements"`
}

type createResponse struct {
	CanvasID string `json:"canvasId"`
}

// Load fetches the persisted elements of a canvas. Entries without a
// recognized type are dropped before they reach the caller.
func (c *Client) Load(ctx context.Context, canvasID string) ([]element.Element, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/canvases/load/"+canvasID, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("load canvas %s: %w", canvasID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("load canvas %s: unexpected status %d", canvasID, resp.StatusCode)
	}
	var body loadResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("load canvas %s: decode: %w", canvasID, err)
	}
	return element.FilterValid(body.Elements), nil
}

// Update persists the full element collection. Failures are logged and
// swallowed; update traffic is too frequent to make every failure
// user-facing.
func (c *Client) Update(ctx context.Context, canvasID string, els []element.Element) {
	payload, err := json.Marshal(updateRequest{CanvasID: canvasID, Elements: element.FilterValid(els)})
	if err != nil {
		log.Printf("[api] update %s: marshal: %v", canvasID, err)
		return
	}
	req, err := c.newRequest(ctx, http.MethodPut, "/canvases/update", bytes.NewReader(payload))
	if err != nil {
		log.Printf("[api] update %s: %v", canvasID, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("[api] update %s: %v", canvasID, err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("[api] update %s: unexpected status %d", canvasID, resp.StatusCode)
	}
}

// Create makes a new empty canvas and returns its identity.
func (c *Client) Create(ctx context.Context) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/canvases/create", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("create canvas: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("create canvas: unexpected status %d", resp.StatusCode)
	}
	var body createResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("create canvas: decode: %w", err)
	}
	return body.CanvasID, nil
}

// Delete removes a canvas.
func (c *Client) Delete(ctx context.Context, canvasID string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/canvases/"+canvasID, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("delete canvas %s: %w", canvasID, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("delete canvas %s: unexpected status %d", canvasID, resp.StatusCode)
	}
	return nil
}

// Share grants another user access to a canvas.
func (c *Client) Share(ctx context.Context, canvasID, email string) error {
	payload, err := json.Marshal(map[string]string{"canvasId": canvasID, "email": email})
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/canvases/share", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("share canvas %s: %w", canvasID, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("share canvas %s: unexpected status %d", canvasID, resp.StatusCode)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body *bytes.Reader) (*http.Request, error) {
	var req *http.Request
	var err error
	if body == nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	}
	if err != nil {
		return nil, err
	}
	if token := c.sess.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}
