package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the video-conferencing provider's REST API. One instance is
// built at process start and shared across requests.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

type createRoomRequest struct {
	Name string `json:"name"`
}

type createRoomResponse struct {
	ID string `json:"id"`
}

type issueCodeRequest struct {
	Role string `json:"role"`
}

type issueCodeResponse struct {
	Code string `json:"code"`
}

// ProvisionRoom creates a room named by seed and requests a guest join code
// for it. Either sub-step failing fails the whole provisioning, so callers
// never end up with a half-provisioned room.
func (c *Client) ProvisionRoom(ctx context.Context, seed string) (string, error) {
	room, err := c.createRoom(ctx, seed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRoomCreateFailed, err)
	}

	code, err := c.issueGuestCode(ctx, room.ID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCodeIssueFailed, err)
	}
	if code == "" {
		return "", ErrEmptyJoinCode
	}

	return code, nil
}

func (c *Client) createRoom(ctx context.Context, name string) (*createRoomResponse, error) {
	var resp createRoomResponse
	if err := c.post(ctx, "/rooms", createRoomRequest{Name: name}, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("provider returned no room id")
	}
	return &resp, nil
}

func (c *Client) issueGuestCode(ctx context.Context, roomID string) (string, error) {
	var resp issueCodeResponse
	path := fmt.Sprintf("/rooms/%s/codes", roomID)
	if err := c.post(ctx, path, issueCodeRequest{Role: "guest"}, &resp); err != nil {
		return "", err
	}
	return resp.Code, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call provider: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("provider status %d: %s", res.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}

	return nil
}
