package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client talks to the media service that renders QR code images. The service
// stores the rendered file and hands back its id; the image is then served
// from the media host.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type renderRequest struct {
	Data     string `json:"data"`
	FileName string `json:"file_name"`
}

type renderResponse struct {
	FileID string `json:"file_id"`
}

// RenderQr asks the media service to render data as a QR image and returns
// the URL the image is served from.
func (c *Client) RenderQr(ctx context.Context, data, fileName string) (string, error) {
	body, err := json.Marshal(renderRequest{Data: data, FileName: fileName})
	if err != nil {
		return "", fmt.Errorf("failed to encode render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate/qrcode", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("media service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("media service returned status %d", resp.StatusCode)
	}

	var out renderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode render response: %w", err)
	}
	if out.FileID == "" {
		return "", fmt.Errorf("media service returned no file id")
	}
	return c.baseURL + "/media/" + out.FileID, nil
}
