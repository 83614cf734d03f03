package aggregator

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

const (
	UploadPath    = "/api/audits/upload"
	UploadTimeout = 30 * time.Second
)

// Uploader posts reports to the CodeNest API.
type Uploader struct {
	baseURL string
	client  *http.Client
}

func NewUploader(baseURL string, client *http.Client) *Uploader {
	if client == nil {
		client = &http.Client{Timeout: UploadTimeout}
	}
	return &Uploader{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (u *Uploader) Upload(ctx context.Context, r *Report) (int, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return 0, fmt.Errorf("encode report: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+UploadPath, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("upload report: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return resp.StatusCode, fmt.Errorf("upload report: unexpected status %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}
