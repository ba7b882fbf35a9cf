// Package upload talks to the external media hosting endpoint. The
// upload is phase one of the attachment pipeline: only a response with a
// durable reference URL lets phase two (the message send) happen.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"chat-client/errors"
)

// CloudinaryClient posts attachments as multipart form data, the way the
// hosted upload endpoints expect: a "file" part plus an unsigned
// "upload_preset" field.
type CloudinaryClient struct {
	endpoint string
	preset   string
	http     *http.Client
	log      *slog.Logger
}

func NewCloudinaryClient(endpoint, preset string, timeout time.Duration, log *slog.Logger) CloudinaryClient {
	return CloudinaryClient{
		endpoint: endpoint,
		preset:   preset,
		http:     &http.Client{Timeout: timeout},
		log:      log,
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
}

// Upload stores the attachment and returns its durable reference URL.
// Every failure mode (empty input, transport, non-2xx, malformed
// response) aborts with an upload error; nothing is retried.
func (c CloudinaryClient) Upload(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.ErrEmptyUpload
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "attachment")
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrUpload, err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrUpload, err)
	}
	if err := writer.WriteField("upload_preset", c.preset); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrUpload, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrUpload, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrUpload, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrUpload, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d", errors.ErrUpload, resp.StatusCode)
	}

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", errors.ErrUpload, err)
	}
	if parsed.SecureURL == "" {
		return "", errors.ErrMissingMediaURL
	}

	c.log.Debug("Attachment uploaded", "bytes", len(data), "url", parsed.SecureURL)
	return parsed.SecureURL, nil
}
