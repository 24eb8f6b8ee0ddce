// Package media uploads product images to the media host.
package media

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/rakhimart/internal/obs"
	"github.com/noah-isme/rakhimart/internal/resilience"
)

// ErrNotConfigured is returned when credentials are missing.
var ErrNotConfigured = errors.New("media: uploader not configured")

// File is an image received from an admin upload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// DataURI renders the file as a base64 data URI.
func (f File) DataURI() string {
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(f.Data)
}

// Config holds the media host credentials.
type Config struct {
	BaseURL   string
	CloudName string
	APIKey    string
	APISecret string
}

// Uploader performs signed uploads against the Cloudinary upload API.
type Uploader struct {
	cfg    Config
	client resilience.HTTPClient
	logger zerolog.Logger
	now    func() time.Time
}

// NewUploader constructs an Uploader that sends requests through client.
func NewUploader(cfg Config, client resilience.HTTPClient, logger zerolog.Logger) *Uploader {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.cloudinary.com"
	}
	return &Uploader{cfg: cfg, client: client, logger: logger, now: time.Now}
}

// Sign returns the upload signature for the given timestamp.
func Sign(timestamp int64, secret string) string {
	sum := sha1.Sum([]byte("timestamp=" + strconv.FormatInt(timestamp, 10) + secret))
	return hex.EncodeToString(sum[:])
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Upload stores the file and returns its secure URL.
func (u *Uploader) Upload(ctx context.Context, file File) (string, error) {
	if u == nil || u.cfg.CloudName == "" || u.cfg.APIKey == "" || u.cfg.APISecret == "" {
		return "", ErrNotConfigured
	}
	secureURL, err := u.upload(ctx, file)
	if err != nil {
		obs.IncCounter(obs.MediaUploadsTotal, "failed")
		u.logger.Warn().Err(err).Str("file", file.Name).Msg("image upload failed")
		return "", err
	}
	obs.IncCounter(obs.MediaUploadsTotal, "ok")
	return secureURL, nil
}

func (u *Uploader) upload(ctx context.Context, file File) (string, error) {
	ts := u.now().Unix()
	form := url.Values{}
	form.Set("file", file.DataURI())
	form.Set("api_key", u.cfg.APIKey)
	form.Set("timestamp", strconv.FormatInt(ts, 10))
	form.Set("signature", Sign(ts, u.cfg.APISecret))

	endpoint := u.cfg.BaseURL + "/v1_1/" + url.PathEscape(u.cfg.CloudName) + "/image/upload"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := u.client.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", file.Name, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read upload response: %w", err)
	}
	var out uploadResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode upload response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 300 {
		msg := resp.Status
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return "", fmt.Errorf("upload %s rejected: %s", file.Name, msg)
	}
	if out.SecureURL == "" {
		return "", fmt.Errorf("upload %s: response missing secure_url", file.Name)
	}
	return out.SecureURL, nil
}
