package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// CDNStorage uploads to an HTTP image host:
//
//	POST   {endpoint}            multipart "file" -> {"url": "..."}
//	DELETE {endpoint}?url={url}
type CDNStorage struct {
	endpoint   string
	apiKey     string
	publicBase string
	hc         *http.Client
}

func NewCDNStorage(endpoint, apiKey, publicBase string) *CDNStorage {
	return &CDNStorage{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		publicBase: strings.TrimRight(publicBase, "/"),
		hc:         &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *CDNStorage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", ObjectKey(name))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	s.authorize(req)

	res, err := s.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("cdn upload: %w", err)
	}
	defer res.Body.Close()
	raw, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", fmt.Errorf("cdn upload failed: %s (%d)", strings.TrimSpace(string(raw)), res.StatusCode)
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &out); err != nil || out.URL == "" {
		return "", fmt.Errorf("cdn upload: unexpected response %q", string(raw))
	}
	return out.URL, nil
}

func (s *CDNStorage) Delete(ctx context.Context, objectURL string) error {
	if s.publicBase != "" && !strings.HasPrefix(objectURL, s.publicBase+"/") {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.endpoint+"?url="+url.QueryEscape(objectURL), nil)
	if err != nil {
		return err
	}
	s.authorize(req)
	res, err := s.hc.Do(req)
	if err != nil {
		return fmt.Errorf("cdn delete: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		raw, _ := io.ReadAll(res.Body)
		return fmt.Errorf("cdn delete failed: %s (%d)", strings.TrimSpace(string(raw)), res.StatusCode)
	}
	return nil
}

func (s *CDNStorage) authorize(req *http.Request) {
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
}
