package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/pantrychef/recipegen/internal/httpclient"
)

// Client talks to Supabase storage and the stored_images table.
type Client struct {
	supabaseURL string
	serviceKey  string
	httpClient  *http.Client
}

func NewClient(supabaseURL, serviceKey string) *Client {
	return &Client{
		supabaseURL: strings.TrimSuffix(supabaseURL, "/"),
		serviceKey:  serviceKey,
		httpClient:  httpclient.InstrumentedClient,
	}
}

func (c *Client) UploadImage(ctx context.Context, bucket, objectPath string, data []byte, contentType string) (string, error) {
	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.supabaseURL, bucket, objectPath)

	req, err := http.NewRequestWithContext(httpclient.WithProvider(ctx, "Supabase"), http.MethodPost, uploadURL, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: %s", ErrUploadFailed, string(body))
	}

	return c.GetPublicURL(bucket, objectPath), nil
}

func (c *Client) DeleteImage(ctx context.Context, bucket, objectPath string) error {
	deleteURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.supabaseURL, bucket, objectPath)

	req, err := http.NewRequestWithContext(httpclient.WithProvider(ctx, "Supabase"), http.MethodDelete, deleteURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusNotFound {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to delete image: %s", string(body))
	}
	return nil
}

func (c *Client) GetPublicURL(bucket, objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.supabaseURL, bucket, objectPath)
}

type storedImage struct {
	ID          string `json:"id"`
	ContentHash string `json:"content_hash"`
	StoragePath string `json:"storage_path"`
}

func (c *Client) GetImageByHash(ctx context.Context, hash string) (*storedImage, error) {
	q := url.Values{}
	q.Set("content_hash", "eq."+hash)
	q.Set("select", "*")
	reqURL := fmt.Sprintf("%s/rest/v1/stored_images?%s", c.supabaseURL, q.Encode())

	req, err := http.NewRequestWithContext(httpclient.WithProvider(ctx, "Supabase"), http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to query stored images: %s", string(body))
	}

	var results []storedImage
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return nil, nil
	}

	return &results[0], nil
}

func (c *Client) CreateStoredImageRecord(ctx context.Context, id, hash, storagePath string) error {
	reqURL := fmt.Sprintf("%s/rest/v1/stored_images", c.supabaseURL)

	data, err := json.Marshal(map[string]string{
		"id":           id,
		"content_hash": hash,
		"storage_path": storagePath,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(httpclient.WithProvider(ctx, "Supabase"), http.MethodPost, reqURL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to create image record: %s", string(body))
	}

	return nil
}

// SupabaseStore keeps uploads in a Supabase bucket. Objects are named after
// their content hash, so identical photos are stored once and a file name
// never points at another upload's bytes.
type SupabaseStore struct {
	client *Client
	bucket string
}

func NewSupabaseStore(client *Client, bucket string) *SupabaseStore {
	if bucket == "" {
		bucket = "uploads"
	}
	return &SupabaseStore{client: client, bucket: bucket}
}

func (s *SupabaseStore) Save(ctx context.Context, key, contentType string, data []byte) (string, error) {
	hash := HashContent(data)

	existing, err := s.client.GetImageByHash(ctx, hash)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return s.client.GetPublicURL(s.bucket, existing.StoragePath), nil
	}

	objectPath := hashedKey(key, hash)
	publicURL, err := s.client.UploadImage(ctx, s.bucket, objectPath, data, contentType)
	if err != nil {
		return "", err
	}

	if err := s.client.CreateStoredImageRecord(ctx, uuid.NewString(), hash, objectPath); err != nil {
		return "", err
	}

	return publicURL, nil
}

// hashedKey names an object by hash, keeping the extension of the client's file name.
func hashedKey(key, hash string) string {
	return UploadPrefix + hash + strings.ToLower(path.Ext(SanitizeKey(key)))
}

// Delete removes the object named key, the last path segment of a URL
// returned by Save.
func (s *SupabaseStore) Delete(ctx context.Context, key string) error {
	return s.client.DeleteImage(ctx, s.bucket, SanitizeKey(key))
}
