package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupabaseStore_SaveUploadsNewImage(t *testing.T) {
	hash := HashContent([]byte("jpeg"))
	objectPath := "output_" + hash + ".jpg"

	var uploaded, recorded bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/rest/v1/stored_images":
			assert.Equal(t, "eq."+hash, r.URL.Query().Get("content_hash"))
			_, _ = w.Write([]byte(`[]`))
		case r.Method == http.MethodPost && r.URL.Path == "/storage/v1/object/uploads/"+objectPath:
			uploaded = true
			assert.Equal(t, "image/jpeg", r.Header.Get("Content-Type"))
			assert.Empty(t, r.Header.Get("x-upsert"))
			_, _ = w.Write([]byte(`{"Key":"uploads/` + objectPath + `"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/rest/v1/stored_images":
			recorded = true
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, objectPath, body["storage_path"])
			w.WriteHeader(http.StatusCreated)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	store := NewSupabaseStore(NewClient(srv.URL, "service-key"), "uploads")
	url, err := store.Save(context.Background(), "output_fridge.JPG", "image/jpeg", []byte("jpeg"))

	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/storage/v1/object/public/uploads/"+objectPath, url)
	assert.True(t, uploaded)
	assert.True(t, recorded)
}

// bucketServer mimics a Supabase bucket and stored_images table: uploads
// to an existing object are rejected, public URLs serve stored bytes.
func bucketServer(t *testing.T) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	objects := map[string][]byte{}
	byHash := map[string]string{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/rest/v1/stored_images":
			hash := strings.TrimPrefix(r.URL.Query().Get("content_hash"), "eq.")
			if p, ok := byHash[hash]; ok {
				_ = json.NewEncoder(w).Encode([]map[string]string{{"id": "1", "content_hash": hash, "storage_path": p}})
				return
			}
			_, _ = w.Write([]byte(`[]`))
		case r.Method == http.MethodPost && r.URL.Path == "/rest/v1/stored_images":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			byHash[body["content_hash"]] = body["storage_path"]
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/storage/v1/object/uploads/"):
			name := strings.TrimPrefix(r.URL.Path, "/storage/v1/object/uploads/")
			if _, exists := objects[name]; exists && r.Header.Get("x-upsert") != "true" {
				http.Error(w, `{"error":"Duplicate"}`, http.StatusConflict)
				return
			}
			data, _ := io.ReadAll(r.Body)
			objects[name] = data
			_, _ = w.Write([]byte(`{}`))
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/storage/v1/object/public/uploads/"):
			data, ok := objects[strings.TrimPrefix(r.URL.Path, "/storage/v1/object/public/uploads/")]
			if !ok {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write(data)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func fetch(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestSupabaseStore_SameFileNameDoesNotOverwrite(t *testing.T) {
	srv := bucketServer(t)
	store := NewSupabaseStore(NewClient(srv.URL, "service-key"), "uploads")
	ctx := context.Background()

	urlA, err := store.Save(ctx, UploadKey("photo.jpg"), "image/jpeg", []byte("PHOTO-A"))
	require.NoError(t, err)
	urlB, err := store.Save(ctx, UploadKey("photo.jpg"), "image/jpeg", []byte("PHOTO-B"))
	require.NoError(t, err)
	urlAgain, err := store.Save(ctx, UploadKey("other.jpg"), "image/jpeg", []byte("PHOTO-A"))
	require.NoError(t, err)

	assert.NotEqual(t, urlA, urlB)
	assert.Equal(t, urlA, urlAgain)
	assert.Equal(t, "PHOTO-A", fetch(t, urlAgain))
	assert.Equal(t, "PHOTO-B", fetch(t, urlB))
}

func TestSupabaseStore_SaveReusesExisting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`[{"id":"1","content_hash":"h","storage_path":"output_first.jpg"}]`))
	}))
	defer srv.Close()

	store := NewSupabaseStore(NewClient(srv.URL, "service-key"), "uploads")
	url, err := store.Save(context.Background(), "output_second.jpg", "image/jpeg", []byte("jpeg"))

	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/storage/v1/object/public/uploads/output_first.jpg", url)
}

func TestSupabaseStore_UploadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		http.Error(w, "bucket not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewSupabaseStore(NewClient(srv.URL, "k"), "uploads").Save(context.Background(), "a.jpg", "image/jpeg", []byte("x"))

	assert.ErrorIs(t, err, ErrUploadFailed)
}
