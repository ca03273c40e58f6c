package blob

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestLocalStorePutAndDelete(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewLocalStore(dir, "/files/")
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}

	url, err := store.Put(ctx, "abc-capa.png", "image/png", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if url != "/files/abc-capa.png" {
		t.Fatalf("url = %q", url)
	}
	got, err := os.ReadFile(filepath.Join(dir, "abc-capa.png"))
	if err != nil || string(got) != "png-bytes" {
		t.Fatalf("expected blob on disk, got %q (%v)", got, err)
	}

	if err := store.Delete(ctx, "abc-capa.png"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "abc-capa.png"); err != nil {
		t.Fatalf("deleting a missing blob should succeed: %v", err)
	}
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/files")
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	for _, key := range []string{"", "../x.png", "a/b.png", `a\b.png`} {
		if _, err := store.Put(context.Background(), key, "image/png", nil); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("key %q: expected ErrInvalidKey, got %v", key, err)
		}
	}
}

func TestS3StoreAgainstCompatibleEndpoint(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	var body string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodPut {
			raw, _ := io.ReadAll(r.Body)
			body = string(raw)
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ctx := context.Background()
	store, err := NewS3Store(ctx, S3Options{
		Bucket:    "assets",
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		AccessKey: "local",
		SecretKey: "local",
	})
	if err != nil {
		t.Fatalf("new s3 store: %v", err)
	}

	url, err := store.Put(ctx, "k1-capa.png", "image/png", []byte("data"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if url != srv.URL+"/assets/k1-capa.png" {
		t.Fatalf("url = %q", url)
	}
	if err := store.Delete(ctx, "k1-capa.png"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 2 || calls[0] != "PUT /assets/k1-capa.png" || calls[1] != "DELETE /assets/k1-capa.png" {
		t.Fatalf("unexpected calls: %v", calls)
	}
	if body == "" {
		t.Fatalf("expected object body to be uploaded")
	}
}

func TestNewS3StoreRequiresBucket(t *testing.T) {
	if _, err := NewS3Store(context.Background(), S3Options{}); err == nil {
		t.Fatalf("expected error without bucket")
	}
}
