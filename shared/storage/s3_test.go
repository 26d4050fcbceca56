package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type s3Call struct {
	method string
	path   string
	body   string
}

func fakeS3(t *testing.T) (*httptest.Server, func() []s3Call) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []s3Call
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, s3Call{method: r.Method, path: r.URL.Path, body: string(body)})
		mu.Unlock()

		switch r.Method {
		case http.MethodPut:
			w.Header().Set("ETag", `"etag"`)
			w.WriteHeader(http.StatusOK)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(server.Close)
	return server, func() []s3Call {
		mu.Lock()
		defer mu.Unlock()
		return append([]s3Call(nil), calls...)
	}
}

func TestS3Store_PutAndDelete(t *testing.T) {
	server, calls := fakeS3(t)
	store, err := NewS3Store(S3Config{
		Bucket:          "assets",
		Region:          "auto",
		Endpoint:        server.URL,
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "dealers/101/logo.png", "image/png", strings.NewReader("png-bytes")))
	require.NoError(t, store.Delete(ctx, "dealers/101/logo.png"))

	got := calls()
	require.Len(t, got, 2)
	assert.Equal(t, http.MethodPut, got[0].method)
	assert.Equal(t, "/assets/dealers/101/logo.png", got[0].path)
	assert.Equal(t, "png-bytes", got[0].body)
	assert.Equal(t, http.MethodDelete, got[1].method)
	assert.Equal(t, "/assets/dealers/101/logo.png", got[1].path)
}
