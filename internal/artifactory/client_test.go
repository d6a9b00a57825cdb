package artifactory_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendeploy/versioning/internal/artifactory"
)

func TestResolveDownloadURI(t *testing.T) {
	ctx := context.Background()

	t.Run("walks search result to the download URI", func(t *testing.T) {
		var server *httptest.Server

		mux := http.NewServeMux()
		mux.HandleFunc("/artifactory/api/search/gavc", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "com.example", r.URL.Query().Get("g"))
			assert.Equal(t, "checkout-service", r.URL.Query().Get("a"))
			assert.Equal(t, "1.0.0", r.URL.Query().Get("v"))
			assert.Equal(t, "release", r.URL.Query().Get("c"))

			fmt.Fprintf(w, `{"results":[{"uri":%q}]}`, server.URL+"/artifactory/api/storage/item")
		})
		mux.HandleFunc("/artifactory/api/storage/item", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"downloadUri":"https://repo.example.com/checkout-service-1.0.0.jar"}`)
		})

		server = httptest.NewServer(mux)
		defer server.Close()

		client := artifactory.NewClient(time.Second)

		uri, err := client.ResolveDownloadURI(ctx, server.URL, "com.example", "checkout-service", "1.0.0")
		require.NoError(t, err)
		assert.Equal(t, "https://repo.example.com/checkout-service-1.0.0.jar", uri)
	})

	t.Run("empty search result reports no match", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"results":[]}`)
		}))
		defer server.Close()

		client := artifactory.NewClient(time.Second)

		_, err := client.ResolveDownloadURI(ctx, server.URL, "com.example", "checkout-service", "1.0.0")
		assert.ErrorIs(t, err, artifactory.ErrNoMatch)
	})

	t.Run("retries a server error once", func(t *testing.T) {
		var calls int

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}

			fmt.Fprint(w, `{"results":[]}`)
		}))
		defer server.Close()

		client := artifactory.NewClient(time.Second)

		_, err := client.ResolveDownloadURI(ctx, server.URL, "com.example", "checkout-service", "1.0.0")
		assert.ErrorIs(t, err, artifactory.ErrNoMatch)
		assert.Equal(t, 2, calls)
	})

	t.Run("client error is not retried", func(t *testing.T) {
		var calls int

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		client := artifactory.NewClient(time.Second)

		_, err := client.ResolveDownloadURI(ctx, server.URL, "com.example", "checkout-service", "1.0.0")
		assert.ErrorIs(t, err, artifactory.ErrUnexpectedStatus)
		assert.Equal(t, 1, calls)
	})
}
