package imageresolve

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// imageServer serves HEAD responses for a fixed set of paths, answering with
// an image content type. Every other path gets a 404.
func imageServer(t *testing.T, paths ...string) *httptest.Server {
	t.Helper()

	known := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		known[p] = struct{}{}
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := known[r.URL.Path]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestResolve(t *testing.T) {
	t.Run("direct http url that verifies", func(t *testing.T) {
		srv := imageServer(t, "/ape.png")

		r := New(WithGateways(nil))

		got := r.Resolve(t.Context(), map[string]any{"image": srv.URL + "/ape.png"}, "")

		assert.Equal(t, srv.URL+"/ape.png", got)
	})

	t.Run("data url returned without probing", func(t *testing.T) {
		r := New(WithGateways(nil))

		raw := "data:image/png;base64,iVBORw0KGgo="
		got := r.Resolve(t.Context(), map[string]any{"image": raw}, "")

		assert.Equal(t, raw, got)
	})

	t.Run("ipfs reference expands against gateways in order", func(t *testing.T) {
		broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		t.Cleanup(broken.Close)

		working := imageServer(t, "/ipfs/QmHash123")

		r := New(WithGateways([]string{
			broken.URL + "/ipfs/",
			working.URL + "/ipfs/",
		}))

		got := r.Resolve(t.Context(), map[string]any{"image": "ipfs://QmHash123"}, "")

		assert.Equal(t, working.URL+"/ipfs/QmHash123", got)
	})

	t.Run("every gateway exhausted falls back to the placeholder", func(t *testing.T) {
		var probes atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			probes.Add(1)
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusOK)
		}))
		t.Cleanup(srv.Close)

		r := New(
			WithGateways([]string{
				srv.URL + "/gw-one/ipfs/",
				srv.URL + "/gw-two/ipfs/",
				srv.URL + "/gw-three/ipfs/",
			}),
			WithPlaceholderURL("https://fallback.example/p.png"),
		)

		got := r.Resolve(t.Context(), map[string]any{"image": "ipfs://QmHash123"}, "")

		assert.Equal(t, "https://fallback.example/p.png", got)
		assert.Equal(t, int64(3), probes.Load())
	})

	t.Run("non image content type is rejected", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusOK)
		}))
		t.Cleanup(srv.Close)

		r := New(WithGateways(nil), WithPlaceholderURL("https://fallback.example/p.png"))

		got := r.Resolve(t.Context(), map[string]any{"image": srv.URL + "/page"}, "")

		assert.Equal(t, "https://fallback.example/p.png", got)
	})

	t.Run("fingerprint strategy kicks in when metadata fails", func(t *testing.T) {
		srv := imageServer(t, "/asset1fingerprint/1")

		r := New(
			WithGateways(nil),
			WithFingerprintService(srv.URL),
		)

		got := r.Resolve(t.Context(), nil, "asset1fingerprint")

		assert.Equal(t, srv.URL+"/asset1fingerprint/1", got)
	})

	t.Run("preview service wraps the first gateway candidate unprobed", func(t *testing.T) {
		var probes atomic.Int64
		dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			probes.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		t.Cleanup(dead.Close)

		gateway := dead.URL + "/ipfs/"

		r := New(
			WithGateways([]string{gateway}),
			WithPreviewService("https://preview.example/render"),
		)

		got := r.Resolve(t.Context(), map[string]any{"image": "ipfs://QmHash123"}, "")

		want := "https://preview.example/render?url=" + url.QueryEscape(gateway+"QmHash123")
		assert.Equal(t, want, got)
		require.Positive(t, probes.Load())
	})

	t.Run("placeholder when everything fails", func(t *testing.T) {
		r := New(
			WithGateways(nil),
			WithPlaceholderURL("https://fallback.example/p.png"),
		)

		got := r.Resolve(t.Context(), map[string]any{"name": "no image"}, "")

		assert.Equal(t, "https://fallback.example/p.png", got)
	})

	t.Run("default placeholder", func(t *testing.T) {
		r := New(WithGateways(nil))

		got := r.Resolve(t.Context(), nil, "")

		assert.Equal(t, "https://placehold.co/600x600.png", got)
	})
}
