package httpapi

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/otherwords/internal/anagram"
	owerrors "github.com/Aman-CERP/otherwords/internal/errors"
	"github.com/Aman-CERP/otherwords/internal/index"
	"github.com/Aman-CERP/otherwords/internal/store"
	"github.com/Aman-CERP/otherwords/internal/telemetry"
)

const corpus = "Lorem ipsum dolor sit amet, consectetur adipiscing elit. Lorem ipsum dolor sit amet."

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	idx, err := store.NewSQLiteIndex("")
	require.NoError(t, err)
	m := telemetry.New()
	ix, err := index.NewIndexer(index.Config{Pipeline: anagram.Options{MaxLen: 144, MinLen: 20}},
		index.Dependencies{Index: idx, Metrics: m})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })

	_, err = ix.IngestReader(context.Background(), "lorem.txt", strings.NewReader(corpus))
	require.NoError(t, err)
	return NewRouter(Deps{Index: ix, Metrics: m})
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_Find(t *testing.T) {
	h := newRouter(t)

	w := get(t, h, "/api/anagrams?phrase=sit+amet+dolor+ipsum+lorem")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var res index.FindResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "ADE2I2L2M3O3PR2S2T2U", res.Signature)
	assert.Equal(t, []store.Hit{{AnchorOffset: 0, Path: "lorem.txt"}, {AnchorOffset: 57, Path: "lorem.txt"}}, res.Hits)
}

func TestRouter_Lookup(t *testing.T) {
	h := newRouter(t)

	w := get(t, h, "/api/signatures/ade2i2l2m3o3pr2s2t2u")

	require.Equal(t, http.StatusOK, w.Code)
	var res SignatureResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "ADE2I2L2M3O3PR2S2T2U", res.Signature)
	assert.Len(t, res.Hits, 2)
}

func TestRouter_UnknownSignature_EmptyHits(t *testing.T) {
	h := newRouter(t)

	w := get(t, h, "/api/signatures/ELMOR")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"signature":"ELMOR","hits":[]}`, w.Body.String())
}

func TestRouter_NotCanonicalSignature_EmptyHits(t *testing.T) {
	// Given: keys that no window can produce
	h := newRouter(t)

	for _, sig := range []string{"BA", "A1"} {
		// When: looking them up
		w := get(t, h, "/api/signatures/"+sig)

		// Then: they are unknown signatures, with a note saying why
		require.Equal(t, http.StatusOK, w.Code, sig)
		var res SignatureResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, sig, res.Signature)
		assert.NotNil(t, res.Hits)
		assert.Empty(t, res.Hits)
		assert.Contains(t, res.Note, "otherwords canon")
	}
}

func TestRouter_Errors(t *testing.T) {
	h := newRouter(t)

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantErr  string
	}{
		{"empty phrase", "/api/anagrams", http.StatusBadRequest, owerrors.ErrCodeQueryEmpty},
		{"empty signature", "/api/signatures/%20", http.StatusBadRequest, owerrors.ErrCodeQueryEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, h, tt.path)

			assert.Equal(t, tt.wantCode, w.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantErr, body["code"])
			assert.Equal(t, "VALIDATION", body["category"])
		})
	}
}

func TestRouter_SourcesAndStats(t *testing.T) {
	h := newRouter(t)

	w := get(t, h, "/api/sources")
	require.Equal(t, http.StatusOK, w.Code)
	var sources SourcesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sources))
	require.Len(t, sources.Sources, 1)
	assert.Equal(t, "lorem.txt", sources.Sources[0].Path)

	w = get(t, h, "/api/stats")
	require.Equal(t, http.StatusOK, w.Code)
	var st index.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, int64(1), st.Index.Sources)
	assert.Equal(t, 20, st.Pipeline.MinLen)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	h := newRouter(t)

	w := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	get(t, h, "/api/anagrams?phrase=lorem")
	w = get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "otherwords_lookup_requests_total")
}

func TestRouter_NoMetrics(t *testing.T) {
	h := NewRouter(Deps{Index: stubQuerier{}})

	assert.Equal(t, http.StatusNotFound, get(t, h, "/metrics").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/sources", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}())
}

func TestRouter_InternalError(t *testing.T) {
	h := NewRouter(Deps{Index: stubQuerier{err: owerrors.New(owerrors.ErrCodeLookupFailed, "boom", nil)}})

	w := get(t, h, "/api/sources")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), owerrors.ErrCodeLookupFailed)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(owerrors.New(owerrors.ErrCodeIndexLocked, "locked", nil)))
	assert.Equal(t, http.StatusNotFound, statusFor(owerrors.New(owerrors.ErrCodeSourceNotFound, "gone", nil)))
	assert.Equal(t, http.StatusBadRequest, statusFor(owerrors.New(owerrors.ErrCodeInvalidInput, "bad", nil)))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}

func TestServeListener_Shutdown(t *testing.T) {
	// Given: a server on an ephemeral port
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ServeListener(ctx, ln, NewRouter(Deps{Index: stubQuerier{}}), nil) }()

	// When: it answers a request and is cancelled
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)
	cancel()

	// Then: it stops cleanly
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServe_BadAddress(t *testing.T) {
	err := Serve(context.Background(), "not-an-address", http.NotFoundHandler(), nil)
	assert.ErrorContains(t, err, "failed to listen")
}

type stubQuerier struct{ err error }

func (s stubQuerier) Find(context.Context, string) (*index.FindResult, error) { return nil, s.err }
func (s stubQuerier) Lookup(context.Context, string) ([]store.Hit, error)    { return nil, s.err }
func (s stubQuerier) CheckSignature(string) error                            { return nil }
func (s stubQuerier) Sources(context.Context) ([]store.SourceRecord, error) {
	return nil, s.err
}
func (s stubQuerier) Stats(context.Context) (*index.Status, error) { return nil, s.err }
