package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lyfe05/matchfeed/internal/config"
	"github.com/lyfe05/matchfeed/internal/feed"
	"github.com/lyfe05/matchfeed/internal/metrics"
	"github.com/lyfe05/matchfeed/internal/refresh"
)

type fakeSnapshots struct {
	snap feed.Snapshot
}

func (f fakeSnapshots) Snapshot() feed.Snapshot { return f.snap }

type fakeTrigger struct {
	err   error
	calls int
}

func (f *fakeTrigger) Trigger(_ context.Context) error {
	f.calls++
	return f.err
}

func populatedSnapshot() feed.Snapshot {
	return feed.Snapshot{
		Records: []feed.MatchRecord{{
			Home:       feed.Team{Name: "Arsenal", LogoURL: "https://logos.example/arsenal.png"},
			Away:       feed.Team{Name: "Chelsea", LogoURL: "https://logos.example/chelsea.png"},
			StreamURLs: []string{"https://cdn.example/manifest/0.m3u8|Referer=https://play.example/"},
			Date:       "30/08/2026",
			League:     "premier league",
		}},
		LastUpdated: time.Date(2026, 8, 30, 18, 0, 0, 0, time.UTC),
	}
}

func newTestServer(snap feed.Snapshot, trigger RefreshTrigger) *Server {
	metrics.Init()
	cfg := config.Config{Auth: config.AuthConfig{Enabled: true, Keys: "secret-key, backup-key"}}
	return NewServer(fakeSnapshots{snap: snap}, trigger, cfg, zap.NewNop())
}

func doRequest(s *Server, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	rec := doRequest(newTestServer(feed.Snapshot{}, &fakeTrigger{}), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyz(t *testing.T) {
	t.Parallel()

	cold := newTestServer(feed.Snapshot{}, &fakeTrigger{})
	require.Equal(t, http.StatusServiceUnavailable,
		doRequest(cold, http.MethodGet, "/readyz", "").Code)

	warm := newTestServer(populatedSnapshot(), &fakeTrigger{})
	require.Equal(t, http.StatusOK,
		doRequest(warm, http.MethodGet, "/readyz", "").Code)
}

func TestMatchesRequiresAuth(t *testing.T) {
	t.Parallel()

	s := newTestServer(populatedSnapshot(), &fakeTrigger{})
	require.Equal(t, http.StatusUnauthorized,
		doRequest(s, http.MethodGet, "/v1/matches", "").Code)
	require.Equal(t, http.StatusUnauthorized,
		doRequest(s, http.MethodGet, "/v1/matches", "wrong-key").Code)
	require.Equal(t, http.StatusOK,
		doRequest(s, http.MethodGet, "/v1/matches", "secret-key").Code)
	require.Equal(t, http.StatusOK,
		doRequest(s, http.MethodGet, "/v1/matches", "backup-key").Code)
}

func TestMatchesColdCache(t *testing.T) {
	t.Parallel()

	s := newTestServer(feed.Snapshot{}, &fakeTrigger{})
	rec := doRequest(s, http.MethodGet, "/v1/matches", "secret-key")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "data not yet available", body["error"])
}

func TestMatchesPayload(t *testing.T) {
	t.Parallel()

	snap := populatedSnapshot()
	snap.Refreshing = true
	s := newTestServer(snap, &fakeTrigger{})

	rec := doRequest(s, http.MethodGet, "/v1/matches", "secret-key")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		LastUpdated *time.Time         `json:"last_updated"`
		Refreshing  bool               `json:"refreshing"`
		Matches     []feed.MatchRecord `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.LastUpdated)
	require.Equal(t, snap.LastUpdated, body.LastUpdated.UTC())
	require.True(t, body.Refreshing)
	require.Equal(t, snap.Records, body.Matches)

	// Scores were never scraped for this snapshot, so they are omitted.
	require.NotContains(t, rec.Body.String(), `"score"`)
}

func TestTriggerRefresh(t *testing.T) {
	t.Parallel()

	trigger := &fakeTrigger{}
	s := newTestServer(populatedSnapshot(), trigger)
	rec := doRequest(s, http.MethodPost, "/v1/refresh", "secret-key")
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, 1, trigger.calls)
}

func TestTriggerRefreshConflict(t *testing.T) {
	t.Parallel()

	s := newTestServer(populatedSnapshot(), &fakeTrigger{err: refresh.ErrInFlight})
	rec := doRequest(s, http.MethodPost, "/v1/refresh", "secret-key")
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()

	rec := doRequest(newTestServer(feed.Snapshot{}, &fakeTrigger{}), http.MethodGet, "/healthz", "")
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
