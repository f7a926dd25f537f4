package scoreboardsources

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustDecoder(t *testing.T) Decoder {
	t.Helper()
	d, err := NewDecoder(FieldMapping{}, TimestampSeconds, nil)
	require.NoError(t, err)
	return d
}

func TestHTTPSource_Fetch(t *testing.T) {
	var gotQuery, gotAuth, gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		gotCookie = r.Header.Get("Cookie")
		w.Header().Set("Content-Type", "application/json")
		// Upstream ignores "after" and returns newest first.
		fmt.Fprint(w, `[
			{"id":12,"team_id":"t1","problem_id":"B","status":"AC","submitted_at":1760263300},
			{"id":11,"team_id":"t2","problem_id":"A","status":"WA","submitted_at":1760263250},
			{"id":10,"team_id":"t1","problem_id":"A","status":"AC","submitted_at":1760263200}
		]`)
	}))
	defer srv.Close()

	tests := []struct {
		name      string
		cfg       HTTPConfig
		limit     int
		wantIDs   []int64
		wantQuery string
		wantAuth  string
		wantCook  string
	}{
		{
			name:      "bearer token and default params",
			cfg:       HTTPConfig{BaseURL: srv.URL, BearerToken: "secret"},
			limit:     50,
			wantIDs:   []int64{11, 12},
			wantQuery: "after=10&limit=50",
			wantAuth:  "Bearer secret",
		},
		{
			name:      "cookie and renamed params",
			cfg:       HTTPConfig{BaseURL: srv.URL + "?contest=7", Cookie: "sid=abc", AfterParam: "since", LimitParam: "size"},
			limit:     1,
			wantIDs:   []int64{11},
			wantQuery: "contest=7&since=10&size=1",
			wantCook:  "sid=abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewHTTPSource(context.Background(), "judge", tt.cfg, mustDecoder(t), testLogger())
			require.NoError(t, err)

			subs, err := src.Fetch(context.Background(), 10, tt.limit)
			require.NoError(t, err)

			ids := make([]int64, len(subs))
			for i, s := range subs {
				ids[i] = s.ID
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantQuery, gotQuery)
			assert.Equal(t, tt.wantAuth, gotAuth)
			assert.Equal(t, tt.wantCook, gotCookie)
		})
	}
}

func TestHTTPSource_FetchErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `not json`)
	}))
	defer srv.Close()

	src, err := NewHTTPSource(context.Background(), "judge", HTTPConfig{BaseURL: srv.URL}, mustDecoder(t), testLogger())
	require.NoError(t, err)

	_, err = src.Fetch(context.Background(), 0, 0)
	require.ErrorContains(t, err, "503")

	_, err = src.Fetch(context.Background(), 0, 0)
	require.Error(t, err)
}

func TestHTTPSource_OAuth2ClientCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"issued","token_type":"bearer","expires_in":3600}`)
	})
	var gotAuth string
	mux.HandleFunc("/submissions", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"submissions":[]}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := HTTPConfig{
		BaseURL: srv.URL + "/submissions",
		OAuth2:  &OAuth2Config{ClientID: "board", ClientSecret: "s3cret", TokenURL: srv.URL + "/token"},
	}
	src, err := NewHTTPSource(context.Background(), "judge", cfg, mustDecoder(t), testLogger())
	require.NoError(t, err)

	subs, err := src.Fetch(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Empty(t, subs)
	assert.Equal(t, "Bearer issued", gotAuth)
}

func TestHTTPSource_RateLimiterHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	src, err := NewHTTPSource(context.Background(), "judge",
		HTTPConfig{BaseURL: srv.URL, RequestsPerSecond: 0.001, Burst: 1}, mustDecoder(t), testLogger())
	require.NoError(t, err)

	_, err = src.Fetch(context.Background(), 0, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Fetch(ctx, 0, 0)
	require.Error(t, err)
}

func TestNewHTTPSource_RequiresBaseURL(t *testing.T) {
	_, err := NewHTTPSource(context.Background(), "judge", HTTPConfig{}, mustDecoder(t), testLogger())
	require.Error(t, err)
}
