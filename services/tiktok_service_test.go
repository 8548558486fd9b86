package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTikTokService(baseURL string) *TikTokService {
	return &TikTokService{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func TestExtractContentID(t *testing.T) {
	id, isPhoto, err := ExtractContentID("https://www.tiktok.com/@someone/video/7312345678901234567")
	require.NoError(t, err)
	assert.Equal(t, "7312345678901234567", id)
	assert.False(t, isPhoto)

	id, isPhoto, err = ExtractContentID("https://www.tiktok.com/@someone/photo/7312345678901234567")
	require.NoError(t, err)
	assert.Equal(t, "7312345678901234567", id)
	assert.True(t, isPhoto)

	// Query params and trailing segments don't break extraction
	id, _, err = ExtractContentID("https://www.tiktok.com/@someone/video/123?is_copy_url=1")
	require.NoError(t, err)
	assert.Equal(t, "123", id)
}

func TestExtractContentIDNotExtractable(t *testing.T) {
	cases := []string{
		"https://www.tiktok.com/@someone",
		"https://www.tiktok.com/@someone/video/notanumber",
		"https://example.com/watch?v=abc",
		"not a url at all ://",
	}
	for _, raw := range cases {
		_, _, err := ExtractContentID(raw)
		assert.ErrorIs(t, err, ErrNotExtractable, raw)
	}
}

func TestResolveURLPassThrough(t *testing.T) {
	s := newTestTikTokService("")

	// Non-short links pass through without any network call
	canonical, err := s.ResolveURL(context.Background(), "https://www.tiktok.com/@someone/video/123")
	require.NoError(t, err)
	assert.Equal(t, "https://www.tiktok.com/@someone/video/123", canonical)
}

func TestResolveURLShortLink(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	redirector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL+"/@someone/video/123", http.StatusMovedPermanently)
	}))
	defer redirector.Close()

	// Register the test server as a short-link host so ResolveURL follows it
	redirectorHost, err := url.Parse(redirector.URL)
	require.NoError(t, err)
	shortLinkHosts[redirectorHost.Hostname()] = true
	defer delete(shortLinkHosts, redirectorHost.Hostname())

	s := newTestTikTokService("")

	canonical, err := s.ResolveURL(context.Background(), redirector.URL+"/abc123")
	require.NoError(t, err)
	assert.Equal(t, target.URL+"/@someone/video/123", canonical)
}

func TestFetchNormalizesMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"code": 0,
			"data": {
				"play_count": 1500000,
				"digg_count": 42000,
				"comment_count": 310,
				"share_count": 99,
				"title": "a caption",
				"music_info": {"id": "sound-1"},
				"author": {"unique_id": "creatorname"}
			}
		}`))
	}))
	defer server.Close()

	s := newTestTikTokService(server.URL)

	data, err := s.Fetch(context.Background(), "https://www.tiktok.com/@creatorname/video/777")
	require.NoError(t, err)
	assert.Equal(t, "777", data.VideoID)
	assert.False(t, data.IsPhoto)
	assert.Equal(t, int64(1500000), data.Views)
	assert.Equal(t, int64(42000), data.Likes)
	assert.Equal(t, int64(310), data.Comments)
	assert.Equal(t, int64(99), data.Shares)
	assert.Equal(t, "sound-1", data.MusicID)
	assert.Equal(t, "creatorname", data.AuthorID)
}

func TestFetchZeroDefaults(t *testing.T) {
	// Upstream omits every engagement field: everything defaults to zero
	// instead of failing the fetch.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code": 0, "data": {}}`))
	}))
	defer server.Close()

	s := newTestTikTokService(server.URL)

	data, err := s.Fetch(context.Background(), "https://www.tiktok.com/@x/video/1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), data.Views)
	assert.Equal(t, int64(0), data.Likes)
	assert.Equal(t, int64(0), data.Comments)
	assert.Equal(t, int64(0), data.Shares)
	assert.Empty(t, data.MusicID)
	assert.Empty(t, data.AuthorID)
}

func TestFetchPhotoPost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code": 0, "data": {"play_count": 10, "images": ["a.jpg", "b.jpg"]}}`))
	}))
	defer server.Close()

	s := newTestTikTokService(server.URL)

	data, err := s.Fetch(context.Background(), "https://www.tiktok.com/@x/photo/5")
	require.NoError(t, err)
	assert.True(t, data.IsPhoto)
}

func TestFetchUpstreamErrors(t *testing.T) {
	t.Run("api error code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"code": -1, "msg": "video not found"}`))
		}))
		defer server.Close()

		s := newTestTikTokService(server.URL)
		_, err := s.Fetch(context.Background(), "https://www.tiktok.com/@x/video/1")
		assert.ErrorIs(t, err, ErrUpstream)
	})

	t.Run("http 500", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		s := newTestTikTokService(server.URL)
		_, err := s.Fetch(context.Background(), "https://www.tiktok.com/@x/video/1")
		assert.ErrorIs(t, err, ErrUpstream)
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"code": 0, "data":`))
		}))
		defer server.Close()

		s := newTestTikTokService(server.URL)
		_, err := s.Fetch(context.Background(), "https://www.tiktok.com/@x/video/1")
		assert.ErrorIs(t, err, ErrUpstream)
	})

	t.Run("bad link never reaches upstream", func(t *testing.T) {
		s := newTestTikTokService("http://127.0.0.1:1")
		_, err := s.Fetch(context.Background(), "https://www.tiktok.com/@x/profile")
		assert.ErrorIs(t, err, ErrNotExtractable)
		assert.False(t, errors.Is(err, ErrUpstream))
	})
}

func TestGetUserInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/user/info", r.URL.Path)
		assert.Equal(t, "creatorname", r.URL.Query().Get("unique_id"))
		w.Write([]byte(`{
			"code": 0,
			"data": {
				"user": {"unique_id": "creatorname", "nickname": "Creator", "signature": "bio with clip-ABC123"},
				"stats": {"followerCount": 12000}
			}
		}`))
	}))
	defer server.Close()

	s := newTestTikTokService(server.URL)

	info, err := s.GetUserInfo(context.Background(), "creatorname")
	require.NoError(t, err)
	assert.Equal(t, "creatorname", info.Username)
	assert.Equal(t, "Creator", info.Nickname)
	assert.Contains(t, info.Bio, "clip-ABC123")
	assert.Equal(t, int64(12000), info.Followers)
}
