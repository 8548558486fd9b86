package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/clipcash/clipcash_backend/models"
)

// Fetcher error taxonomy. Callers use errors.Is to build user-facing messages;
// ErrNotExtractable must stay distinguishable from upstream failures so the bot
// can tell "bad link" apart from "TikTok API down".
var (
	ErrNotResolvable  = errors.New("could not resolve shortened TikTok URL")
	ErrNotExtractable = errors.New("could not extract content id from URL")
	ErrUpstream       = errors.New("TikTok metadata API failure")
)

var contentIDPattern = regexp.MustCompile(`/(video|photo)/(\d+)`)

// Short-link hosts that need redirect resolution before id extraction
var shortLinkHosts = map[string]bool{
	"vm.tiktok.com": true,
	"vt.tiktok.com": true,
}

// TikTokService talks to the third-party scraping API for video metadata and
// profile lookups
type TikTokService struct {
	baseURL    string
	apiKey     string
	client     *http.Client
	fetchDelay time.Duration

	mu        sync.Mutex
	lastFetch time.Time
}

// NewTikTokService creates a TikTok metadata client from environment config
func NewTikTokService() *TikTokService {
	baseURL := os.Getenv("TIKTOK_API_URL")
	if baseURL == "" {
		baseURL = "https://www.tikwm.com"
	}

	fetchDelay := 500 * time.Millisecond
	if delayStr := os.Getenv("TIKTOK_FETCH_DELAY_MS"); delayStr != "" {
		if ms, err := time.ParseDuration(delayStr + "ms"); err == nil {
			fetchDelay = ms
		}
	}

	return &TikTokService{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  os.Getenv("TIKTOK_API_KEY"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		fetchDelay: fetchDelay,
	}
}

// throttle enforces a fixed inter-call delay to respect upstream rate limits
func (s *TikTokService) throttle() {
	if s.fetchDelay <= 0 {
		return
	}
	s.mu.Lock()
	wait := s.fetchDelay - time.Since(s.lastFetch)
	s.lastFetch = time.Now().Add(wait)
	s.mu.Unlock()
	if wait > 0 {
		time.Sleep(wait)
	}
}

// ResolveURL follows short-link redirects (bounded hop count) and returns the
// canonical URL. Non-short links are returned unchanged without a network call.
func (s *TikTokService) ResolveURL(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotResolvable, err)
	}

	host := strings.ToLower(parsed.Hostname())
	isShort := shortLinkHosts[host] ||
		(strings.HasSuffix(host, "tiktok.com") && strings.HasPrefix(parsed.Path, "/t/"))
	if !isShort {
		return rawURL, nil
	}

	resolver := &http.Client{
		Timeout: 10 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return errors.New("too many redirects")
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotResolvable, err)
	}

	resp, err := resolver.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotResolvable, err)
	}
	defer resp.Body.Close()

	return resp.Request.URL.String(), nil
}

// ExtractContentID pulls the numeric content id out of a canonical TikTok URL.
// isPhoto reports whether the link was a photo post rather than a video.
func ExtractContentID(canonicalURL string) (id string, isPhoto bool, err error) {
	parsed, err := url.Parse(canonicalURL)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrNotExtractable, err)
	}

	matches := contentIDPattern.FindStringSubmatch(parsed.Path)
	if len(matches) != 3 {
		return "", false, fmt.Errorf("%w: %s", ErrNotExtractable, parsed.Path)
	}

	return matches[2], matches[1] == "photo", nil
}

// Fetch resolves the URL, extracts the content id and returns a normalized
// engagement record. Missing upstream fields default to zero values.
func (s *TikTokService) Fetch(ctx context.Context, rawURL string) (*models.TikTokVideoData, error) {
	canonical, err := s.ResolveURL(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	contentID, isPhoto, err := ExtractContentID(canonical)
	if err != nil {
		return nil, err
	}

	s.throttle()

	endpoint := fmt.Sprintf("%s/api/?url=%s", s.baseURL, url.QueryEscape(canonical))
	var apiResp models.TikTokAPIResponse
	if err := s.getJSON(ctx, endpoint, &apiResp); err != nil {
		return nil, err
	}

	if apiResp.Code != 0 || apiResp.Data == nil {
		return nil, fmt.Errorf("%w: code %d: %s", ErrUpstream, apiResp.Code, apiResp.Msg)
	}

	data := &models.TikTokVideoData{
		VideoID:  contentID,
		IsPhoto:  isPhoto || len(apiResp.Data.Images) > 0,
		Views:    apiResp.Data.PlayCount,
		Shares:   apiResp.Data.Shares,
		Comments: apiResp.Data.Comments,
		Likes:    apiResp.Data.DiggCount,
		Caption:  apiResp.Data.Title,
	}
	if apiResp.Data.Music != nil {
		data.MusicID = apiResp.Data.Music.ID
	}
	if apiResp.Data.Author != nil {
		data.AuthorID = apiResp.Data.Author.UniqueID
	}

	return data, nil
}

// GetUserInfo fetches a TikTok profile by username. Used by bio verification.
func (s *TikTokService) GetUserInfo(ctx context.Context, username string) (*models.TikTokUserInfo, error) {
	s.throttle()

	endpoint := fmt.Sprintf("%s/api/user/info?unique_id=%s", s.baseURL, url.QueryEscape(username))
	var apiResp models.TikTokUserResponse
	if err := s.getJSON(ctx, endpoint, &apiResp); err != nil {
		return nil, err
	}

	if apiResp.Code != 0 || apiResp.Data == nil || apiResp.Data.User == nil {
		return nil, fmt.Errorf("%w: code %d: %s", ErrUpstream, apiResp.Code, apiResp.Msg)
	}

	info := &models.TikTokUserInfo{
		Username: apiResp.Data.User.UniqueID,
		Nickname: apiResp.Data.User.Nickname,
		Bio:      apiResp.Data.User.Signature,
	}
	if apiResp.Data.Stats != nil {
		info.Followers = apiResp.Data.Stats.FollowerCount
	}

	return info, nil
}

// getJSON performs a GET against the scraping API and decodes the response.
// Timeouts, non-2xx statuses and malformed payloads all map to ErrUpstream.
func (s *TikTokService) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if s.apiKey != "" {
		req.Header.Set("X-API-KEY", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Printf("TikTok API returned %d: %s", resp.StatusCode, string(body))
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: malformed response: %v", ErrUpstream, err)
	}

	return nil
}
