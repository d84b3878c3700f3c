package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jellydator/ttlcache/v2"
	"golang.org/x/time/rate"

	"shellac/src/features/config"
	"shellac/src/infra/artwork"
)

const maxAttempts = 3

// CoverArtClient fetches album artwork from a Deezer-style search API.
// All lookups go through one shared rate limiter so a large scan cannot
// hammer the provider, and results (including misses) are cached so
// rescans stay cheap. When retries are exhausted the album simply gets
// no remote artwork; the scan carries on.
type CoverArtClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	cache   *ttlcache.Cache
}

// NewCoverArtClient creates a new client from the remote artwork
// configuration.
func NewCoverArtClient(cfg config.Remote) *CoverArtClient {
	cache := ttlcache.NewCache()
	cache.SetTTL(cfg.CacheTTL.Std())
	cache.SkipTTLExtensionOnHit(true)
	return &CoverArtClient{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout.Std()},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		cache:   cache,
	}
}

var _ artwork.RemoteFetcher = (*CoverArtClient)(nil)

type albumSearchResponse struct {
	Data []struct {
		Title    string `json:"title"`
		CoverXL  string `json:"cover_xl"`
		CoverBig string `json:"cover_big"`
	} `json:"data"`
}

// FetchAlbumArt returns the artwork bytes for an album, or (nil, nil)
// when the provider has none.
func (c *CoverArtClient) FetchAlbumArt(ctx context.Context, artist, album string) ([]byte, error) {
	key := artist + "\x00" + album
	if cached, err := c.cache.Get(key); err == nil {
		data, _ := cached.([]byte)
		if len(data) == 0 {
			return nil, nil
		}
		return data, nil
	}

	coverURL, err := c.searchCoverURL(ctx, artist, album)
	if err != nil {
		return nil, err
	}
	if coverURL == "" {
		c.cache.Set(key, []byte{})
		return nil, nil
	}

	data, err := c.download(ctx, coverURL)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, data)
	return data, nil
}

func (c *CoverArtClient) searchCoverURL(ctx context.Context, artist, album string) (string, error) {
	query := fmt.Sprintf(`artist:"%s" album:"%s"`, artist, album)
	searchURL := fmt.Sprintf("%s/search/album?q=%s", c.baseURL, url.QueryEscape(query))

	body, err := c.get(ctx, searchURL)
	if err != nil {
		return "", err
	}

	var resp albumSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode search response: %w", err)
	}
	if len(resp.Data) == 0 {
		return "", nil
	}
	if resp.Data[0].CoverXL != "" {
		return resp.Data[0].CoverXL, nil
	}
	return resp.Data[0].CoverBig, nil
}

func (c *CoverArtClient) download(ctx context.Context, coverURL string) ([]byte, error) {
	return c.get(ctx, coverURL)
}

// get performs a rate-limited GET with bounded retries on transient
// failures.
func (c *CoverArtClient) get(ctx context.Context, requestURL string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, "GET", requestURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", "Shellac/1.0")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
		} else {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			switch {
			case resp.StatusCode == http.StatusOK && readErr == nil:
				return body, nil
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				lastErr = fmt.Errorf("request failed with status %d", resp.StatusCode)
			case readErr != nil:
				lastErr = readErr
			default:
				return nil, fmt.Errorf("request failed with status %d", resp.StatusCode)
			}
		}

		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
		}
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", maxAttempts, lastErr)
}
