// Package youtube wraps the YouTube Data API v3 endpoints the catalog
// pipeline harvests from: paginated search, bulk video details, channel
// uploads resolution, and playlist enumeration. Every outbound call runs
// under its own deadline behind a shared rate limiter and circuit breaker,
// so one slow or failing call never stalls the rest of an invocation.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"gojocatalog/retry"
)

// searchPageSize is the upstream's maximum page size for search and playlist
// listings, and also its maximum videos.list batch size.
const searchPageSize = 50

// MaxBatchSize is the largest identifier batch a single VideoDetails call
// accepts, matching the upstream videos.list limit.
const MaxBatchSize = 50

// Sentinel errors for permanent upstream conditions.
var (
	// ErrChannelNotFound indicates the channel does not exist upstream.
	ErrChannelNotFound = errors.New("channel not found")
	// ErrMissingAPIKey indicates the client was constructed without a credential.
	ErrMissingAPIKey = errors.New("api key required")
)

// Config holds upstream client configuration.
type Config struct {
	// APIKey is the Data API credential. Required.
	APIKey string
	// CallTimeout is the per-request deadline (default 6s).
	CallTimeout time.Duration
	// RequestsPerSecond caps the outbound request rate (default 8).
	RequestsPerSecond float64
	// Retry configures the per-call retry budget.
	Retry retry.Config
	// FailureThreshold and RecoveryTimeout configure the circuit breaker;
	// zero values use the breaker defaults.
	FailureThreshold int
	RecoveryTimeout  time.Duration
}

// DefaultConfig returns client defaults sized for a request-scoped pipeline.
func DefaultConfig() Config {
	return Config{
		CallTimeout:       6 * time.Second,
		RequestsPerSecond: 8,
		Retry:             retry.DefaultConfig(),
	}
}

// Client issues rate-limited, deadline-bounded calls against the Data API.
type Client struct {
	svc     *youtube.Service
	limiter *rate.Limiter
	breaker *Breaker
	timeout time.Duration
	retry   retry.Config
}

// NewClient creates a Data API client from the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultConfig().CallTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultConfig().RequestsPerSecond
	}

	svc, err := youtube.NewService(context.Background(), option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	return &Client{
		svc:     svc,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		breaker: NewBreaker(cfg.FailureThreshold, cfg.RecoveryTimeout),
		timeout: cfg.CallTimeout,
		retry:   cfg.Retry,
	}, nil
}

// call runs one upstream request through the rate limiter and circuit
// breaker, under the per-call deadline, with the configured retry budget.
func (c *Client) call(ctx context.Context, op string, fn func(context.Context) error) error {
	if err := c.breaker.Allow(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err := retry.Do(ctx, c.retry, isRetryableAPIError, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		return fn(callCtx)
	})
	if err != nil {
		c.breaker.RecordFailure()
		return fmt.Errorf("%s: %w", op, err)
	}

	c.breaker.RecordSuccess()
	return nil
}

// SearchVideoIDs walks search result pages for one query, up to the page
// budget, and returns the video identifiers found. The walk stops early when
// the upstream reports no continuation token or a page request fails; in the
// failure case the identifiers gathered so far are returned alongside the
// error so the caller can keep the partial harvest.
func (c *Client) SearchVideoIDs(ctx context.Context, query string, pages int) ([]string, error) {
	var ids []string
	token := ""

	for page := 0; page < pages; page++ {
		var resp *youtube.SearchListResponse
		err := c.call(ctx, "search.list", func(ctx context.Context) error {
			r, err := c.svc.Search.List([]string{"id"}).
				Q(query).
				Type("video").
				MaxResults(searchPageSize).
				SafeSearch("moderate").
				VideoEmbeddable("true").
				VideoSyndicated("true").
				VideoDuration("any").
				Order("relevance").
				PageToken(token).
				Context(ctx).
				Do()
			if err != nil {
				return err
			}
			resp = r
			return nil
		})
		if err != nil {
			return ids, err
		}

		for _, item := range resp.Items {
			if item.Id != nil && item.Id.VideoId != "" {
				ids = append(ids, item.Id.VideoId)
			}
		}

		token = resp.NextPageToken
		if token == "" {
			break
		}
	}

	return ids, nil
}

// VideoDetails fetches full metadata for one identifier batch. The batch must
// not exceed MaxBatchSize. Identifiers unknown upstream are simply absent
// from the result.
func (c *Client) VideoDetails(ctx context.Context, ids []string) ([]*youtube.Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxBatchSize {
		return nil, fmt.Errorf("videos.list: batch of %d exceeds limit %d", len(ids), MaxBatchSize)
	}

	var videos []*youtube.Video
	err := c.call(ctx, "videos.list", func(ctx context.Context) error {
		r, err := c.svc.Videos.List([]string{"contentDetails", "statistics", "status", "snippet"}).
			Id(ids...).
			Context(ctx).
			Do()
		if err != nil {
			return err
		}
		videos = r.Items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return videos, nil
}

// UploadsPlaylistID resolves a channel to its uploads playlist.
func (c *Client) UploadsPlaylistID(ctx context.Context, channelID string) (string, error) {
	var playlistID string
	err := c.call(ctx, "channels.list", func(ctx context.Context) error {
		r, err := c.svc.Channels.List([]string{"contentDetails"}).
			Id(channelID).
			Context(ctx).
			Do()
		if err != nil {
			return err
		}
		if len(r.Items) == 0 {
			return ErrChannelNotFound
		}
		ch := r.Items[0]
		if ch.ContentDetails == nil || ch.ContentDetails.RelatedPlaylists == nil {
			return ErrChannelNotFound
		}
		playlistID = ch.ContentDetails.RelatedPlaylists.Uploads
		return nil
	})
	if err != nil {
		return "", err
	}
	if playlistID == "" {
		return "", ErrChannelNotFound
	}
	return playlistID, nil
}

// PlaylistVideoIDs enumerates a playlist page by page up to the page budget,
// with the same early-stop and partial-result behavior as SearchVideoIDs.
func (c *Client) PlaylistVideoIDs(ctx context.Context, playlistID string, pages int) ([]string, error) {
	var ids []string
	token := ""

	for page := 0; page < pages; page++ {
		var resp *youtube.PlaylistItemListResponse
		err := c.call(ctx, "playlistItems.list", func(ctx context.Context) error {
			r, err := c.svc.PlaylistItems.List([]string{"contentDetails"}).
				PlaylistId(playlistID).
				MaxResults(searchPageSize).
				PageToken(token).
				Context(ctx).
				Do()
			if err != nil {
				return err
			}
			resp = r
			return nil
		})
		if err != nil {
			return ids, err
		}

		for _, item := range resp.Items {
			if item.ContentDetails != nil && item.ContentDetails.VideoId != "" {
				ids = append(ids, item.ContentDetails.VideoId)
			}
		}

		token = resp.NextPageToken
		if token == "" {
			break
		}
	}

	return ids, nil
}

// isRetryableAPIError determines if a Data API error is worth one more
// attempt inside the call budget.
func isRetryableAPIError(err error) bool {
	if err == nil {
		return false
	}

	// Permanent conditions.
	if errors.Is(err, ErrChannelNotFound) || errors.Is(err, ErrBreakerOpen) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	// A per-call deadline firing leaves the invocation context alive, so the
	// retry attempt still has budget.
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	if strings.Contains(err.Error(), "quotaExceeded") ||
		strings.Contains(err.Error(), "rateLimitExceeded") {
		return true
	}

	return true
}
