package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	yt "github.com/kkdai/youtube/v2"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"sentica-backend/internal/logging"
	"sentica-backend/internal/models"
)

const commentPageSize = 100

// CommentSource yields the comment-thread listing of a video page by page.
// Ready reports a configuration problem without making any request.
type CommentSource interface {
	Ready() error
	Pages(ctx context.Context, videoID string) iter.Seq2[models.CommentPage, error]
}

// MetadataSource returns best-effort video metadata. It never fails.
type MetadataSource interface {
	FetchMetadata(ctx context.Context, videoID string) models.VideoMetadata
}

type YouTubeOptions struct {
	APIKey          string
	BaseURL         string // overrides the Data API endpoint, e.g. for a local stub
	Timeout         time.Duration
	MetadataTimeout time.Duration
	MaxRetries      int
	RetryInterval   time.Duration
	PagesPerSecond  float64
	// WatchPageFallback scrapes the public watch page for metadata when no
	// API key is configured.
	WatchPageFallback bool
	Transport         http.RoundTripper
	Logger            *slog.Logger
}

type YouTubeService struct {
	api               *youtube.Service
	ytClient          *yt.Client
	limiter           *rate.Limiter
	metadataTimeout   time.Duration
	maxRetries        int
	retryInterval     time.Duration
	watchPageFallback bool
	logger            *slog.Logger
}

func NewYouTubeService(ctx context.Context, opts YouTubeOptions) (*YouTubeService, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MetadataTimeout <= 0 {
		opts.MetadataTimeout = 20 * time.Second
	}
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 500 * time.Millisecond
	}
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	limit := rate.Inf
	if opts.PagesPerSecond > 0 {
		limit = rate.Limit(opts.PagesPerSecond)
	}

	s := &YouTubeService{
		ytClient:          &yt.Client{HTTPClient: &http.Client{Timeout: opts.Timeout, Transport: base}},
		limiter:           rate.NewLimiter(limit, 1),
		metadataTimeout:   opts.MetadataTimeout,
		maxRetries:        opts.MaxRetries,
		retryInterval:     opts.RetryInterval,
		watchPageFallback: opts.WatchPageFallback,
		logger:            logging.OrDiscard(opts.Logger),
	}

	if strings.TrimSpace(opts.APIKey) == "" {
		return s, nil
	}

	httpClient := &http.Client{
		Timeout:   opts.Timeout,
		Transport: &transport.APIKey{Key: opts.APIKey, Transport: base},
	}
	clientOpts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(strings.TrimRight(opts.BaseURL, "/")+"/"))
	}
	api, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, Wrap(ErrConfiguration, "youtube", "new service", "", err)
	}
	s.api = api
	return s, nil
}

// Ready fails with ErrConfiguration when no API key was given.
func (s *YouTubeService) Ready() error {
	if s.api == nil {
		return Wrap(ErrConfiguration, "fetch", "comments", "YOUTUBE_API_KEY is not set", nil)
	}
	return nil
}

// Pages walks commentThreads.list until the API stops returning a
// continuation token. The first error ends the sequence.
func (s *YouTubeService) Pages(ctx context.Context, videoID string) iter.Seq2[models.CommentPage, error] {
	return func(yield func(models.CommentPage, error) bool) {
		if err := s.Ready(); err != nil {
			yield(models.CommentPage{}, err)
			return
		}

		token := ""
		seen := make(map[string]bool)
		for {
			if err := s.limiter.Wait(ctx); err != nil {
				yield(models.CommentPage{}, Wrap(ErrTransient, "fetch", "comments", "page pacing", err))
				return
			}

			resp, err := s.listCommentThreads(ctx, videoID, token)
			if err != nil {
				yield(models.CommentPage{}, err)
				return
			}

			page := models.CommentPage{
				Records:       flattenThreads(resp.Items),
				NextPageToken: resp.NextPageToken,
			}
			if !yield(page, nil) {
				return
			}

			if resp.NextPageToken == "" {
				return
			}
			if seen[resp.NextPageToken] {
				yield(models.CommentPage{}, Wrap(ErrRemoteStatus, "fetch", "comments", "continuation token repeated", nil))
				return
			}
			seen[resp.NextPageToken] = true
			token = resp.NextPageToken
		}
	}
}

func (s *YouTubeService) listCommentThreads(ctx context.Context, videoID, token string) (*youtube.CommentThreadListResponse, error) {
	op := func() (*youtube.CommentThreadListResponse, error) {
		call := s.api.CommentThreads.List([]string{"snippet"}).
			VideoId(videoID).
			MaxResults(commentPageSize).
			Order("relevance").
			TextFormat("plainText").
			Context(ctx)
		if token != "" {
			call = call.PageToken(token)
		}
		resp, err := call.Do()
		if err != nil {
			if isRetryable(err) {
				s.logger.Warn("comment page request failed, retrying",
					slog.String("video_id", videoID),
					slog.String("error", err.Error()))
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return resp, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.retryInterval
	resp, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(s.maxRetries)),
		backoff.WithMaxElapsedTime(2*time.Minute),
	)
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return nil, Wrap(ErrRemoteStatus, "fetch", "commentThreads.list", fmt.Sprintf("status %d", apiErr.Code), err)
		}
		return nil, Wrap(ErrTransient, "fetch", "commentThreads.list", "", err)
	}
	return resp, nil
}

func isRetryable(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func flattenThreads(items []*youtube.CommentThread) []models.CommentRecord {
	records := make([]models.CommentRecord, 0, len(items))
	for _, item := range items {
		if item == nil || item.Snippet == nil || item.Snippet.TopLevelComment == nil || item.Snippet.TopLevelComment.Snippet == nil {
			continue
		}
		sn := item.Snippet.TopLevelComment.Snippet
		likes := sn.LikeCount
		if likes < 0 {
			likes = 0
		}
		records = append(records, models.CommentRecord{
			Author:      sn.AuthorDisplayName,
			Text:        sn.TextDisplay,
			Likes:       int(likes),
			PublishedAt: NormalizeTimestamp(sn.PublishedAt),
		})
	}
	return records
}

// FetchAll drains src into a single slice. onPage, if set, is called after
// every page with the page number and the running total.
func FetchAll(ctx context.Context, src CommentSource, videoID string, onPage func(page, total int)) ([]models.CommentRecord, error) {
	all := []models.CommentRecord{}
	n := 0
	for page, err := range src.Pages(ctx, videoID) {
		if err != nil {
			return nil, err
		}
		n++
		all = append(all, page.Records...)
		if onPage != nil {
			onPage(n, len(all))
		}
	}
	return all, nil
}

// FetchMetadata returns video metadata, falling back to defaults on any error.
func (s *YouTubeService) FetchMetadata(ctx context.Context, videoID string) models.VideoMetadata {
	ctx, cancel := context.WithTimeout(ctx, s.metadataTimeout)
	defer cancel()

	if s.api == nil {
		if s.watchPageFallback {
			return s.metadataFromWatchPage(ctx, videoID)
		}
		return models.DefaultVideoMetadata(videoID)
	}

	resp, err := s.api.Videos.List([]string{"snippet", "statistics"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		s.logger.Warn("video metadata unavailable, using defaults",
			slog.String("video_id", videoID),
			slog.String("error", err.Error()))
		return models.DefaultVideoMetadata(videoID)
	}
	if len(resp.Items) == 0 {
		return models.DefaultVideoMetadata(videoID)
	}

	meta := models.DefaultVideoMetadata(videoID)
	item := resp.Items[0]
	if item.Snippet != nil {
		if item.Snippet.Title != "" {
			meta.Title = item.Snippet.Title
		}
		if item.Snippet.ChannelTitle != "" {
			meta.Channel = item.Snippet.ChannelTitle
		}
		meta.PublishedAt = item.Snippet.PublishedAt
	}
	if item.Statistics != nil {
		meta.ViewCount = int64(item.Statistics.ViewCount)
		meta.LikeCount = int64(item.Statistics.LikeCount)
		meta.CommentCount = int64(item.Statistics.CommentCount)
	}
	return meta
}

func (s *YouTubeService) metadataFromWatchPage(ctx context.Context, videoID string) models.VideoMetadata {
	meta := models.DefaultVideoMetadata(videoID)
	video, err := s.ytClient.GetVideoContext(ctx, videoID)
	if err != nil {
		s.logger.Warn("watch page metadata unavailable, using defaults",
			slog.String("video_id", videoID),
			slog.String("error", err.Error()))
		return meta
	}
	if video.Title != "" {
		meta.Title = video.Title
	}
	if video.Author != "" {
		meta.Channel = video.Author
	}
	if !video.PublishDate.IsZero() {
		meta.PublishedAt = video.PublishDate.UTC().Format(time.RFC3339)
	}
	meta.ViewCount = int64(video.Views)
	return meta
}

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/(?:watch\?(?:.*&)?v=|embed/|shorts/|live/)|youtu\.be/)([\w-]{11})`),
	regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})`),
}

// ParseVideoID extracts the 11-character video identifier from a YouTube URL.
func ParseVideoID(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(rawURL); len(m) > 1 {
			return m[1], nil
		}
	}
	return "", Wrap(ErrValidation, "", "", "Invalid YouTube URL", nil)
}
