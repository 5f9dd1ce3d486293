package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentica-backend/internal/models"
)

type stubComment struct {
	Author    string
	Text      string
	Likes     int64
	Published string
}

func makeComments(n int) []stubComment {
	out := make([]stubComment, n)
	for i := range out {
		out[i] = stubComment{
			Author:    fmt.Sprintf("user%d", i),
			Text:      fmt.Sprintf("comment number %d", i),
			Likes:     int64(i % 7),
			Published: time.Date(2024, 3, 1+i%28, i%24, 0, 0, 0, time.UTC).Format(time.RFC3339),
		}
	}
	return out
}

// newCommentServer serves comments in pages of pageSize using numeric
// continuation tokens.
func newCommentServer(t *testing.T, comments []stubComment, pageSize int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/commentThreads"):
			calls.Add(1)
			if r.URL.Query().Get("key") != "test-key" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			start, _ := strconv.Atoi(r.URL.Query().Get("pageToken"))
			end := min(start+pageSize, len(comments))

			items := make([]map[string]any, 0, end-start)
			for _, c := range comments[start:end] {
				items = append(items, map[string]any{
					"snippet": map[string]any{
						"topLevelComment": map[string]any{
							"snippet": map[string]any{
								"authorDisplayName": c.Author,
								"textDisplay":       c.Text,
								"likeCount":         c.Likes,
								"publishedAt":       c.Published,
							},
						},
					},
				})
			}
			body := map[string]any{"items": items}
			if end < len(comments) {
				body["nextPageToken"] = strconv.Itoa(end)
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(body)
		case strings.HasSuffix(r.URL.Path, "/videos"):
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"items":[{"snippet":{"title":"Stub Video","channelTitle":"Stub Channel","publishedAt":"2024-01-02T03:04:05Z"},"statistics":{"viewCount":"1200","likeCount":"34","commentCount":"5"}}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestYouTube(t *testing.T, baseURL, key string) *YouTubeService {
	t.Helper()
	svc, err := NewYouTubeService(context.Background(), YouTubeOptions{
		APIKey:        key,
		BaseURL:       baseURL,
		Timeout:       5 * time.Second,
		MaxRetries:    3,
		RetryInterval: time.Millisecond,
	})
	require.NoError(t, err)
	return svc
}

func TestFetchAll_PaginationInvariant(t *testing.T) {
	for _, n := range []int{0, 1, 250} {
		comments := makeComments(n)

		single, _ := newCommentServer(t, comments, 100_000)
		many, calls := newCommentServer(t, comments, 7)

		got1, err := FetchAll(context.Background(), newTestYouTube(t, single.URL, "test-key"), "abcdefghijk", nil)
		require.NoError(t, err)
		got2, err := FetchAll(context.Background(), newTestYouTube(t, many.URL, "test-key"), "abcdefghijk", nil)
		require.NoError(t, err)

		assert.Len(t, got1, n, "n=%d", n)
		assert.Equal(t, got1, got2, "n=%d", n)
		wantCalls := max(1, (n+6)/7)
		assert.Equal(t, int32(wantCalls), calls.Load(), "n=%d", n)
	}
}

func TestFetchAll_NormalizesRecords(t *testing.T) {
	comments := []stubComment{{Author: "a", Text: "hi", Likes: 3, Published: "2024-05-06T07:08:09Z"}, {Author: "b", Text: "yo", Published: "garbage"}}
	srv, _ := newCommentServer(t, comments, 100)

	got, err := FetchAll(context.Background(), newTestYouTube(t, srv.URL, "test-key"), "abcdefghijk", nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.CommentRecord{Author: "a", Text: "hi", Likes: 3, PublishedAt: "2024-05-06 07:08:09"}, got[0])
	assert.Equal(t, "", got[1].PublishedAt)
	assert.Equal(t, 0, got[1].Likes)
}

func TestFetchAll_MissingKeyIsConfigurationError(t *testing.T) {
	svc := newTestYouTube(t, "http://127.0.0.1:1", "")
	_, err := FetchAll(context.Background(), svc, "abcdefghijk", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration), "got %v", err)
	assert.True(t, errors.Is(svc.Ready(), ErrConfiguration))
	assert.NoError(t, newTestYouTube(t, "http://127.0.0.1:1", "test-key").Ready())
}

func TestFetchAll_NonSuccessAborts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n == 1 {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"items":[{"snippet":{"topLevelComment":{"snippet":{"authorDisplayName":"a","textDisplay":"x","likeCount":1}}}}],"nextPageToken":"p2"}`)
			return
		}
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"code":403,"message":"commentsDisabled"}}`)
	}))
	defer srv.Close()

	records, err := FetchAll(context.Background(), newTestYouTube(t, srv.URL, "test-key"), "abcdefghijk", nil)
	require.Error(t, err)
	assert.Nil(t, records, "partial results must not be returned")
	assert.True(t, errors.Is(err, ErrRemoteStatus), "got %v", err)
	assert.Equal(t, int32(2), calls.Load(), "403 must not be retried")
}

func TestFetchAll_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"items":[]}`)
	}))
	defer srv.Close()

	records, err := FetchAll(context.Background(), newTestYouTube(t, srv.URL, "test-key"), "abcdefghijk", nil)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchAll_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := FetchAll(context.Background(), newTestYouTube(t, srv.URL, "test-key"), "abcdefghijk", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRemoteStatus), "got %v", err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchMetadata(t *testing.T) {
	srv, _ := newCommentServer(t, nil, 100)
	meta := newTestYouTube(t, srv.URL, "test-key").FetchMetadata(context.Background(), "abcdefghijk")

	assert.Equal(t, "Stub Video", meta.Title)
	assert.Equal(t, "Stub Channel", meta.Channel)
	assert.Equal(t, int64(1200), meta.ViewCount)
	assert.Equal(t, int64(5), meta.CommentCount)
}

func TestFetchMetadata_DegradesToDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	meta := newTestYouTube(t, srv.URL, "test-key").FetchMetadata(context.Background(), "abcdefghijk")
	assert.Equal(t, models.DefaultVideoMetadata("abcdefghijk"), meta)

	noKey := newTestYouTube(t, srv.URL, "").FetchMetadata(context.Background(), "abcdefghijk")
	assert.Equal(t, models.DefaultVideoMetadata("abcdefghijk"), noKey)
}

func TestParseVideoID(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://youtu.be/dQw4w9WgXcQ?t=10", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"not a url", "", true},
		{"", "", true},
	}

	for _, tc := range tests {
		got, err := ParseVideoID(tc.url)
		if tc.wantErr {
			assert.True(t, errors.Is(err, ErrValidation), "url %q: got %v", tc.url, err)
			continue
		}
		require.NoError(t, err, tc.url)
		assert.Equal(t, tc.want, got, tc.url)
	}
}
