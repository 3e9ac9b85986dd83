package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mediagrab/internal/model"
	"mediagrab/pkg/logger"

	"go.uber.org/zap"
)

// thumbnailPreference orders thumbnail keys highest resolution first.
var thumbnailPreference = []string{"maxres", "high", "medium", "default"}

// MetadataService resolves video URLs against the catalog API
type MetadataService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewMetadataService creates a new metadata service
func NewMetadataService(cfg *model.CatalogConfig) *MetadataService {
	return &MetadataService{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

// catalogResponse mirrors the catalog API's videos.list document.
type catalogResponse struct {
	Items []struct {
		Snippet struct {
			Title        string               `json:"title"`
			ChannelTitle string               `json:"channelTitle"`
			Thumbnails   map[string]thumbnail `json:"thumbnails"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type thumbnail struct {
	URL string `json:"url"`
}

// Resolve extracts the video ID from videoURL and fetches its metadata.
func (s *MetadataService) Resolve(ctx context.Context, videoURL string) (*model.Metadata, error) {
	videoID, err := ExtractVideoID(videoURL)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/videos?id=%s&key=%s&part=snippet,contentDetails",
		s.baseURL, url.QueryEscape(videoID), url.QueryEscape(s.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		logger.Logger.Error("Catalog request failed", zap.Error(err), zap.String("video_id", videoID))
		return nil, fmt.Errorf("%w: %v", model.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Logger.Warn("Non-OK status from catalog API",
			zap.Int("status", resp.StatusCode), zap.String("video_id", videoID))
		return nil, fmt.Errorf("%w: status %d", model.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var doc catalogResponse
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUpstreamUnavailable, err)
	}

	if len(doc.Items) == 0 {
		return nil, model.ErrNotFound
	}

	item := doc.Items[0]

	durationSeconds, err := parseISODuration(item.ContentDetails.Duration)
	if err != nil {
		logger.Logger.Warn("Unparseable duration in catalog response",
			zap.String("duration", item.ContentDetails.Duration), zap.Error(err))
		durationSeconds = 0
	}

	meta := &model.Metadata{
		Title:           item.Snippet.Title,
		Author:          item.Snippet.ChannelTitle,
		DurationSeconds: durationSeconds,
		ThumbnailURL:    pickThumbnail(item.Snippet.Thumbnails),
		VideoQualities:  model.StandardVideoQualities,
		AudioQualities:  model.StandardAudioQualities,
	}

	logger.Logger.Info("Video metadata resolved",
		zap.String("video_id", videoID),
		zap.String("title", meta.Title),
		zap.Int("duration_seconds", meta.DurationSeconds))

	return meta, nil
}

// ExtractVideoID pulls the video ID out of the four accepted URL shapes:
// youtu.be short links, watch links, shorts links and embed links.
func ExtractVideoID(videoURL string) (string, error) {
	u, err := url.Parse(videoURL)
	if err != nil {
		return "", model.ErrInvalidURL
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	path := strings.Trim(u.Path, "/")

	var videoID string
	switch {
	case host == "youtu.be":
		videoID = firstSegment(path)
	case strings.HasSuffix(host, "youtube.com") && path == "watch":
		videoID = u.Query().Get("v")
	case strings.HasSuffix(host, "youtube.com") && strings.HasPrefix(path, "shorts/"):
		videoID = firstSegment(strings.TrimPrefix(path, "shorts/"))
	case strings.HasSuffix(host, "youtube.com") && strings.HasPrefix(path, "embed/"):
		videoID = firstSegment(strings.TrimPrefix(path, "embed/"))
	}

	if videoID == "" {
		return "", model.ErrInvalidURL
	}
	return videoID, nil
}

func firstSegment(path string) string {
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}

// parseISODuration converts a compact ISO-8601 duration such as "PT1H21M54S"
// to total seconds. Each of the H, M and S components is optional; "PT" alone
// is zero seconds.
func parseISODuration(duration string) (int, error) {
	rest, ok := strings.CutPrefix(duration, "PT")
	if !ok {
		return 0, fmt.Errorf("malformed duration %q", duration)
	}

	total := 0
	for _, unit := range []struct {
		marker  string
		seconds int
	}{
		{"H", 3600},
		{"M", 60},
		{"S", 1},
	} {
		value, after, found := strings.Cut(rest, unit.marker)
		if !found {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("malformed duration %q", duration)
		}
		total += n * unit.seconds
		rest = after
	}

	return total, nil
}

// pickThumbnail returns the URL of the best available thumbnail, or an empty
// string when none of the preferred keys exist.
func pickThumbnail(thumbnails map[string]thumbnail) string {
	for _, key := range thumbnailPreference {
		if t, ok := thumbnails[key]; ok && t.URL != "" {
			return t.URL
		}
	}
	return ""
}
