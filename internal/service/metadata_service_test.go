package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediagrab/internal/model"
)

const demoCatalogDoc = `{
	"items": [{
		"snippet": {
			"title": "Demo",
			"channelTitle": "Chan",
			"thumbnails": {"high": {"url": "http://t/h.jpg"}}
		},
		"contentDetails": {"duration": "PT3M30S"}
	}]
}`

func newTestMetadataService(t *testing.T, handler http.HandlerFunc) *MetadataService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewMetadataService(&model.CatalogConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Timeout: 5,
	})
}

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"short link", "https://youtu.be/abc123", "abc123"},
		{"short link with query", "https://youtu.be/abc123?t=42", "abc123"},
		{"watch link", "https://www.youtube.com/watch?v=abc123", "abc123"},
		{"watch link extra params", "https://youtube.com/watch?v=abc123&list=PL1", "abc123"},
		{"shorts link", "https://www.youtube.com/shorts/abc123", "abc123"},
		{"shorts link with query", "https://youtube.com/shorts/abc123?feature=share", "abc123"},
		{"embed link", "https://www.youtube.com/embed/abc123", "abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractVideoID(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractVideoIDInvalid(t *testing.T) {
	urls := []string{
		"https://example.com/watch?v=abc123",
		"https://youtube.com/playlist?list=PL1",
		"https://youtube.com/watch",
		"https://youtu.be/",
		"not a url at all ://",
	}

	for _, u := range urls {
		_, err := ExtractVideoID(u)
		assert.ErrorIs(t, err, model.ErrInvalidURL, "url %q", u)
	}
}

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"PT1H21M54S", 4914},
		{"PT0S", 0},
		{"PT45S", 45},
		{"PT2M", 120},
		{"PT1H", 3600},
		{"PT1H30S", 3630},
		{"PT", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseISODuration(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseISODurationMalformed(t *testing.T) {
	for _, input := range []string{"", "1H2M", "PTxS", "P1D"} {
		_, err := parseISODuration(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestPickThumbnail(t *testing.T) {
	thumbs := map[string]thumbnail{
		"default": {URL: "http://t/d.jpg"},
		"high":    {URL: "http://t/h.jpg"},
		"maxres":  {URL: "http://t/m.jpg"},
	}
	assert.Equal(t, "http://t/m.jpg", pickThumbnail(thumbs))

	delete(thumbs, "maxres")
	assert.Equal(t, "http://t/h.jpg", pickThumbnail(thumbs))

	assert.Equal(t, "", pickThumbnail(map[string]thumbnail{}))
	assert.Equal(t, "", pickThumbnail(map[string]thumbnail{"banner": {URL: "http://t/b.jpg"}}))
}

func TestResolve(t *testing.T) {
	ms := newTestMetadataService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc123", r.URL.Query().Get("id"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(demoCatalogDoc))
	})

	meta, err := ms.Resolve(context.Background(), "https://youtu.be/abc123")
	require.NoError(t, err)

	assert.Equal(t, "Demo", meta.Title)
	assert.Equal(t, "Chan", meta.Author)
	assert.Equal(t, 210, meta.DurationSeconds)
	assert.Equal(t, "http://t/h.jpg", meta.ThumbnailURL)
	assert.Equal(t, model.StandardVideoQualities, meta.VideoQualities)
	assert.Equal(t, model.StandardAudioQualities, meta.AudioQualities)
}

func TestResolveInvalidURL(t *testing.T) {
	ms := newTestMetadataService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("catalog should not be called for an invalid URL")
	})

	_, err := ms.Resolve(context.Background(), "https://example.com/v/abc")
	assert.ErrorIs(t, err, model.ErrInvalidURL)
}

func TestResolveNotFound(t *testing.T) {
	ms := newTestMetadataService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": []}`))
	})

	_, err := ms.Resolve(context.Background(), "https://youtu.be/gone")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestResolveUpstreamError(t *testing.T) {
	ms := newTestMetadataService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := ms.Resolve(context.Background(), "https://youtu.be/abc123")
	assert.ErrorIs(t, err, model.ErrUpstreamUnavailable)
}
