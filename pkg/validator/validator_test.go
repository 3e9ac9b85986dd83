package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var allowedDomains = []string{"youtube.com", "youtu.be"}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.youtube.com/watch?v=abc123", true},
		{"https://youtube.com/shorts/abc123", true},
		{"https://m.youtube.com/watch?v=abc123", true},
		{"https://youtu.be/abc123", true},
		{"https://example.com/watch?v=abc123", false},
		{"https://notyoutube.com/watch?v=abc123", false},
		{"https://youtube.com.evil.com/watch", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateURL(tt.url, allowedDomains))
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Plain Title", "Plain Title"},
		{`A/B\C:D*E?F"G<H>I|J`, "A_B_C_D_E_F_G_H_I_J"},
		{"half: the * story?", "half_ the _ story_"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.input))
	}
}

func TestTruncateFilename(t *testing.T) {
	assert.Equal(t, "short.mp3", TruncateFilename("short.mp3", 20))
	assert.Equal(t, "abcde.mp3", TruncateFilename("abcdefghij.mp3", 9))
	assert.Equal(t, "abcdefghij", TruncateFilename("abcdefghijklm", 10))

	// Rune-safe truncation of multi-byte titles.
	got := TruncateFilename("ありがとうございました.mp3", 8)
	assert.Equal(t, "ありがと.mp3", got)
}
