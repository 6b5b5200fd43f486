package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferContentType(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"episodes/my-show/video.mp4", "video/mp4"},
		{"episodes/my-show/master.M3U8", "application/vnd.apple.mpegurl"},
		{"episodes/my-show/seg_001.ts", "video/mp2t"},
		{"episodes/my-show/audio.mp3", "audio/mpeg"},
		{"episodes/my-show/cover.jpeg", "image/jpeg"},
		{"episodes/my-show/blob", "application/octet-stream"},
		{"episodes/my-show/archive.xyz", "application/octet-stream"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, InferContentType(tt.key), tt.key)
	}
}
