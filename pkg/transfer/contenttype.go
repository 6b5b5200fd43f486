package transfer

import (
	"path"
	"strings"
)

const defaultContentType = "application/octet-stream"

// Fixed extension table for the media types this pipeline publishes.
var contentTypeByExt = map[string]string{
	".mp4":  "video/mp4",
	".m4a":  "audio/mp4",
	".mp3":  "audio/mpeg",
	".aac":  "audio/aac",
	".wav":  "audio/wav",
	".m3u8": "application/vnd.apple.mpegurl",
	".ts":   "video/mp2t",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".json": "application/json",
	".vtt":  "text/vtt",
	".srt":  "application/x-subrip",
	".txt":  "text/plain",
}

// InferContentType maps a file extension to a content type, defaulting to
// an opaque binary type.
func InferContentType(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ct, ok := contentTypeByExt[ext]; ok {
		return ct
	}
	return defaultContentType
}
