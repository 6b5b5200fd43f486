package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMaster = `#EXTM3U
#EXT-X-VERSION:6

#EXT-X-STREAM-INF:BANDWIDTH=500000,RESOLUTION=640x360,CODECS="avc1.42e00a,mp4a.40.2"
360p/media.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=1200000,RESOLUTION=1280x720
720p/media.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=800000,RESOLUTION=960x540
540p/media.m3u8
`

func TestParseMasterPlaylist(t *testing.T) {
	variants := ParseMasterPlaylist(sampleMaster)
	require.Len(t, variants, 3)

	assert.Equal(t, int64(500000), variants[0].Bandwidth)
	assert.Equal(t, "360p/media.m3u8", variants[0].URI)
	assert.Equal(t, int64(1200000), variants[1].Bandwidth)
	assert.Equal(t, "720p/media.m3u8", variants[1].URI)
}

func TestParseMasterPlaylistAverageBandwidthFallback(t *testing.T) {
	variants := ParseMasterPlaylist("#EXT-X-STREAM-INF:AVERAGE-BANDWIDTH=950000\nmedia.m3u8\n")
	require.Len(t, variants, 1)
	assert.Equal(t, int64(950000), variants[0].Bandwidth)
}

func TestParseMasterPlaylistMissingBandwidthDefaultsZero(t *testing.T) {
	variants := ParseMasterPlaylist("#EXT-X-STREAM-INF:RESOLUTION=640x360\nmedia.m3u8\n")
	require.Len(t, variants, 1)
	assert.Equal(t, int64(0), variants[0].Bandwidth)
}

func TestParseMasterPlaylistSkipsCommentsBetweenTagAndURI(t *testing.T) {
	text := "#EXT-X-STREAM-INF:BANDWIDTH=100\n# a comment\n\nmedia.m3u8\n"
	variants := ParseMasterPlaylist(text)
	require.Len(t, variants, 1)
	assert.Equal(t, "media.m3u8", variants[0].URI)
}

func TestParseMasterPlaylistEmpty(t *testing.T) {
	assert.Empty(t, ParseMasterPlaylist("#EXTM3U\n#EXT-X-VERSION:6\n"))
	// A dangling tag with no URI line yields nothing.
	assert.Empty(t, ParseMasterPlaylist("#EXT-X-STREAM-INF:BANDWIDTH=100\n"))
}

func TestSelectBestVariant(t *testing.T) {
	variants := []Variant{
		{Bandwidth: 500000, URI: "a.m3u8"},
		{Bandwidth: 1200000, URI: "b.m3u8"},
		{Bandwidth: 800000, URI: "c.m3u8"},
	}

	best, ok := SelectBestVariant(variants)
	require.True(t, ok)
	assert.Equal(t, "b.m3u8", best.URI)
}

func TestSelectBestVariantTieKeepsFirst(t *testing.T) {
	variants := []Variant{
		{Bandwidth: 800000, URI: "first.m3u8"},
		{Bandwidth: 800000, URI: "second.m3u8"},
	}

	best, ok := SelectBestVariant(variants)
	require.True(t, ok)
	assert.Equal(t, "first.m3u8", best.URI)
}

func TestSelectBestVariantEmpty(t *testing.T) {
	_, ok := SelectBestVariant(nil)
	assert.False(t, ok)
}

func TestSumSegmentDurations(t *testing.T) {
	text := "#EXTM3U\n#EXTINF:9.009,\nseg0.ts\n#EXTINF:9.009,\nseg1.ts\n#EXTINF:4.004,\nseg2.ts\n#EXT-X-ENDLIST\n"
	assert.Equal(t, int64(22), SumSegmentDurations(text))
}

func TestSumSegmentDurationsAggregateRounding(t *testing.T) {
	// Per-segment rounding would give 1+1=2; the aggregate 2.8 rounds to 3.
	text := "#EXTINF:1.4,\na.ts\n#EXTINF:1.4,\nb.ts\n"
	assert.Equal(t, int64(3), SumSegmentDurations(text))
}

func TestSumSegmentDurationsWithTitlesAndNoise(t *testing.T) {
	text := "#EXTINF:10.0, segment title\nseg.ts\n#EXT-X-BYTERANGE:1000@0\n#EXTINF:2.5\nlast.ts\n"
	assert.Equal(t, int64(13), SumSegmentDurations(text))
}

func TestSumSegmentDurationsEmpty(t *testing.T) {
	assert.Equal(t, int64(0), SumSegmentDurations("#EXTM3U\n"))
}
