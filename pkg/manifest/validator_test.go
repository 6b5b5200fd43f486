package manifest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vodforge/vodforge/pkg/objectstore"
)

type fakeFetcher struct {
	texts map[string]string
}

func (f *fakeFetcher) Fetch(ctx context.Context, ref objectstore.ObjectRef) ([]byte, error) {
	text, ok := f.texts[ref.String()]
	if !ok {
		return nil, objectstore.NewError("Get", ref, "fake", objectstore.ErrNotFound, errors.New("missing"))
	}
	return []byte(text), nil
}

func masterRef() objectstore.ObjectRef {
	return objectstore.ObjectRef{Bucket: "media", Key: "episodes/my-show/master.m3u8"}
}

func newFixture(mediaPlaylist string) *fakeFetcher {
	master := "#EXTM3U\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=500000\nlow/media.m3u8\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=1200000\nhigh/media.m3u8\n"

	return &fakeFetcher{texts: map[string]string{
		masterRef().String():                     master,
		"media/episodes/my-show/high/media.m3u8": mediaPlaylist,
	}}
}

func TestReconcileDurationWithinTolerance(t *testing.T) {
	media := "#EXTINF:9.009,\n0.ts\n#EXTINF:9.009,\n1.ts\n#EXTINF:4.004,\n2.ts\n"
	v := NewValidator(newFixture(media), nil)

	// 22s in the playlist vs 22.1s recorded, tolerance 2s.
	err := v.ReconcileDuration(context.Background(), masterRef(), 22100, 2)
	assert.NoError(t, err)
}

func TestReconcileDurationMismatch(t *testing.T) {
	media := "#EXTINF:9.0,\n0.ts\n#EXTINF:9.0,\n1.ts\n"
	v := NewValidator(newFixture(media), nil)

	err := v.ReconcileDuration(context.Background(), masterRef(), 60000, 2)
	require.Error(t, err)

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, CodeDurationMismatch, verr.Code)
	assert.Equal(t, int64(18), verr.Details["manifestSeconds"])
	assert.Equal(t, int64(60), verr.Details["recordedSeconds"])
	assert.Equal(t, int64(42), verr.Details["diffSeconds"])
}

func TestReconcileDurationNoVariants(t *testing.T) {
	fetcher := &fakeFetcher{texts: map[string]string{
		masterRef().String(): "#EXTM3U\n#EXT-X-VERSION:6\n",
	}}
	v := NewValidator(fetcher, nil)

	err := v.ReconcileDuration(context.Background(), masterRef(), 1000, 2)
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, CodeNoVariants, verr.Code)
}

func TestReconcileDurationMasterFetchFailure(t *testing.T) {
	v := NewValidator(&fakeFetcher{texts: map[string]string{}}, nil)

	err := v.ReconcileDuration(context.Background(), masterRef(), 1000, 2)
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, CodeFetchFailed, verr.Code)
	assert.True(t, objectstore.IsNotFound(err))
}

func TestReconcileDurationMediaFetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{texts: map[string]string{
		masterRef().String(): "#EXT-X-STREAM-INF:BANDWIDTH=100\ngone/media.m3u8\n",
	}}
	v := NewValidator(fetcher, nil)

	err := v.ReconcileDuration(context.Background(), masterRef(), 1000, 2)
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, CodeFetchFailed, verr.Code)
}

func TestResolveVariantRefRelative(t *testing.T) {
	v := NewValidator(nil, nil)

	ref, err := v.ResolveVariantRef(masterRef(), "720p/media.m3u8")
	require.NoError(t, err)
	assert.Equal(t, objectstore.ObjectRef{Bucket: "media", Key: "episodes/my-show/720p/media.m3u8"}, ref)
}

func TestResolveVariantRefDotSegments(t *testing.T) {
	v := NewValidator(nil, nil)

	ref, err := v.ResolveVariantRef(masterRef(), "../other-show/./hd/media.m3u8")
	require.NoError(t, err)
	assert.Equal(t, "episodes/other-show/hd/media.m3u8", ref.Key)

	_, err = v.ResolveVariantRef(objectstore.ObjectRef{Bucket: "media", Key: "master.m3u8"}, "../../escape.m3u8")
	assert.Error(t, err)
}

func TestResolveVariantRefAbsolute(t *testing.T) {
	v := NewValidator(nil, nil)

	ref, err := v.ResolveVariantRef(masterRef(), "https://archive.store.example.com/episodes/my-show/hd/media.m3u8")
	require.NoError(t, err)
	assert.Equal(t, objectstore.ObjectRef{Bucket: "archive", Key: "episodes/my-show/hd/media.m3u8"}, ref)
}

func TestResolveVariantRefEmpty(t *testing.T) {
	v := NewValidator(nil, nil)
	_, err := v.ResolveVariantRef(masterRef(), "")
	assert.Error(t, err)
}
