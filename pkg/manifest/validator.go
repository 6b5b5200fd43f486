package manifest

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"path"
	"strings"

	"github.com/pkg/errors"

	"github.com/vodforge/vodforge/pkg/logging"
	"github.com/vodforge/vodforge/pkg/objectstore"
)

// Fetcher is the read path used to retrieve playlist text. The transfer
// engine satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, ref objectstore.ObjectRef) ([]byte, error)
}

// Validator reconciles the duration published in an adaptive-streaming
// manifest against the duration recorded in the metadata store.
type Validator struct {
	fetcher Fetcher
	logger  logging.Interface
}

// NewValidator constructs a manifest validator.
func NewValidator(fetcher Fetcher, logger logging.Interface) *Validator {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Validator{fetcher: fetcher, logger: logger}
}

// ReconcileDuration fetches the master manifest, follows its best variant
// to the media playlist, sums the segment durations, and compares against
// the recorded duration. A nil return means the durations agree within
// the tolerance. Failures come back as *Error with a distinct code per
// failure mode, so a batch caller can record them without aborting.
func (v *Validator) ReconcileDuration(ctx context.Context, master objectstore.ObjectRef, recordedMillis int64, toleranceSeconds float64) error {
	masterText, err := v.fetcher.Fetch(ctx, master)
	if err != nil {
		return newError(CodeFetchFailed,
			fmt.Sprintf("fetching master manifest %s", master),
			errors.Wrap(err, "master manifest read"))
	}

	variants := ParseMasterPlaylist(string(masterText))
	best, ok := SelectBestVariant(variants)
	if !ok {
		return newError(CodeNoVariants,
			fmt.Sprintf("master manifest %s declares no variants", master), nil)
	}

	mediaRef, err := v.ResolveVariantRef(master, best.URI)
	if err != nil {
		return newError(CodeVariantUnresolved,
			fmt.Sprintf("resolving variant %q of %s", best.URI, master), err)
	}

	mediaText, err := v.fetcher.Fetch(ctx, mediaRef)
	if err != nil {
		return newError(CodeFetchFailed,
			fmt.Sprintf("fetching media playlist %s", mediaRef),
			errors.Wrap(err, "media playlist read"))
	}

	manifestSeconds := SumSegmentDurations(string(mediaText))
	recordedSeconds := int64(math.Round(float64(recordedMillis) / 1000))
	diff := manifestSeconds - recordedSeconds
	if diff < 0 {
		diff = -diff
	}

	v.logger.WithField("master", master.String()).
		WithField("variant_bandwidth", best.Bandwidth).
		WithField("manifest_seconds", manifestSeconds).
		WithField("recorded_seconds", recordedSeconds).
		Debug("Reconciled manifest duration")

	if float64(diff) > toleranceSeconds {
		return &Error{
			Code: CodeDurationMismatch,
			Message: fmt.Sprintf("manifest duration %ds differs from recorded %ds by %ds",
				manifestSeconds, recordedSeconds, diff),
			Details: map[string]interface{}{
				"manifestSeconds": manifestSeconds,
				"recordedSeconds": recordedSeconds,
				"diffSeconds":     diff,
			},
		}
	}
	return nil
}

// ResolveVariantRef resolves a variant URI against its master playlist's
// location. Absolute URIs contribute their own bucket (the first label of
// the host) and path; relative URIs resolve against the POSIX directory
// of the master's key with dot segments normalized.
func (v *Validator) ResolveVariantRef(master objectstore.ObjectRef, uri string) (objectstore.ObjectRef, error) {
	if uri == "" {
		return objectstore.ObjectRef{}, errors.New("empty variant URI")
	}

	if parsed, err := url.Parse(uri); err == nil && parsed.Scheme != "" && parsed.Host != "" {
		bucket := parsed.Host
		if idx := strings.IndexByte(bucket, '.'); idx > 0 {
			bucket = bucket[:idx]
		}
		key := strings.TrimPrefix(parsed.Path, "/")
		if key == "" {
			return objectstore.ObjectRef{}, errors.Errorf("absolute variant URI %q has no object path", uri)
		}
		return objectstore.ObjectRef{Bucket: bucket, Key: key}, nil
	}

	dir := path.Dir(master.Key)
	key := path.Clean(path.Join(dir, uri))
	if key == ".." || strings.HasPrefix(key, "../") {
		return objectstore.ObjectRef{}, errors.Errorf("variant URI %q escapes the manifest directory", uri)
	}
	return objectstore.ObjectRef{Bucket: master.Bucket, Key: key}, nil
}
