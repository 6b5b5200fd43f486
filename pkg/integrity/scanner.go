package integrity

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/vodforge/vodforge/pkg/logging"
	"github.com/vodforge/vodforge/pkg/manifest"
	"github.com/vodforge/vodforge/pkg/metadata"
	"github.com/vodforge/vodforge/pkg/metrics"
	"github.com/vodforge/vodforge/pkg/objectstore"
)

// Additional-data keys holding the published media locations.
const (
	keyMasterManifest = "master_m3u8"
	keyVideoLocation  = "videoLocation"
	keyAudioLocation  = "audioLocation"
	keyThumbnail      = "thumbnail"
	keyNestedURLs     = "urls"
)

// ExistenceChecker answers whether an object is present in the store.
// The transfer engine satisfies it.
type ExistenceChecker interface {
	Exists(ctx context.Context, ref objectstore.ObjectRef) (bool, error)
}

// DurationReconciler compares a recorded duration against the one
// derived from a master manifest. The manifest validator satisfies it.
type DurationReconciler interface {
	ReconcileDuration(ctx context.Context, master objectstore.ObjectRef, recordedMillis int64, toleranceSeconds float64) error
}

// Scanner walks recent episode records and applies the integrity rule
// set to each. One Scan owns its issue list; scanners are safe for
// concurrent Scan calls.
type Scanner struct {
	store      metadata.Store
	checker    ExistenceChecker
	reconciler DurationReconciler
	sink       metrics.Sink
	logger     logging.Interface

	scanLimit     int
	requiredKeys  []string
	companionRule bool
	deepChecks    bool
	tolerance     float64
}

// ScanRequest narrows one scan pass. Zero values fall back to the
// scanner's configured defaults.
type ScanRequest struct {
	Limit        int
	CreatedAfter *time.Time
}

// NewScanner builds a scanner from the given configuration.
func NewScanner(config *Config) (*Scanner, error) {
	if config == nil {
		return nil, errors.New("integrity config is required")
	}
	if config.Store == nil {
		return nil, errors.New("metadata store is required")
	}

	logger := config.AnotherLogger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	sink := config.Sink
	if sink == nil {
		sink = metrics.NewNopSink()
	}
	scanLimit := config.ScanLimit
	if scanLimit <= 0 {
		scanLimit = 100
	}

	if config.DeepChecks && (config.Checker == nil || config.Reconciler == nil) {
		return nil, errors.New("deep checks require an existence checker and a duration reconciler")
	}

	return &Scanner{
		store:         config.Store,
		checker:       config.Checker,
		reconciler:    config.Reconciler,
		sink:          sink,
		logger:        logger,
		scanLimit:     scanLimit,
		requiredKeys:  config.RequiredKeys,
		companionRule: config.CheckManifestCompanion,
		deepChecks:    config.DeepChecks,
		tolerance:     config.DurationToleranceSeconds,
	}, nil
}

// Scan examines up to the requested number of recent records and
// returns the aggregated summary. Store failure while listing aborts
// the scan; per-record failures become issues and the scan continues.
func (s *Scanner) Scan(ctx context.Context, req ScanRequest) (*Summary, error) {
	startedAt := time.Now().UTC()

	limit := req.Limit
	if limit <= 0 {
		limit = s.scanLimit
	}

	ids, err := s.store.ListRecent(ctx, limit, req.CreatedAfter)
	if err != nil {
		return nil, errors.Wrap(err, "metadata store unavailable")
	}

	var issues []Issue
	for _, id := range ids {
		record, err := s.store.GetByID(ctx, id)
		if err != nil || record == nil {
			issues = append(issues, Issue{
				RecordID: id,
				Severity: SeverityError,
				Code:     CodeRecordUnavailable,
				Message:  fmt.Sprintf("record %s could not be loaded", id),
			})
			continue
		}
		issues = append(issues, s.checkRecord(ctx, record)...)
	}

	summary := summarize(len(ids), issues, startedAt, time.Now().UTC())
	s.logger.WithField("scanned", summary.Scanned).
		WithField("ok", summary.OK).
		WithField("warnings", summary.Warnings).
		WithField("errors", summary.Errors).
		WithField("elapsed", summary.Elapsed.String()).
		Info("Completed integrity scan")

	s.emitSummary(summary)
	return summary, nil
}

// checkRecord applies every rule; rules never short-circuit each other.
func (s *Scanner) checkRecord(ctx context.Context, record *metadata.EpisodeRecord) []Issue {
	var issues []Issue

	issues = append(issues, s.checkCoreFields(record)...)
	issues = append(issues, s.checkRequiredKeys(record)...)
	if s.companionRule {
		issues = append(issues, s.checkManifestCompanion(record)...)
	}
	issues = append(issues, s.checkDuration(record)...)
	issues = append(issues, s.checkProcessingDone(record)...)
	if s.deepChecks {
		issues = append(issues, s.checkObjectExistence(ctx, record)...)
		issues = append(issues, s.checkManifestDuration(ctx, record)...)
	}
	return issues
}

func (s *Scanner) checkCoreFields(record *metadata.EpisodeRecord) []Issue {
	var missing []string
	if strings.TrimSpace(record.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(record.ChannelID) == "" {
		missing = append(missing, "channelId")
	}
	if len(missing) == 0 {
		return nil
	}
	return []Issue{{
		RecordID: record.ID,
		Severity: SeverityError,
		Code:     CodeMissingCore,
		Message:  fmt.Sprintf("core fields missing: %s", strings.Join(missing, ", ")),
		Details:  map[string]interface{}{"fields": missing},
	}}
}

func (s *Scanner) checkRequiredKeys(record *metadata.EpisodeRecord) []Issue {
	var issues []Issue
	for _, key := range s.requiredKeys {
		if value, ok := record.Additional(key); !ok || strings.TrimSpace(value) == "" {
			issues = append(issues, Issue{
				RecordID: record.ID,
				Severity: SeverityError,
				Code:     CodeMissingRequiredKey,
				Message:  fmt.Sprintf("required key %q missing or empty", key),
				Details:  map[string]interface{}{"key": key},
			})
		}
	}
	return issues
}

func (s *Scanner) checkManifestCompanion(record *metadata.EpisodeRecord) []Issue {
	if _, ok := record.Additional(keyMasterManifest); !ok {
		return nil
	}
	if _, ok := record.Additional(keyVideoLocation); ok {
		return nil
	}
	return []Issue{{
		RecordID: record.ID,
		Severity: SeverityError,
		Code:     CodeManifestWithoutMedia,
		Message:  fmt.Sprintf("%s present without companion %s", keyMasterManifest, keyVideoLocation),
	}}
}

func (s *Scanner) checkDuration(record *metadata.EpisodeRecord) []Issue {
	if record.DurationMillis > 0 {
		return nil
	}
	return []Issue{{
		RecordID: record.ID,
		Severity: SeverityWarning,
		Code:     CodeNonPositiveDuration,
		Message:  "recorded duration is zero or absent",
	}}
}

func (s *Scanner) checkProcessingDone(record *metadata.EpisodeRecord) []Issue {
	if !record.ProcessingDone {
		return nil
	}
	_, hasManifest := record.Additional(keyMasterManifest)
	_, hasVideo := record.Additional(keyVideoLocation)
	if hasManifest && hasVideo {
		return nil
	}
	return []Issue{{
		RecordID: record.ID,
		Severity: SeverityWarning,
		Code:     CodeProcessingDoneMissing,
		Message:  "processing marked done but published locations are incomplete",
	}}
}

// checkObjectExistence heads every URL-shaped value found in the
// record's known location fields, deduplicated across fields.
func (s *Scanner) checkObjectExistence(ctx context.Context, record *metadata.EpisodeRecord) []Issue {
	var issues []Issue
	for _, raw := range collectURLs(record) {
		ref, err := refFromURL(raw)
		if err != nil {
			issues = append(issues, Issue{
				RecordID: record.ID,
				Severity: SeverityError,
				Code:     CodeMissingObject,
				Message:  fmt.Sprintf("location %q does not resolve to an object", raw),
				Details:  map[string]interface{}{"url": raw},
			})
			continue
		}

		exists, err := s.checker.Exists(ctx, ref)
		if err != nil {
			issues = append(issues, Issue{
				RecordID: record.ID,
				Severity: SeverityWarning,
				Code:     CodeObjectCheckFailed,
				Message:  fmt.Sprintf("existence check for %s failed: %v", ref, err),
				Details:  map[string]interface{}{"url": raw},
			})
			continue
		}
		if !exists {
			issues = append(issues, Issue{
				RecordID: record.ID,
				Severity: SeverityError,
				Code:     CodeMissingObject,
				Message:  fmt.Sprintf("object %s referenced by record is missing", ref),
				Details:  map[string]interface{}{"url": raw},
			})
		}
	}
	return issues
}

func (s *Scanner) checkManifestDuration(ctx context.Context, record *metadata.EpisodeRecord) []Issue {
	master, ok := record.Additional(keyMasterManifest)
	if !ok || record.DurationMillis <= 0 {
		return nil
	}

	ref, err := refFromURL(master)
	if err != nil {
		// Already reported by the existence rule.
		return nil
	}

	err = s.reconciler.ReconcileDuration(ctx, ref, record.DurationMillis, s.tolerance)
	if err == nil {
		return nil
	}

	issue := Issue{
		RecordID: record.ID,
		Severity: SeverityError,
		Message:  err.Error(),
	}
	var verr *manifest.Error
	if errors.As(err, &verr) {
		issue.Code = verr.Code
		issue.Details = verr.Details
	} else {
		issue.Code = manifest.CodeFetchFailed
	}
	return []Issue{issue}
}

// collectURLs gathers the record's URL-shaped values in a stable order
// with duplicates removed.
func collectURLs(record *metadata.EpisodeRecord) []string {
	seen := make(map[string]struct{})
	var urls []string
	add := func(v interface{}) {
		raw, ok := v.(string)
		if !ok || !isURLShaped(raw) {
			return
		}
		if _, dup := seen[raw]; dup {
			return
		}
		seen[raw] = struct{}{}
		urls = append(urls, raw)
	}

	for _, key := range []string{keyVideoLocation, keyMasterManifest, keyAudioLocation, keyThumbnail} {
		if v, ok := record.Additional(key); ok {
			add(v)
		}
	}
	if record.AdditionalData != nil {
		if nested, ok := record.AdditionalData[keyNestedURLs].(map[string]interface{}); ok {
			keys := make([]string, 0, len(nested))
			for k := range nested {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				add(nested[k])
			}
		}
	}
	return urls
}

func isURLShaped(raw string) bool {
	return strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://")
}

// refFromURL maps a public object URL onto its store coordinates: the
// bucket is the first label of the host, the key is the path.
func refFromURL(raw string) (objectstore.ObjectRef, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return objectstore.ObjectRef{}, errors.Wrapf(err, "parsing location %q", raw)
	}
	if parsed.Host == "" {
		return objectstore.ObjectRef{}, errors.Errorf("location %q has no host", raw)
	}
	bucket := parsed.Host
	if idx := strings.IndexByte(bucket, '.'); idx > 0 {
		bucket = bucket[:idx]
	}
	key := strings.TrimPrefix(parsed.Path, "/")
	if key == "" {
		return objectstore.ObjectRef{}, errors.Errorf("location %q has no object path", raw)
	}
	return objectstore.ObjectRef{Bucket: bucket, Key: key}, nil
}

func (s *Scanner) emitSummary(summary *Summary) {
	emit := func(name string, value float64, dims map[string]string) {
		if err := s.sink.EmitCounter(name, value, dims); err != nil {
			s.logger.WithError(err).WithField("counter", name).
				Debug("Failed to forward scan counter")
		}
	}

	emit("integrity_scan_records_total", float64(summary.Scanned), nil)
	emit("integrity_scan_issues_total", float64(summary.Warnings),
		map[string]string{"severity": string(SeverityWarning)})
	emit("integrity_scan_issues_total", float64(summary.Errors),
		map[string]string{"severity": string(SeverityError)})
}
