package integrity

import "time"

// Severity grades an integrity issue.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Issue codes raised by the scanner rules. Duration reconciliation
// failures additionally surface the manifest validator's own codes.
const (
	CodeMissingCore           = "MISSING_CORE"
	CodeMissingRequiredKey    = "MISSING_REQUIRED_KEY"
	CodeManifestWithoutMedia  = "MANIFEST_WITHOUT_MEDIA"
	CodeNonPositiveDuration   = "NON_POSITIVE_DURATION"
	CodeProcessingDoneMissing = "PROCESSING_DONE_MISSING_URLS"
	CodeMissingObject         = "MISSING_OBJECT"
	CodeObjectCheckFailed     = "OBJECT_CHECK_FAILED"
	CodeRecordUnavailable     = "RECORD_UNAVAILABLE"
)

// Issue is one finding against one record. Issues only live for the
// scan that produced them.
type Issue struct {
	RecordID string
	Severity Severity
	Code     string
	Message  string
	Details  map[string]interface{}
}

// Summary aggregates one scan pass. OK counts records with no issue at
// all minus additional distinct (record, code) pairs, clamped at zero.
type Summary struct {
	Scanned  int
	OK       int
	Warnings int
	Errors   int
	Issues   []Issue

	StartedAt   time.Time
	CompletedAt time.Time
	Elapsed     time.Duration
}

func summarize(scanned int, issues []Issue, startedAt, completedAt time.Time) *Summary {
	s := &Summary{
		Scanned:     scanned,
		Issues:      issues,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		Elapsed:     completedAt.Sub(startedAt),
	}

	type pair struct {
		id   string
		code string
	}
	distinct := make(map[pair]struct{})
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityError:
			s.Errors++
		default:
			s.Warnings++
		}
		distinct[pair{issue.RecordID, issue.Code}] = struct{}{}
	}

	s.OK = scanned - len(distinct)
	if s.OK < 0 {
		s.OK = 0
	}
	return s
}
