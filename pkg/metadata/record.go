package metadata

import "time"

// EpisodeRecord is one published episode as the metadata store sees it.
// The integrity and transfer layers read these records; only Update
// writes back, and only through partial field maps.
type EpisodeRecord struct {
	ID             string
	Title          string
	ChannelID      string
	DurationMillis int64
	AdditionalData map[string]interface{}
	ProcessingDone bool
	DeletedAt      *time.Time
	CreatedAt      time.Time
}

// Additional returns the additional-data value for key as a string.
// Non-string and absent values both report ok=false.
func (r *EpisodeRecord) Additional(key string) (string, bool) {
	if r.AdditionalData == nil {
		return "", false
	}
	v, ok := r.AdditionalData[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// IsDeleted reports whether the record carries a soft-delete marker.
func (r *EpisodeRecord) IsDeleted() bool {
	return r.DeletedAt != nil
}
