package manifest

import (
	"bufio"
	"math"
	"strconv"
	"strings"
)

const (
	tagStreamInf = "#EXT-X-STREAM-INF:"
	tagExtInf    = "#EXTINF:"
)

// Variant is one encoded rendition referenced from a master playlist.
type Variant struct {
	// Bandwidth is the declared peak (or average, when peak is absent)
	// bandwidth in bits per second; 0 when the attribute is missing.
	Bandwidth int64

	// URI of the variant's media playlist, absolute or relative to the
	// master playlist's location.
	URI string
}

// ParseMasterPlaylist extracts the ordered variant list from master
// playlist text. Each stream-variant tag is paired with the next
// non-comment, non-blank line as its URI; a trailing tag without a URI
// line is dropped.
func ParseMasterPlaylist(text string) []Variant {
	var variants []Variant

	var pending *Variant
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, tagStreamInf) {
			attrs := parseAttributes(strings.TrimPrefix(line, tagStreamInf))
			pending = &Variant{Bandwidth: variantBandwidth(attrs)}
			continue
		}

		if strings.HasPrefix(line, "#") {
			continue
		}

		if pending != nil {
			pending.URI = line
			variants = append(variants, *pending)
			pending = nil
		}
	}

	return variants
}

func variantBandwidth(attrs map[string]string) int64 {
	for _, key := range []string{"BANDWIDTH", "AVERAGE-BANDWIDTH"} {
		if raw, ok := attrs[key]; ok {
			if bw, err := strconv.ParseInt(raw, 10, 64); err == nil {
				return bw
			}
		}
	}
	return 0
}

// parseAttributes splits an HLS attribute list, honoring quoted values
// that may themselves contain commas (e.g. CODECS="avc1...,mp4a...").
func parseAttributes(list string) map[string]string {
	attrs := make(map[string]string)

	var parts []string
	var current strings.Builder
	inQuotes := false
	for _, r := range list {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			current.WriteRune(r)
		case r == ',' && !inQuotes:
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	for _, part := range parts {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		attrs[strings.ToUpper(kv[0])] = strings.Trim(kv[1], "\"")
	}
	return attrs
}

// SelectBestVariant returns the variant with the maximum bandwidth. Ties
// keep the first declared variant, so selection is order-stable. The
// second return is false for an empty list.
func SelectBestVariant(variants []Variant) (Variant, bool) {
	if len(variants) == 0 {
		return Variant{}, false
	}

	best := variants[0]
	for _, v := range variants[1:] {
		if v.Bandwidth > best.Bandwidth {
			best = v
		}
	}
	return best, true
}

// SumSegmentDurations accumulates every segment-duration tag's value in
// media playlist text and rounds the total once, to the nearest whole
// second. Rounding the aggregate rather than each segment avoids
// compounding rounding error across many short segments.
func SumSegmentDurations(text string) int64 {
	var total float64

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, tagExtInf) {
			continue
		}

		value := strings.TrimPrefix(line, tagExtInf)
		if idx := strings.IndexByte(value, ','); idx >= 0 {
			value = value[:idx]
		}
		if d, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			total += d
		}
	}

	return int64(math.Round(total))
}
