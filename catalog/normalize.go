package catalog

import (
	"regexp"
	"time"

	"google.golang.org/api/youtube/v3"

	yt "gojocatalog/youtube"
)

// placeholderTitle substitutes for records the upstream returns without one.
const placeholderTitle = "Amharic Movie"

// The "Yarada Lij" series runs episodes well under the feature-film minimum,
// so titles matching it use this lower duration floor. Documented special
// case, not a general rule.
const seriesFloorSec = 600

var seriesFloorPattern = regexp.MustCompile(`(?i)yarada lij|የአራዳ ልጅ`)

// Normalize maps raw detail records to canonical catalog entries and drops
// every record failing the eligibility predicate: embeddable, not live,
// duration at or above the effective minimum, non-empty title.
func Normalize(raw []*youtube.Video, minDurationSec int64) []Video {
	out := make([]Video, 0, len(raw))
	for _, r := range raw {
		if r == nil || r.Id == "" {
			continue
		}
		v, eligible := normalizeOne(r, minDurationSec)
		if eligible {
			out = append(out, v)
		}
	}
	return out
}

func normalizeOne(r *youtube.Video, minDurationSec int64) (Video, bool) {
	v := Video{VideoID: r.Id, Title: placeholderTitle}

	var description string
	live := false
	if r.Snippet != nil {
		if r.Snippet.Title != "" {
			v.Title = r.Snippet.Title
		}
		description = r.Snippet.Description
		if r.Snippet.PublishedAt != "" {
			if t, err := time.Parse(time.RFC3339, r.Snippet.PublishedAt); err == nil {
				v.PublishedAt = t.UnixMilli()
			}
		}
		live = r.Snippet.LiveBroadcastContent != "" && r.Snippet.LiveBroadcastContent != "none"
	}

	if r.ContentDetails != nil {
		v.DurationSec = yt.ParseDuration(r.ContentDetails.Duration)
	}
	if r.Statistics != nil {
		v.ViewCount = r.Statistics.ViewCount
	}

	// Eligible unless explicitly flagged not embeddable.
	embeddable := r.Status == nil || r.Status.Embeddable

	v.Tags = GenreTags(v.Title, description)

	eligible := embeddable &&
		!live &&
		v.DurationSec >= effectiveMinDuration(v.Title, minDurationSec) &&
		v.Title != ""
	return v, eligible
}

// effectiveMinDuration lowers the duration floor for titles matching the
// known series pattern.
func effectiveMinDuration(title string, minDurationSec int64) int64 {
	if minDurationSec > seriesFloorSec && seriesFloorPattern.MatchString(title) {
		return seriesFloorSec
	}
	return minDurationSec
}
