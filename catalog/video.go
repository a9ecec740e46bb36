// Package catalog implements the aggregation pipeline that turns YouTube
// search results into a categorized movie catalog: multi-query harvesting,
// deduplication and capping, concurrency-bounded bulk detail retrieval,
// normalization and filtering, and multi-category ranking with backfill.
package catalog

// Video is one normalized, eligible catalog entry. Instances are created by
// the normalizer from exactly one raw detail record and never mutated after.
type Video struct {
	VideoID     string   `json:"videoId"`
	Title       string   `json:"title"`
	DurationSec int64    `json:"durationSec"`
	ViewCount   uint64   `json:"viewCount"`
	// PublishedAt is epoch milliseconds, 0 when unknown.
	PublishedAt int64    `json:"publishedAt"`
	Tags        []string `json:"categories"`
}

// ThinVideo is the reduced projection used in category listings. View count
// and duration are deliberately omitted to keep the payload small; the full
// item list carries them.
type ThinVideo struct {
	VideoID     string   `json:"videoId"`
	Title       string   `json:"title"`
	PublishedAt int64    `json:"publishedAt"`
	Tags        []string `json:"categories"`
}

// Payload is the root catalog response for one invocation.
type Payload struct {
	FetchedAt  int64                  `json:"fetchedAt"`
	Items      []Video                `json:"items"`
	Categories map[string][]ThinVideo `json:"categories"`
	Debug      *Debug                 `json:"debug,omitempty"`
}

// Debug carries diagnostic counters and the resolved runtime parameters.
// Present only when the caller asked for it; never alters the primary shape.
type Debug struct {
	RequestID     string         `json:"requestId,omitempty"`
	UniqueIDs     int            `json:"allIds"`
	FetchedVideos int            `json:"fetchedVideos"`
	Normalized    int            `json:"normalized"`
	Counts        map[string]int `json:"counts"`
	Runtime       Params         `json:"runtime"`
}

// Params are the per-invocation runtime knobs, already clamped by the HTTP
// layer. The JSON tags shape the debug block's "runtime" object.
type Params struct {
	MinDurationSec int64 `json:"min"`
	SearchPages    int   `json:"pages"`
	MaxPerCategory int   `json:"max"`
	MaxIDs         int   `json:"cap"`

	ExtraQueries []string `json:"-"`
	Debug        bool     `json:"-"`
	RequestID    string   `json:"-"`
}

func thin(videos []Video) []ThinVideo {
	out := make([]ThinVideo, 0, len(videos))
	for _, v := range videos {
		out = append(out, ThinVideo{
			VideoID:     v.VideoID,
			Title:       v.Title,
			PublishedAt: v.PublishedAt,
			Tags:        v.Tags,
		})
	}
	return out
}
