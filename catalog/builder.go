package catalog

import (
	"context"
	"log"
	"sync"
	"time"

	"google.golang.org/api/youtube/v3"
)

// Source is the slice of the upstream video service the pipeline needs.
// *youtube.Client implements it; tests substitute fakes.
type Source interface {
	// SearchVideoIDs returns identifiers harvested for one query, possibly
	// partial when a page failed mid-walk.
	SearchVideoIDs(ctx context.Context, query string, pages int) ([]string, error)
	// VideoDetails fetches full metadata for one identifier batch.
	VideoDetails(ctx context.Context, ids []string) ([]*youtube.Video, error)
	// UploadsPlaylistID resolves a channel to its uploads playlist.
	UploadsPlaylistID(ctx context.Context, channelID string) (string, error)
	// PlaylistVideoIDs enumerates a playlist page by page.
	PlaylistVideoIDs(ctx context.Context, playlistID string, pages int) ([]string, error)
}

// DefaultQueries is the static harvest list. Order is preserved for
// reproducibility of the merge, though it does not affect which categories
// a video lands in.
var DefaultQueries = []string{
	"Amharic full movie",
	"Ethiopian full movie",
	"አማርኛ ፊልም ሙሉ",
	"Amharic movie 2024 full",
	"Ethiopian movie 2024 full",
	"Amharic movie 2023 full",
	"Ethiopian movie 2023 full",
	"Amharic drama full movie",
	"Ethiopian comedy full movie",
}

// detailBatchSize matches the upstream's maximum videos.list batch.
const detailBatchSize = 50

// Options configures a Builder.
type Options struct {
	// Queries is the static query list (DefaultQueries when empty).
	Queries []string
	// Channels are channel IDs whose uploads are harvested in addition to
	// search results.
	Channels []string
	// ChannelPages is the page budget per channel uploads playlist (default 2).
	ChannelPages int
	// Workers bounds concurrent detail batch requests (default 4).
	Workers int
}

// Builder runs the catalog aggregation pipeline against a Source.
type Builder struct {
	src          Source
	queries      []string
	channels     []string
	channelPages int
	workers      int
	now          func() time.Time
}

// NewBuilder creates a pipeline around the given source.
func NewBuilder(src Source, opts Options) *Builder {
	queries := opts.Queries
	if len(queries) == 0 {
		queries = DefaultQueries
	}
	channelPages := opts.ChannelPages
	if channelPages <= 0 {
		channelPages = 2
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	return &Builder{
		src:          src,
		queries:      queries,
		channels:     opts.Channels,
		channelPages: channelPages,
		workers:      workers,
		now:          time.Now,
	}
}

// Build recomputes the catalog from scratch for one invocation. Upstream
// failures below this level degrade to a smaller catalog, never to an error:
// the only hard failure mode is the surrounding handler's own.
func (b *Builder) Build(ctx context.Context, p Params) *Payload {
	harvests := b.harvest(ctx, p)

	ids := uniqueCapped(harvests, p.MaxIDs)
	if len(ids) == 0 {
		return b.assemble(nil, p, 0, 0)
	}

	raw := b.fetchDetails(ctx, ids)
	videos := Normalize(raw, p.MinDurationSec)

	payload := b.assemble(videos, p, len(ids), len(raw))
	return payload
}

// harvest runs one goroutine per query (plus the channel harvesters) and
// collects each harvester's output separately. The union happens in a single
// pass after every goroutine has finished, so no mutable set is shared across
// concurrent branches.
func (b *Builder) harvest(ctx context.Context, p Params) [][]string {
	queries := make([]string, 0, len(b.queries)+len(p.ExtraQueries))
	queries = append(queries, b.queries...)
	queries = append(queries, p.ExtraQueries...)

	results := make([][]string, len(queries)+len(b.channels))

	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			ids, err := b.src.SearchVideoIDs(ctx, q, p.SearchPages)
			if err != nil {
				// Keep whatever pages made it before the failure.
				log.Printf("catalog: search %q: %v", q, err)
			}
			results[i] = ids
		}(i, q)
	}

	for i, ch := range b.channels {
		wg.Add(1)
		go func(i int, ch string) {
			defer wg.Done()
			results[len(queries)+i] = b.harvestChannel(ctx, ch)
		}(i, ch)
	}

	wg.Wait()
	return results
}

// harvestChannel resolves one channel's uploads playlist and enumerates it.
// Any failure degrades to an empty contribution from that channel.
func (b *Builder) harvestChannel(ctx context.Context, channelID string) []string {
	playlistID, err := b.src.UploadsPlaylistID(ctx, channelID)
	if err != nil {
		log.Printf("catalog: channel %s uploads: %v", channelID, err)
		return nil
	}

	ids, err := b.src.PlaylistVideoIDs(ctx, playlistID, b.channelPages)
	if err != nil {
		log.Printf("catalog: playlist %s: %v", playlistID, err)
	}
	return ids
}

// uniqueCapped merges harvester outputs into an insertion-ordered unique
// list, truncated to limit. The truncation is a plain prefix take, not a
// ranking: identifiers from earlier-configured queries survive the cut first.
func uniqueCapped(harvests [][]string, limit int) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, h := range harvests {
		for _, id := range h {
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}

// fetchDetails retrieves full metadata for the capped identifier list in
// fixed-size batches drained by a bounded worker pool. A failed batch
// contributes nothing and never aborts its siblings.
func (b *Builder) fetchDetails(ctx context.Context, ids []string) []*youtube.Video {
	batches := chunk(ids, detailBatchSize)
	results := make([][]*youtube.Video, len(batches))

	workers := b.workers
	if workers > len(batches) {
		workers = len(batches)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				videos, err := b.src.VideoDetails(ctx, batches[i])
				if err != nil {
					log.Printf("catalog: details batch %d/%d: %v", i+1, len(batches), err)
					continue
				}
				results[i] = videos
			}
		}()
	}

	for i := range batches {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var flat []*youtube.Video
	for _, r := range results {
		flat = append(flat, r...)
	}
	return flat
}

func chunk(ids []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[start:end])
	}
	return out
}

// assemble produces the response payload: the full normalized item list plus
// a thinned projection per category, and the diagnostic block when requested.
func (b *Builder) assemble(videos []Video, p Params, uniqueIDs, fetched int) *Payload {
	cats := Categorize(videos, b.now(), p.MaxPerCategory)

	categories := make(map[string][]ThinVideo, len(cats))
	for _, name := range CategoryNames() {
		categories[name] = thin(cats[name])
	}

	items := videos
	if items == nil {
		items = []Video{}
	}

	payload := &Payload{
		FetchedAt:  b.now().UnixMilli(),
		Items:      items,
		Categories: categories,
	}

	if p.Debug {
		counts := make(map[string]int, len(cats))
		for name, vs := range cats {
			counts[name] = len(vs)
		}
		payload.Debug = &Debug{
			RequestID:     p.RequestID,
			UniqueIDs:     uniqueIDs,
			FetchedVideos: fetched,
			Normalized:    len(videos),
			Counts:        counts,
			Runtime:       p,
		}
	}
	return payload
}
