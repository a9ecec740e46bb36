package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"google.golang.org/api/youtube/v3"
)

// fakeSource implements Source in memory. searchResults maps query to the
// identifiers its harvester yields; details holds the raw record per
// identifier; failBatchWith makes any VideoDetails batch containing that
// identifier fail.
type fakeSource struct {
	mu            sync.Mutex
	searchResults map[string][]string
	channelLists  map[string]string   // channel ID -> uploads playlist
	playlists     map[string][]string // playlist ID -> video IDs
	details       map[string]*youtube.Video
	failBatchWith string

	searchCalls int
	detailCalls int
}

func (f *fakeSource) SearchVideoIDs(ctx context.Context, query string, pages int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	return f.searchResults[query], nil
}

func (f *fakeSource) VideoDetails(ctx context.Context, ids []string) ([]*youtube.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls++

	var out []*youtube.Video
	for _, id := range ids {
		if id == f.failBatchWith && f.failBatchWith != "" {
			return nil, errors.New("batch timed out")
		}
		if v, ok := f.details[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeSource) UploadsPlaylistID(ctx context.Context, channelID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pl, ok := f.channelLists[channelID]
	if !ok {
		return "", errors.New("channel not found")
	}
	return pl, nil
}

func (f *fakeSource) PlaylistVideoIDs(ctx context.Context, playlistID string, pages int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playlists[playlistID], nil
}

func eligibleRaw(id string, publishedAt time.Time, views uint64) *youtube.Video {
	return &youtube.Video{
		Id: id,
		Snippet: &youtube.VideoSnippet{
			Title:                "Movie " + id,
			PublishedAt:          publishedAt.UTC().Format(time.RFC3339),
			LiveBroadcastContent: "none",
		},
		ContentDetails: &youtube.VideoContentDetails{Duration: "PT1H30M"},
		Statistics:     &youtube.VideoStatistics{ViewCount: views},
		Status:         &youtube.VideoStatus{Embeddable: true},
	}
}

func testParams() Params {
	return Params{
		MinDurationSec: 1200,
		SearchPages:    2,
		MaxPerCategory: 64,
		MaxIDs:         300,
	}
}

func TestBuildEmptyHarvest(t *testing.T) {
	src := &fakeSource{searchResults: map[string][]string{}}
	b := NewBuilder(src, Options{Queries: []string{"q1", "q2"}})

	payload := b.Build(context.Background(), testParams())

	if payload.FetchedAt == 0 {
		t.Error("FetchedAt must be set")
	}
	if len(payload.Items) != 0 {
		t.Errorf("Items = %v, want empty", payload.Items)
	}
	if payload.Items == nil {
		t.Error("Items must be an empty slice, not nil, for JSON shape")
	}
	for _, name := range CategoryNames() {
		vs, ok := payload.Categories[name]
		if !ok {
			t.Errorf("category %s missing from empty payload", name)
		}
		if len(vs) != 0 {
			t.Errorf("category %s = %v, want empty", name, vs)
		}
	}
	if src.detailCalls != 0 {
		t.Errorf("detailCalls = %d, want 0 after empty harvest", src.detailCalls)
	}
}

func TestBuildTenVideos(t *testing.T) {
	now := time.Now()
	src := &fakeSource{
		searchResults: map[string][]string{},
		details:       map[string]*youtube.Video{},
	}

	// Ten videos with distinct publish timestamps and view counts; half
	// inside the two-year recency window, half far outside it.
	var ids []string
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("vid%02d", i)
		ids = append(ids, id)
		age := 10 + i*30 // newest = vid00
		if i >= 5 {
			age = 800 + i*300 // outside the recency window
		}
		src.details[id] = eligibleRaw(id, now.AddDate(0, 0, -age), uint64(1000-i*100))
	}
	src.searchResults["q1"] = ids

	b := NewBuilder(src, Options{Queries: []string{"q1"}})
	payload := b.Build(context.Background(), testParams())

	if len(payload.Items) != 10 {
		t.Fatalf("Items = %d videos, want 10", len(payload.Items))
	}

	// Popular equals all ten sorted by view count descending.
	popular := payload.Categories[CategoryPopular]
	if len(popular) != 10 {
		t.Fatalf("popular = %d entries, want 10", len(popular))
	}
	for i, v := range popular {
		if want := fmt.Sprintf("vid%02d", i); v.VideoID != want {
			t.Errorf("popular[%d] = %s, want %s", i, v.VideoID, want)
		}
	}

	// New releases: the five recent ones newest-first, then the remainder
	// backfilled newest-first.
	newReleases := payload.Categories[CategoryNewReleases]
	if len(newReleases) != 10 {
		t.Fatalf("new-releases = %d entries, want 10 after backfill", len(newReleases))
	}
	for i, v := range newReleases {
		if want := fmt.Sprintf("vid%02d", i); v.VideoID != want {
			t.Errorf("new-releases[%d] = %s, want %s", i, v.VideoID, want)
		}
	}
}

func TestBuildPartialBatchFailure(t *testing.T) {
	now := time.Now()
	src := &fakeSource{
		searchResults: map[string][]string{},
		details:       map[string]*youtube.Video{},
	}

	// 120 identifiers -> three detail batches of 50/50/20. The middle batch
	// fails; its records must be missing while both siblings survive.
	var ids []string
	for i := 0; i < 120; i++ {
		id := fmt.Sprintf("vid%03d", i)
		ids = append(ids, id)
		src.details[id] = eligibleRaw(id, now.AddDate(0, 0, -(i+1)), uint64(i))
	}
	src.searchResults["q1"] = ids
	src.failBatchWith = "vid075"

	b := NewBuilder(src, Options{Queries: []string{"q1"}, Workers: 4})
	p := testParams()
	payload := b.Build(context.Background(), p)

	if len(payload.Items) != 70 {
		t.Fatalf("Items = %d videos, want 70 (middle batch lost)", len(payload.Items))
	}
	for _, v := range payload.Items {
		var n int
		fmt.Sscanf(v.VideoID, "vid%d", &n)
		if n >= 50 && n < 100 {
			t.Errorf("video %s from the failed batch leaked into the result", v.VideoID)
		}
	}
	if src.detailCalls != 3 {
		t.Errorf("detailCalls = %d, want 3", src.detailCalls)
	}
}

func TestBuildDeduplicatesAndCaps(t *testing.T) {
	now := time.Now()
	src := &fakeSource{
		searchResults: map[string][]string{
			"q1": {"a", "b", "c"},
			"q2": {"b", "c", "d", "e"},
		},
		details: map[string]*youtube.Video{},
	}
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		src.details[id] = eligibleRaw(id, now.AddDate(0, 0, -5), 10)
	}

	b := NewBuilder(src, Options{Queries: []string{"q1", "q2"}})
	p := testParams()
	p.MaxIDs = 4 // union is 5 unique IDs, cap takes the first 4

	payload := b.Build(context.Background(), p)
	if len(payload.Items) != 4 {
		t.Fatalf("Items = %d videos, want min(|union|, cap) = 4", len(payload.Items))
	}

	seen := make(map[string]bool)
	for _, v := range payload.Items {
		if seen[v.VideoID] {
			t.Errorf("duplicate %s in item list", v.VideoID)
		}
		seen[v.VideoID] = true
	}
}

func TestBuildHarvestsChannels(t *testing.T) {
	now := time.Now()
	src := &fakeSource{
		searchResults: map[string][]string{"q1": {"s1"}},
		channelLists:  map[string]string{"UCchan1": "UUchan1uploads"},
		playlists:     map[string][]string{"UUchan1uploads": {"u1", "u2"}},
		details:       map[string]*youtube.Video{},
	}
	for _, id := range []string{"s1", "u1", "u2"} {
		src.details[id] = eligibleRaw(id, now.AddDate(0, 0, -5), 10)
	}

	b := NewBuilder(src, Options{Queries: []string{"q1"}, Channels: []string{"UCchan1", "UCmissing"}})
	payload := b.Build(context.Background(), testParams())

	// The unresolvable channel degrades to nothing; the resolvable one
	// contributes its uploads.
	if len(payload.Items) != 3 {
		t.Fatalf("Items = %d videos, want 3", len(payload.Items))
	}
}

func TestBuildDebugBlock(t *testing.T) {
	now := time.Now()
	src := &fakeSource{
		searchResults: map[string][]string{"q1": {"a", "b"}},
		details: map[string]*youtube.Video{
			"a": eligibleRaw("a", now.AddDate(0, 0, -5), 10),
			// b is a live stream: fetched but filtered out.
			"b": func() *youtube.Video {
				v := eligibleRaw("b", now.AddDate(0, 0, -5), 10)
				v.Snippet.LiveBroadcastContent = "live"
				return v
			}(),
		},
	}

	b := NewBuilder(src, Options{Queries: []string{"q1"}})
	p := testParams()
	p.Debug = true
	p.RequestID = "req-1"

	payload := b.Build(context.Background(), p)
	if payload.Debug == nil {
		t.Fatal("Debug block missing")
	}
	d := payload.Debug
	if d.UniqueIDs != 2 || d.FetchedVideos != 2 || d.Normalized != 1 {
		t.Errorf("Debug counters = %d/%d/%d, want 2/2/1", d.UniqueIDs, d.FetchedVideos, d.Normalized)
	}
	if d.Runtime.MaxIDs != p.MaxIDs || d.Runtime.SearchPages != p.SearchPages {
		t.Errorf("Debug runtime = %+v, want the resolved params", d.Runtime)
	}
	if d.RequestID != "req-1" {
		t.Errorf("Debug request id = %q, want req-1", d.RequestID)
	}

	// Without the flag the block stays out of the payload entirely.
	p.Debug = false
	if payload := b.Build(context.Background(), p); payload.Debug != nil {
		t.Error("Debug block present without debug flag")
	}
}

func TestBuildExtraQueries(t *testing.T) {
	now := time.Now()
	src := &fakeSource{
		searchResults: map[string][]string{
			"q1":    {"a"},
			"extra": {"x"},
		},
		details: map[string]*youtube.Video{
			"a": eligibleRaw("a", now.AddDate(0, 0, -5), 10),
			"x": eligibleRaw("x", now.AddDate(0, 0, -5), 20),
		},
	}

	b := NewBuilder(src, Options{Queries: []string{"q1"}})
	p := testParams()
	p.ExtraQueries = []string{"extra"}

	payload := b.Build(context.Background(), p)
	if len(payload.Items) != 2 {
		t.Fatalf("Items = %d videos, want 2 (extra query harvested)", len(payload.Items))
	}
	if src.searchCalls != 2 {
		t.Errorf("searchCalls = %d, want 2", src.searchCalls)
	}
}
