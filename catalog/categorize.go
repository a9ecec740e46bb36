package catalog

import (
	"sort"
	"time"
)

// Ranked category names.
const (
	CategoryNewReleases = "new-releases"
	CategoryPopular     = "popular"
	CategoryTrending    = "trending"
	CategoryClassics    = "classics"
)

// Age windows in days. Classics use the four-year threshold; both observed
// policies agree the two-year mark is the new-releases window.
const (
	newReleaseMaxAgeDays = 730
	trendingMaxAgeDays   = 180
	classicsMinAgeDays   = 1460
)

const msPerDay = 24 * 60 * 60 * 1000

// CategoryNames returns every category the catalog emits, ranked categories
// first, genre buckets after, in stable order.
func CategoryNames() []string {
	names := []string{CategoryNewReleases, CategoryPopular, CategoryTrending, CategoryClassics}
	return append(names, GenreBuckets()...)
}

// Categorize partitions and ranks the normalized set into the named
// categories, each truncated to maxPerCategory. After primary ranking the
// thin ranked categories (all but popular and the genre buckets) are
// backfilled from the full set ordered by that category's own sort key, so a
// sparse pool still yields a maximally populated category.
func Categorize(videos []Video, now time.Time, maxPerCategory int) map[string][]Video {
	nowMs := now.UnixMilli()
	ageDays := func(v Video) int64 {
		return (nowMs - v.PublishedAt) / msPerDay
	}

	byNewest := sortedBy(videos, func(a, b Video) bool { return a.PublishedAt > b.PublishedAt })
	byOldest := sortedBy(videos, func(a, b Video) bool { return a.PublishedAt < b.PublishedAt })
	byViews := sortedBy(videos, func(a, b Video) bool { return a.ViewCount > b.ViewCount })

	cats := make(map[string][]Video, 4+len(genreBucketOrder))

	cats[CategoryNewReleases] = takeWhere(byNewest, maxPerCategory, func(v Video) bool {
		return ageDays(v) <= newReleaseMaxAgeDays
	})
	cats[CategoryPopular] = takeWhere(byViews, maxPerCategory, nil)
	cats[CategoryTrending] = takeWhere(byViews, maxPerCategory, func(v Video) bool {
		return ageDays(v) <= trendingMaxAgeDays
	})
	cats[CategoryClassics] = takeWhere(byOldest, maxPerCategory, func(v Video) bool {
		return ageDays(v) > classicsMinAgeDays
	})

	for _, bucket := range genreBucketOrder {
		cats[bucket] = takeWhere(byViews, maxPerCategory, func(v Video) bool {
			return hasTag(v, bucket)
		})
	}

	cats[CategoryNewReleases] = backfill(cats[CategoryNewReleases], byNewest, maxPerCategory)
	cats[CategoryTrending] = backfill(cats[CategoryTrending], byViews, maxPerCategory)
	cats[CategoryClassics] = backfill(cats[CategoryClassics], byOldest, maxPerCategory)

	return cats
}

// backfill tops up target from source until it reaches max or the source is
// exhausted, skipping entries already present and never reordering what was
// selected by the primary ranking. Running it again on a full or exhausted
// category is a no-op.
func backfill(target, source []Video, max int) []Video {
	if len(target) >= max {
		return target
	}

	seen := make(map[string]struct{}, len(target))
	for _, v := range target {
		seen[v.VideoID] = struct{}{}
	}

	for _, v := range source {
		if len(target) >= max {
			break
		}
		if _, ok := seen[v.VideoID]; ok {
			continue
		}
		target = append(target, v)
		seen[v.VideoID] = struct{}{}
	}
	return target
}

// sortedBy returns a stably sorted copy; the input order is never touched
// because several rankings run over the same slice.
func sortedBy(videos []Video, less func(a, b Video) bool) []Video {
	out := make([]Video, len(videos))
	copy(out, videos)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// takeWhere selects up to max entries satisfying keep (nil keeps everything),
// preserving the input ranking.
func takeWhere(ranked []Video, max int, keep func(Video) bool) []Video {
	out := make([]Video, 0, max)
	for _, v := range ranked {
		if len(out) >= max {
			break
		}
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func hasTag(v Video, tag string) bool {
	for _, t := range v.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
