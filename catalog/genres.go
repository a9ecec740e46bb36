package catalog

import "strings"

// Genre bucket names double as the keys in the category map.
const (
	GenreComedies = "comedies"
	GenreDramas   = "dramas"
	GenreSeries   = "series"
)

// genreBucketOrder fixes the evaluation order so derived tags are stable
// across invocations.
var genreBucketOrder = []string{GenreComedies, GenreDramas, GenreSeries}

// genreKeywords maps each bucket to the substrings that place a video in it.
// Matching is case-insensitive substring search over title plus description;
// Amharic terms match as written. This is a policy table, not pipeline logic:
// tune the terms without touching the categorizer.
var genreKeywords = map[string][]string{
	GenreComedies: {"comedy", "comedies", "komedi", "ኮሜዲ", "አስቂኝ"},
	GenreDramas:   {"drama", "ድራማ"},
	GenreSeries:   {"series", "episode", "ተከታታይ", "ክፍል"},
}

// GenreBuckets returns the configured bucket names in stable order.
func GenreBuckets() []string {
	out := make([]string, len(genreBucketOrder))
	copy(out, genreBucketOrder)
	return out
}

// GenreTags derives zero or more genre tags for a video from its title and
// description.
func GenreTags(title, description string) []string {
	text := strings.ToLower(title + " " + description)

	var tags []string
	for _, bucket := range genreBucketOrder {
		for _, term := range genreKeywords[bucket] {
			if strings.Contains(text, term) {
				tags = append(tags, bucket)
				break
			}
		}
	}
	return tags
}
