package youtube

import (
	"regexp"
	"strconv"
)

// durationRegex matches the time portion of an ISO-8601 duration code as the
// Data API emits it ("PT1H23M4S"). Each component is optional.
var durationRegex = regexp.MustCompile(`PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

// ParseDuration converts a compact ISO-8601 duration code into total whole
// seconds. Missing components count as zero, and a code with no matching
// components parses to zero. The function is total: it never fails, so a
// malformed upstream value degrades to a zero-length video that the
// eligibility filter then drops.
func ParseDuration(code string) int64 {
	m := durationRegex.FindStringSubmatch(code)
	if m == nil {
		return 0
	}
	h := parseComponent(m[1])
	min := parseComponent(m[2])
	s := parseComponent(m[3])
	return h*3600 + min*60 + s
}

func parseComponent(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
