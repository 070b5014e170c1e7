// Package progress turns raw textual output from the fetcher and the
// transcoder into normalized percentages.
package progress

import (
	"math"
	"regexp"
	"strconv"
)

// Fetcher progress lines look like:
//
//	[download]  42.0% of 10MiB at 1MiB/s ETA 00:10
var fetcherPercentRe = regexp.MustCompile(`\[download\]\s+(\d+(?:\.\d+)?)%`)

// ParseFetcherLine extracts the download percentage from one fetcher output
// line, rounded to the nearest integer. ok is false for lines without a
// percentage token; such lines still mean the fetcher is alive.
func ParseFetcherLine(line string) (pct int, ok bool) {
	m := fetcherPercentRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	val, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	pct = int(math.Round(val))
	if pct > 100 {
		pct = 100
	}
	return pct, true
}
