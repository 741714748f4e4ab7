package domain

import (
	"strings"
	"time"
)

// Bucketing selects the width of a chart bucket.
type Bucketing int

const (
	BucketDay Bucketing = iota
	BucketWeek
	BucketMonth
)

// String returns the bucketing name.
func (b Bucketing) String() string {
	switch b {
	case BucketDay:
		return "day"
	case BucketWeek:
		return "week"
	case BucketMonth:
		return "month"
	default:
		return "unknown"
	}
}

// ParseBucketing converts a name to a Bucketing.
func ParseBucketing(s string) (Bucketing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "daily":
		return BucketDay, nil
	case "week", "weekly":
		return BucketWeek, nil
	case "month", "monthly":
		return BucketMonth, nil
	default:
		return BucketDay, NewValidationError("bucket", s, "expected day, week or month")
	}
}

// GroupBy selects how play events are split into series.
type GroupBy int

const (
	GroupOverall GroupBy = iota
	GroupArtist
	GroupAlbum
	GroupGenre
	GroupPlaylist
)

// String returns the grouping name.
func (g GroupBy) String() string {
	switch g {
	case GroupOverall:
		return "overall"
	case GroupArtist:
		return "artist"
	case GroupAlbum:
		return "album"
	case GroupGenre:
		return "genre"
	case GroupPlaylist:
		return "playlist"
	default:
		return "unknown"
	}
}

// ParseGroupBy converts a name to a GroupBy.
func ParseGroupBy(s string) (GroupBy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "overall", "all":
		return GroupOverall, nil
	case "artist":
		return GroupArtist, nil
	case "album":
		return GroupAlbum, nil
	case "genre":
		return GroupGenre, nil
	case "playlist":
		return GroupPlaylist, nil
	default:
		return GroupOverall, NewValidationError("group", s, "expected overall, artist, album, genre or playlist")
	}
}

// MaxChartSeries bounds the number of series in a chart.
const MaxChartSeries = 12

// Series is the play count per bucket for one group.
type Series struct {
	Name   string
	Counts []int
	Total  int
}

// Chart is the result of aggregating play history.
type Chart struct {
	Bucketing Bucketing
	GroupBy   GroupBy

	// Buckets holds the start of each bucket, oldest first
	Buckets []time.Time

	// Series is ordered by descending total
	Series []Series
}

// Empty reports whether the chart has no data.
func (c Chart) Empty() bool {
	return len(c.Buckets) == 0
}
