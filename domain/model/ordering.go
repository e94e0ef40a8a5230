package model

import (
	"sort"
	"strings"
	"time"
)

var uploadLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
	"2006-01",
	"2006",
}

// UploadTimestamp parses an upload date label. Labels that are not dates sort as the epoch.
func UploadTimestamp(label string) time.Time {
	label = strings.TrimSpace(label)
	for _, layout := range uploadLayouts {
		if t, err := time.Parse(layout, label); err == nil {
			return t
		}
	}
	return time.Unix(0, 0).UTC()
}

// DedupeByID keeps the first occurrence of every ID and drops records without one.
func DedupeByID(videos []Video) []Video {
	seen := make(map[string]struct{}, len(videos))
	out := make([]Video, 0, len(videos))
	for _, v := range videos {
		if v.ID == "" {
			continue
		}
		if _, ok := seen[v.ID]; ok {
			continue
		}
		seen[v.ID] = struct{}{}
		out = append(out, v)
	}
	return out
}

// SortByPopularity orders by views descending, then by upload date descending.
func SortByPopularity(videos []Video) {
	sort.SliceStable(videos, func(i, j int) bool {
		if videos[i].Views != videos[j].Views {
			return videos[i].Views > videos[j].Views
		}
		return UploadTimestamp(videos[i].UploadDate).After(UploadTimestamp(videos[j].UploadDate))
	})
}

// Truncate returns at most limit videos. A non-positive limit keeps everything.
func Truncate(videos []Video, limit int) []Video {
	if limit <= 0 || len(videos) <= limit {
		return videos
	}
	return videos[:limit]
}

// IDs lists the identifiers of videos in order.
func IDs(videos []Video) []string {
	out := make([]string, 0, len(videos))
	for _, v := range videos {
		out = append(out, v.ID)
	}
	return out
}
