package model

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	PlaceholderThumbnail = "https://images.unsplash.com/photo-1611162617213-7d7a39e9b1d7?w=640&h=360&fit=crop"
	UntitledTitle        = "untitled"
	UnknownChannel       = "unknown"
	UnspecifiedDate      = "unspecified"
	NoDescription        = "no description"
	GeneralCategory      = "general"

	maxTitleRunes = 200
)

// NormalizeVideo maps an upstream record of either field-naming convention into a Video.
// It never fails; missing fields get their fallback values.
func NormalizeVideo(raw RawRecord) Video {
	return Video{
		ID:              firstString(raw, "vod_id", "id"),
		Title:           orDefault(firstString(raw, "vod_name", "title"), UntitledTitle),
		ChannelName:     orDefault(firstString(raw, "vod_director", "channelName", "type_name"), UnknownChannel),
		Views:           ParseIntOrZero(firstValue(raw, "vod_hits", "views")),
		DurationSeconds: parseDuration(firstValue(raw, "vod_duration", "duration")),
		UploadDate:      orDefault(firstString(raw, "vod_year", "uploadDate", "vod_time"), UnspecifiedDate),
		ThumbnailURL:    orDefault(firstString(raw, "vod_pic", "thumbnail"), PlaceholderThumbnail),
		VideoURL:        ResolvePlayURL(firstString(raw, "vod_play_url", "videoUrl")),
		Description:     orDefault(firstString(raw, "vod_content", "description"), NoDescription),
		Category:        orDefault(firstString(raw, "type_name", "category", "vod_class"), GeneralCategory),
		Raw:             raw,
	}
}

// NormalizeVideos normalizes a list and drops records without an ID.
func NormalizeVideos(raws []RawRecord) []Video {
	out := make([]Video, 0, len(raws))
	for _, raw := range raws {
		v := NormalizeVideo(raw)
		if v.ID == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

// RecordID returns the identifier of a raw upstream record.
func RecordID(raw RawRecord) string {
	return firstString(raw, "vod_id", "id")
}

// RecordCategory returns the list-level category label (type_name, then vod_class).
func RecordCategory(raw RawRecord) string {
	return firstString(raw, "type_name", "vod_class")
}

// ParseIntOrZero converts numbers and numeric strings to a non-negative integer.
// Leading digits are honoured the way parseInt-style parsers do ("120min" is 120).
func ParseIntOrZero(v interface{}) int64 {
	var n int64
	switch t := v.(type) {
	case nil:
		return 0
	case int:
		n = int64(t)
	case int32:
		n = int64(t)
	case int64:
		n = t
	case float32:
		n = truncFloat(float64(t))
	case float64:
		n = truncFloat(t)
	case json.Number:
		n = parseLeadingInt(t.String())
	case string:
		n = parseLeadingInt(t)
	default:
		return 0
	}
	if n < 0 {
		return 0
	}
	return n
}

var (
	httpM3U8 = regexp.MustCompile(`https?://[^\s$#]+?\.m3u8`)
	httpMP4  = regexp.MustCompile(`https?://[^\s$#]+?\.mp4`)
	anyM3U8  = regexp.MustCompile(`\$[^\s#]+?\.m3u8`)
	anyMP4   = regexp.MustCompile(`\$[^\s#]+?\.mp4`)
)

// ResolvePlayURL extracts a playable stream URL from an upstream play field
// formatted as "label$url#label$url". HLS is preferred over MP4.
func ResolvePlayURL(field string) string {
	field = strings.TrimSpace(field)
	if field == "" {
		return ""
	}
	for _, re := range []*regexp.Regexp{httpM3U8, httpMP4, anyM3U8, anyMP4} {
		if m := re.FindString(field); m != "" {
			return strings.TrimSpace(strings.ReplaceAll(m, "$", ""))
		}
	}
	return ""
}

// CleanVideos drops unusable records and trims oversized titles for display.
func CleanVideos(videos []Video) []Video {
	out := make([]Video, 0, len(videos))
	for _, v := range videos {
		if v.ID == "" || strings.TrimSpace(v.Title) == "" {
			continue
		}
		if utf8.RuneCountInString(v.Title) > maxTitleRunes {
			v.Title = string([]rune(v.Title)[:maxTitleRunes]) + "..."
		}
		if v.ThumbnailURL == "" {
			v.ThumbnailURL = PlaceholderThumbnail
		}
		out = append(out, v)
	}
	return out
}

func firstValue(raw RawRecord, keys ...string) interface{} {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || isEmpty(v) {
			continue
		}
		return v
	}
	return nil
}

func firstString(raw RawRecord, keys ...string) string {
	return stringify(firstValue(raw, keys...))
}

func isEmpty(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case float64:
		return t == 0
	case json.Number:
		return t.String() == "" || t.String() == "0"
	case int:
		return t == 0
	case int64:
		return t == 0
	case bool:
		return !t
	}
	return false
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func truncFloat(f float64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int64(f)
}

func parseLeadingInt(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	neg := false
	i := 0
	if s[0] == '-' || s[0] == '+' {
		neg = s[0] == '-'
		i = 1
	}
	var n int64
	digits := 0
	for ; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		if n > (math.MaxInt64-int64(c-'0'))/10 {
			break
		}
		n = n*10 + int64(c-'0')
		digits++
	}
	if digits == 0 {
		return 0
	}
	if neg {
		return -n
	}
	return n
}

// parseDuration accepts "hh:mm:ss", "mm:ss" or a bare number of seconds.
func parseDuration(v interface{}) int64 {
	s, ok := v.(string)
	if !ok || !strings.Contains(s, ":") {
		return ParseIntOrZero(v)
	}
	var total int64
	for _, part := range strings.Split(strings.TrimSpace(s), ":") {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return total
}
