package model

// RawRecord is a single upstream list or detail entry as decoded from JSON.
// Field names vary between upstream deployments, see NormalizeVideo.
type RawRecord map[string]interface{}

// Video is the normalized catalog entry handed to callers
type Video struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	ChannelName     string    `json:"channelName"`
	Views           int64     `json:"views"`
	DurationSeconds int64     `json:"durationSeconds"`
	UploadDate      string    `json:"uploadDate"`
	ThumbnailURL    string    `json:"thumbnailUrl"`
	VideoURL        string    `json:"videoUrl"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	Raw             RawRecord `json:"raw,omitempty"`
	// Degraded marks a record built from list-level data after its detail request failed.
	Degraded bool `json:"degraded,omitempty"`
}

// PageResult is the aggregate of a multi-page load
type PageResult struct {
	Videos      []Video `json:"videos"`
	HasMore     bool    `json:"hasMore"`
	PagesLoaded int     `json:"pagesLoaded"`
	TotalCount  int     `json:"totalCount"`
}

// Clone returns a copy whose video slice can be modified without touching the receiver.
func (p *PageResult) Clone() *PageResult {
	if p == nil {
		return nil
	}
	out := *p
	out.Videos = make([]Video, len(p.Videos))
	copy(out.Videos, p.Videos)
	return &out
}

// ScrollPage is one incremental page for category or filter scrolling
type ScrollPage struct {
	Videos  []Video `json:"videos"`
	HasMore bool    `json:"hasMore"`
}

// APIStatus reports whether the upstream catalog answered a probe
type APIStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
