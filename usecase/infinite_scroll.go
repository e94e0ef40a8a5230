package usecase

import (
	"context"
	"sync"

	"vod-catalog/domain/model"
	"vod-catalog/infrastructure/logger"
)

type ScrollState string

const (
	ScrollIdle      ScrollState = "idle"
	ScrollLoading   ScrollState = "loading"
	ScrollExhausted ScrollState = "exhausted"
)

type ScrollMode string

const (
	ScrollByCategory ScrollMode = "category"
	ScrollByFilter   ScrollMode = "filter"
)

const DefaultScrollThreshold = 200

// ScrollPosition is a viewport measurement reported by the client.
type ScrollPosition struct {
	ScrollTop    float64
	ScrollHeight float64
	ClientHeight float64
	Threshold    float64 // zero means DefaultScrollThreshold
}

// NearBottom reports whether the remaining scroll distance is within the threshold.
func (p ScrollPosition) NearBottom() bool {
	threshold := p.Threshold
	if threshold <= 0 {
		threshold = DefaultScrollThreshold
	}
	return p.ScrollHeight-p.ScrollTop <= p.ClientHeight+threshold
}

// ScrollUpdate is the controller's displayed state after an operation.
type ScrollUpdate struct {
	State   ScrollState
	Page    int
	Videos  []model.Video
	Added   []model.Video
	HasMore bool
}

// ScrollController drives one infinite-scroll list. At most one load runs at
// a time; triggers arriving while loading or after exhaustion are ignored.
type ScrollController struct {
	catalog  ICatalogUseCase
	mode     ScrollMode
	key      string
	pageSize int

	mu     sync.Mutex
	state  ScrollState
	page   int
	videos []model.Video
	hidden []string // excluded from every page but never displayed
	gen    int
}

func NewScrollController(catalog ICatalogUseCase, mode ScrollMode, key string, pageSize int, initial []model.Video) *ScrollController {
	if pageSize <= 0 {
		pageSize = defaultScrollLimit
	}
	c := &ScrollController{catalog: catalog, mode: mode, key: key, pageSize: pageSize}
	c.reset(initial)
	return c
}

// WithExcluded keeps ids out of every loaded page (fluent)
func (c *ScrollController) WithExcluded(ids []string) *ScrollController {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hidden = append([]string(nil), ids...)
	return c
}

func (c *ScrollController) Mode() ScrollMode { return c.mode }
func (c *ScrollController) Key() string      { return c.key }

// OnScroll loads the next page when pos is near the bottom. The boolean
// reports whether a load actually ran.
func (c *ScrollController) OnScroll(ctx context.Context, pos ScrollPosition) (ScrollUpdate, bool) {
	if !pos.NearBottom() {
		return c.Snapshot(), false
	}
	return c.LoadMore(ctx)
}

// LoadMore fetches the next page and appends videos not already displayed.
func (c *ScrollController) LoadMore(ctx context.Context) (ScrollUpdate, bool) {
	c.mu.Lock()
	if c.state != ScrollIdle {
		snap := c.snapshotLocked(nil)
		c.mu.Unlock()
		return snap, false
	}
	c.state = ScrollLoading
	gen := c.gen
	next := c.page + 1
	exclude := append(model.IDs(c.videos), c.hidden...)
	c.mu.Unlock()

	res := c.fetch(ctx, next, exclude)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		// reset while loading; drop the stale page
		return c.snapshotLocked(nil), false
	}

	displayed := make(map[string]struct{}, len(c.videos)+len(c.hidden))
	for _, v := range c.videos {
		displayed[v.ID] = struct{}{}
	}
	for _, id := range c.hidden {
		displayed[id] = struct{}{}
	}
	added := make([]model.Video, 0, len(res.Videos))
	for _, v := range res.Videos {
		if _, ok := displayed[v.ID]; ok || v.ID == "" {
			continue
		}
		displayed[v.ID] = struct{}{}
		added = append(added, v)
	}
	c.videos = append(c.videos, added...)
	c.page = next

	if !res.HasMore || len(res.Videos) < c.pageSize || len(added) == 0 {
		c.state = ScrollExhausted
	} else {
		c.state = ScrollIdle
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"mode":  c.mode,
		"key":   c.key,
		"page":  next,
		"added": len(added),
		"state": c.state,
	}).Debug("Scroll page loaded")
	return c.snapshotLocked(added), true
}

func (c *ScrollController) fetch(ctx context.Context, page int, exclude []string) model.ScrollPage {
	switch c.mode {
	case ScrollByFilter:
		return c.catalog.FilterPage(ctx, c.key, page, c.pageSize, exclude)
	default:
		return c.catalog.MoreInCategory(ctx, c.key, exclude, page, c.pageSize)
	}
}

// Snapshot returns the displayed list and state without loading.
func (c *ScrollController) Snapshot() ScrollUpdate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(nil)
}

// Reset replaces the displayed list and returns the controller to idle.
// A load in flight when Reset is called is discarded.
func (c *ScrollController) Reset(initial []model.Video) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.reset(initial)
}

func (c *ScrollController) reset(initial []model.Video) {
	c.videos = model.DedupeByID(initial)
	c.state = ScrollIdle
	c.page = 0
	if len(c.videos) > 0 {
		c.page = 1
	}
}

func (c *ScrollController) snapshotLocked(added []model.Video) ScrollUpdate {
	videos := make([]model.Video, len(c.videos))
	copy(videos, c.videos)
	return ScrollUpdate{
		State:   c.state,
		Page:    c.page,
		Videos:  videos,
		Added:   added,
		HasMore: c.state != ScrollExhausted,
	}
}
