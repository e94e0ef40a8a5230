package usecase

import "time"

// Retry budgets and pacing of upstream calls. The upstream is rate limited,
// so these are fixed per call site rather than configurable.
const (
	DetailChunkSize      = 5
	PageGroupSize        = 3
	HomePageSize         = 18
	BackgroundBatchPages = 5
	RelatedStrategyPages = 3

	detailRetries   = 2
	listRetries     = 2
	pageRetries     = 1
	strategyRetries = 1
	probeRetries    = 0

	baseRetryDelay  = time.Second
	probeRetryDelay = 500 * time.Millisecond

	chunkPause       = 500 * time.Millisecond
	singleFetchPause = 200 * time.Millisecond
	groupPause       = 800 * time.Millisecond
	backgroundPause  = time.Second
	relatedPause     = 300 * time.Millisecond

	statusTimeout = 5 * time.Second
	warmStoreTTL  = 10 * time.Minute
)

func videoKey(id string) string {
	return "video:" + id
}
