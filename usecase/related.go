package usecase

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"vod-catalog/domain/dto"
	"vod-catalog/domain/model"
	"vod-catalog/domain/repository"
	"vod-catalog/infrastructure/logger"
	"vod-catalog/infrastructure/retry"
)

const maxTitleKeywords = 2

// RelatedResolver collects videos from the seed's exact category through a
// series of discovery strategies, stopping as soon as enough are found.
type RelatedResolver struct {
	source     repository.ICatalogSource
	exec       *retry.Executor
	fetcher    *BatchFetcher
	categories *model.CategoryTable
}

func NewRelatedResolver(source repository.ICatalogSource, exec *retry.Executor, fetcher *BatchFetcher, categories *model.CategoryTable) *RelatedResolver {
	if categories == nil {
		categories = model.DefaultCategoryTable()
	}
	return &RelatedResolver{source: source, exec: exec, fetcher: fetcher, categories: categories}
}

// strategy is one listing query; pages lists the upstream pages it walks (0 means no pg parameter).
type strategy struct {
	name  string
	req   dto.VodListRequest
	pages []int
}

type relatedRun struct {
	seedCategory string
	limit        int
	seen         map[string]struct{}
	found        []model.Video
}

func (r *relatedRun) full() bool { return len(r.found) >= r.limit }

// FindRelated returns up to limit videos whose category equals seedCategory,
// never including seedID. A blank category yields nothing without upstream calls.
func (rr *RelatedResolver) FindRelated(ctx context.Context, seedID, seedCategory, seedTitle string, limit int) []model.Video {
	seedCategory = strings.TrimSpace(seedCategory)
	if seedID == "" || seedCategory == "" || limit <= 0 {
		return []model.Video{}
	}

	run := &relatedRun{
		seedCategory: seedCategory,
		limit:        limit,
		seen:         map[string]struct{}{seedID: {}},
	}
	for _, s := range rr.strategies(seedCategory, seedTitle, limit) {
		if run.full() {
			break
		}
		rr.runStrategy(ctx, run, s)
	}

	out := model.DedupeByID(run.found)
	model.SortByPopularity(out)
	return model.Truncate(out, limit)
}

func (rr *RelatedResolver) strategies(category, title string, limit int) []strategy {
	size := limit * 2
	pages := make([]int, RelatedStrategyPages)
	for i := range pages {
		pages[i] = i + 1
	}
	list := []strategy{
		{name: "type", req: dto.VodListRequest{TypeID: category, Limit: size}, pages: pages},
		{name: "class", req: dto.VodListRequest{Class: category, Limit: size}, pages: pages},
		{name: "search", req: dto.VodListRequest{Query: category, Limit: size}, pages: pages},
	}
	if typeID, ok := rr.categories.IDFor(category); ok {
		list = append(list, strategy{name: "typeId", req: dto.VodListRequest{TypeID: typeID, Limit: size}, pages: pages})
	}
	for _, kw := range TitleKeywords(title) {
		list = append(list, strategy{name: "keyword", req: dto.VodListRequest{Query: kw, Limit: size}, pages: []int{0}})
	}
	list = append(list, strategy{name: "popular", req: dto.VodListRequest{Limit: size}, pages: pages})
	return list
}

// runStrategy walks the strategy's pages. An upstream failure abandons the rest of the strategy.
func (rr *RelatedResolver) runStrategy(ctx context.Context, run *relatedRun, s strategy) {
	for _, page := range s.pages {
		if run.full() {
			return
		}
		req := s.req
		req.Action = dto.ActionList
		req.Page = page
		res, err := retry.Execute(ctx, rr.exec, strategyRetries, baseRetryDelay, func(ctx context.Context) (*dto.VodListResponse, error) {
			return rr.source.List(ctx, &req)
		})
		if err != nil {
			logger.GetLogger().WithFields(map[string]interface{}{
				"strategy": s.name,
				"page":     page,
				"error":    err,
			}).Warn("Related strategy failed")
			return
		}

		ids, listed := pickCategoryMatches(res.Items(), run.seedCategory, run.seen, run.limit-len(run.found))
		if len(ids) == 0 {
			continue
		}
		for _, v := range rr.fetcher.FetchDetails(ctx, ids, listed...) {
			if sameCategory(v, run.seedCategory) {
				run.found = append(run.found, v)
			}
		}
		rr.exec.Pause(ctx, relatedPause)
	}
}

// pickCategoryMatches selects up to room unseen items whose list-level category
// equals category exactly, and marks them seen.
func pickCategoryMatches(items []model.RawRecord, category string, seen map[string]struct{}, room int) ([]string, []model.RawRecord) {
	ids := make([]string, 0, room)
	listed := make([]model.RawRecord, 0, room)
	for _, raw := range items {
		if len(ids) >= room {
			break
		}
		id := model.RecordID(raw)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		if model.RecordCategory(raw) != category {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
		listed = append(listed, raw)
	}
	return ids, listed
}

func sameCategory(v model.Video, category string) bool {
	if v.Category == category {
		return true
	}
	typeName, _ := v.Raw["type_name"].(string)
	return typeName == category
}

// TitleKeywords extracts up to two search keywords from a title: runs of
// letters and digits at least two characters long.
func TitleKeywords(title string) []string {
	fields := strings.FieldsFunc(title, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.Is(unicode.Mn, r)
	})
	out := make([]string, 0, maxTitleKeywords)
	for _, f := range fields {
		if utf8.RuneCountInString(f) < 2 {
			continue
		}
		out = append(out, f)
		if len(out) == maxTitleKeywords {
			break
		}
	}
	return out
}
