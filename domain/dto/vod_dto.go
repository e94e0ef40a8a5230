package dto

import (
	"vod-catalog/domain/model"
)

const (
	ActionList      = "list"
	ActionDetail    = "detail"
	ActionVideoList = "videolist"
)

// VodListRequest is encoded into the upstream query string with go-querystring
type VodListRequest struct {
	Action string `url:"ac"`
	Page   int    `url:"pg,omitempty"`
	Limit  int    `url:"limit,omitempty"`
	TypeID string `url:"t,omitempty"`
	Class  string `url:"class,omitempty"`
	Query  string `url:"wd,omitempty"`
}

// VodDetailRequest requests full records for a set of IDs (ids=a,b,c)
type VodDetailRequest struct {
	Action string   `url:"ac"`
	IDs    []string `url:"ids,comma"`
}

// VodListResponse is the upstream envelope. Only List and Total are consumed.
type VodListResponse struct {
	Code      interface{}       `json:"code"`
	Msg       string            `json:"msg"`
	Page      interface{}       `json:"page"`
	PageCount interface{}       `json:"pagecount"`
	Limit     interface{}       `json:"limit"`
	Total     interface{}       `json:"total"`
	List      []model.RawRecord `json:"list"`
}

func (r *VodListResponse) Items() []model.RawRecord {
	if r == nil {
		return nil
	}
	return r.List
}

func (r *VodListResponse) TotalCount() int64 {
	if r == nil {
		return 0
	}
	return model.ParseIntOrZero(r.Total)
}
